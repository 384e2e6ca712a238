package exam

import (
	"errors"
	"math"
	"strings"
	"unicode"

	"quizforge/internal/question"
)

var ErrNoQuestions = errors.New("paper has no questions")

type Result struct {
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     float64 `json:"percentage"`
}

// Score compares submitted option letters against the authoritative question
// set. A question with no submitted entry counts as incorrect. An empty
// question set signals invalid input instead of dividing by zero.
func Score(questions []question.Question, answers map[int64]string) (Result, error) {
	total := len(questions)
	if total == 0 {
		return Result{}, ErrNoQuestions
	}

	score := 0
	for _, q := range questions {
		if answers[q.ID] == q.CorrectOption {
			score++
		}
	}

	return Result{
		Score:          score,
		TotalQuestions: total,
		Percentage:     roundPercentage(float64(score) / float64(total) * 100),
	}, nil
}

func roundPercentage(v float64) float64 {
	return math.Round(v*100) / 100
}

// normalizeAnswers upper-cases submitted letters and drops everything that is
// not a single A-D choice, so stored rows only ever hold valid options.
func normalizeAnswers(raw map[int64]string) map[int64]string {
	out := make(map[int64]string, len(raw))
	for id, v := range raw {
		s := strings.TrimSpace(v)
		if len([]rune(s)) != 1 {
			continue
		}
		switch r := unicode.ToUpper([]rune(s)[0]); r {
		case 'A', 'B', 'C', 'D':
			out[id] = string(r)
		}
	}
	return out
}
