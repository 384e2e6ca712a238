package exam

import (
	"errors"
	"testing"

	"quizforge/internal/question"
)

func mathQuestions() []question.Question {
	return []question.Question{
		{ID: 1, PaperID: 10, QuestionText: "2+2?", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: "B"},
		{ID: 2, PaperID: 10, QuestionText: "3*3?", OptionA: "9", OptionB: "6", OptionC: "12", OptionD: "3", CorrectOption: "A"},
		{ID: 3, PaperID: 10, QuestionText: "10/2?", OptionA: "2", OptionB: "4", OptionC: "5", OptionD: "10", CorrectOption: "C"},
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		questions []question.Question
		answers   map[int64]string
		want      Result
	}{
		{
			name:      "single question correct",
			questions: mathQuestions()[:1],
			answers:   map[int64]string{1: "B"},
			want:      Result{Score: 1, TotalQuestions: 1, Percentage: 100},
		},
		{
			name:      "single question no answer",
			questions: mathQuestions()[:1],
			answers:   map[int64]string{},
			want:      Result{Score: 0, TotalQuestions: 1, Percentage: 0},
		},
		{
			name:      "all correct",
			questions: mathQuestions(),
			answers:   map[int64]string{1: "B", 2: "A", 3: "C"},
			want:      Result{Score: 3, TotalQuestions: 3, Percentage: 100},
		},
		{
			name:      "one of three rounds to two decimals",
			questions: mathQuestions(),
			answers:   map[int64]string{1: "B", 2: "D", 3: "A"},
			want:      Result{Score: 1, TotalQuestions: 3, Percentage: 33.33},
		},
		{
			name:      "two of three rounds up",
			questions: mathQuestions(),
			answers:   map[int64]string{1: "B", 2: "A"},
			want:      Result{Score: 2, TotalQuestions: 3, Percentage: 66.67},
		},
		{
			name:      "unanswered question counts incorrect",
			questions: mathQuestions(),
			answers:   map[int64]string{2: "A"},
			want:      Result{Score: 1, TotalQuestions: 3, Percentage: 33.33},
		},
		{
			name:      "unknown question ids never match",
			questions: mathQuestions()[:1],
			answers:   map[int64]string{99: "B", 1: "B"},
			want:      Result{Score: 1, TotalQuestions: 1, Percentage: 100},
		},
		{
			name:      "letters compare exactly",
			questions: mathQuestions()[:1],
			answers:   map[int64]string{1: "b"},
			want:      Result{Score: 0, TotalQuestions: 1, Percentage: 0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Score(tc.questions, tc.answers)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Score = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestScoreEmptyQuestionSet(t *testing.T) {
	_, err := Score(nil, map[int64]string{1: "A"})
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestScoreMonotonicWithMatchingEntries(t *testing.T) {
	qs := mathQuestions()
	answers := map[int64]string{}

	prev := -1
	for _, q := range qs {
		answers[q.ID] = q.CorrectOption
		got, err := Score(qs, answers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Score <= prev {
			t.Fatalf("score did not increase: prev=%d got=%d", prev, got.Score)
		}
		prev = got.Score
	}
	if prev != len(qs) {
		t.Fatalf("expected full score %d, got %d", len(qs), prev)
	}
}

func TestNormalizeAnswers(t *testing.T) {
	in := map[int64]string{
		1: "b",
		2: " C ",
		3: "",
		4: "AB",
		5: "e",
	}
	got := normalizeAnswers(in)

	if got[1] != "B" || got[2] != "C" {
		t.Fatalf("expected case and whitespace normalization, got %+v", got)
	}
	for _, id := range []int64{3, 4, 5} {
		if _, ok := got[id]; ok {
			t.Fatalf("expected entry %d to be dropped, got %+v", id, got)
		}
	}
}
