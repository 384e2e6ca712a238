package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizforge/internal/question"
)

var ErrPaperNotFound = errors.New("paper not found")

type Service struct {
	db *sql.DB
}

// TakeQuestion is the student-facing view of a question. The correct option
// never leaves the server through this shape.
type TakeQuestion struct {
	ID           int64  `json:"id"`
	QuestionText string `json:"question_text"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
}

type TakePaper struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Questions []TakeQuestion `json:"questions"`
}

type SubmitInput struct {
	PaperID     int64
	StudentName string
	Answers     map[int64]string
}

type Submission struct {
	ID             int64     `json:"id"`
	PaperID        int64     `json:"paper_id"`
	StudentName    string    `json:"student_name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// PaperForTaking loads the paper and its questions in id order with the
// correct options stripped. A paper with zero questions is still returned;
// the submit path is what refuses to grade it.
func (s *Service) PaperForTaking(ctx context.Context, paperID int64) (*TakePaper, error) {
	paper := &TakePaper{ID: paperID}
	err := s.db.QueryRowContext(ctx, `
		SELECT title
		FROM papers
		WHERE id = $1
	`, paperID).Scan(&paper.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("load paper: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_text, option_a, option_b, option_c, option_d
		FROM questions
		WHERE paper_id = $1
		ORDER BY id ASC
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("query questions for taking: %w", err)
	}
	defer rows.Close()

	paper.Questions = make([]TakeQuestion, 0)
	for rows.Next() {
		var q TakeQuestion
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		paper.Questions = append(paper.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question rows: %w", err)
	}

	return paper, nil
}

// Submit grades one submission against the paper's current questions and
// records the outcome. Every call inserts a fresh row; repeat attempts are
// tracked as separate results, never merged.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*Submission, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM papers WHERE id = $1)
	`, input.PaperID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check paper exists: %w", err)
	}
	if !exists {
		return nil, ErrPaperNotFound
	}

	questions, err := s.loadQuestions(ctx, input.PaperID)
	if err != nil {
		return nil, err
	}

	result, err := Score(questions, normalizeAnswers(input.Answers))
	if err != nil {
		return nil, err
	}

	sub := &Submission{
		PaperID:        input.PaperID,
		StudentName:    strings.TrimSpace(input.StudentName),
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Percentage:     result.Percentage,
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO results (
			paper_id,
			student_name,
			score,
			total_questions,
			percentage
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, submitted_at
	`, sub.PaperID, sub.StudentName, sub.Score, sub.TotalQuestions, sub.Percentage).Scan(&sub.ID, &sub.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}

	return sub, nil
}

func (s *Service) loadQuestions(ctx context.Context, paperID int64) ([]question.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paper_id, question_text, option_a, option_b, option_c, option_d, correct_option
		FROM questions
		WHERE paper_id = $1
		ORDER BY id ASC
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("query questions for grading: %w", err)
	}
	defer rows.Close()

	out := make([]question.Question, 0)
	for rows.Next() {
		var q question.Question
		if err := rows.Scan(&q.ID, &q.PaperID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption); err != nil {
			return nil, fmt.Errorf("scan grading row: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grading rows: %w", err)
	}
	return out, nil
}
