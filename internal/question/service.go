package question

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrPaperNotFound    = errors.New("paper not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type Service struct {
	db *sql.DB
}

type Question struct {
	ID            int64  `json:"id"`
	PaperID       int64  `json:"paper_id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

// Input carries the writable question fields. Imports (CSV, XLSX, AI) and
// the manual form all funnel through this shape.
type Input struct {
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option"`
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// NormalizeCorrectOption reduces a raw correct-option value to a single
// uppercase letter in A-D. Only the first character counts; empty or
// out-of-range input becomes "A".
func NormalizeCorrectOption(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "A"
	}
	switch r := unicode.ToUpper([]rune(s)[0]); r {
	case 'A', 'B', 'C', 'D':
		return string(r)
	default:
		return "A"
	}
}

func (s *Service) Add(ctx context.Context, paperID int64, in Input) (*Question, error) {
	exists, err := s.paperExists(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPaperNotFound
	}

	q := Question{
		PaperID:       paperID,
		QuestionText:  in.QuestionText,
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
		OptionC:       in.OptionC,
		OptionD:       in.OptionD,
		CorrectOption: NormalizeCorrectOption(in.CorrectOption),
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO questions (paper_id, question_text, option_a, option_b, option_c, option_d, correct_option)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, q.PaperID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption).Scan(&q.ID)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}

	return &q, nil
}

// ListByPaper returns the paper's questions ordered by id ascending. The id
// order is the stable question numbering; list position is never persisted.
func (s *Service) ListByPaper(ctx context.Context, paperID int64) ([]Question, error) {
	exists, err := s.paperExists(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrPaperNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, paper_id, question_text, option_a, option_b, option_c, option_d, correct_option
		FROM questions
		WHERE paper_id = $1
		ORDER BY id ASC
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	items := make([]Question, 0)
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.PaperID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Question, error) {
	var q Question
	err := s.db.QueryRowContext(ctx, `
		SELECT id, paper_id, question_text, option_a, option_b, option_c, option_d, correct_option
		FROM questions
		WHERE id = $1
	`, id).Scan(&q.ID, &q.PaperID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Question, error) {
	q := Question{
		ID:            id,
		QuestionText:  in.QuestionText,
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
		OptionC:       in.OptionC,
		OptionD:       in.OptionD,
		CorrectOption: NormalizeCorrectOption(in.CorrectOption),
	}

	err := s.db.QueryRowContext(ctx, `
		UPDATE questions
		SET question_text = $1, option_a = $2, option_b = $3, option_c = $4, option_d = $5, correct_option = $6
		WHERE id = $7
		RETURNING paper_id
	`, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, q.CorrectOption, id).Scan(&q.PaperID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}

	return &q, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete question result: %w", err)
	}
	if affected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *Service) paperExists(ctx context.Context, paperID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM papers WHERE id = $1)`, paperID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check paper: %w", err)
	}
	return exists, nil
}
