package paper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"quizforge/internal/question"
)

var ErrPaperNotFound = errors.New("paper not found")

type Service struct {
	db *sql.DB
}

type Paper struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create inserts a bare paper. Title validation happens at the handler;
// the store takes what it is given.
func (s *Service) Create(ctx context.Context, title string) (*Paper, error) {
	p := Paper{Title: title}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO papers (title)
		VALUES ($1)
		RETURNING id, created_at
	`, title).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert paper: %w", err)
	}
	return &p, nil
}

// List returns every paper newest first, with its question count for
// dashboard display and empty-paper gating.
func (s *Service) List(ctx context.Context) ([]Paper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.created_at, COUNT(q.id)
		FROM papers p
		LEFT JOIN questions q ON q.paper_id = p.id
		GROUP BY p.id, p.title, p.created_at
		ORDER BY p.created_at DESC, p.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	items := make([]Paper, 0)
	for rows.Next() {
		var p Paper
		if err := rows.Scan(&p.ID, &p.Title, &p.CreatedAt, &p.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}

	return items, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Paper, error) {
	var p Paper
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.title, p.created_at, COUNT(q.id)
		FROM papers p
		LEFT JOIN questions q ON q.paper_id = p.id
		WHERE p.id = $1
		GROUP BY p.id, p.title, p.created_at
	`, id).Scan(&p.ID, &p.Title, &p.CreatedAt, &p.QuestionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return &p, nil
}

// Delete removes the paper; questions and results go with it through the
// ON DELETE CASCADE constraints.
func (s *Service) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete paper result: %w", err)
	}
	if affected == 0 {
		return ErrPaperNotFound
	}
	return nil
}

// CreateWithQuestions inserts the paper and its full question batch in one
// transaction. A failure anywhere rolls the whole batch back, so an import
// can never leave a paper behind with partial questions.
func (s *Service) CreateWithQuestions(ctx context.Context, title string, questions []question.Input) (*Paper, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p := Paper{Title: title, QuestionCount: len(questions)}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO papers (title)
		VALUES ($1)
		RETURNING id, created_at
	`, title).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert paper: %w", err)
	}

	for _, q := range questions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO questions (paper_id, question_text, option_a, option_b, option_c, option_d, correct_option)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD, question.NormalizeCorrectOption(q.CorrectOption))
		if err != nil {
			return nil, fmt.Errorf("insert question batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import tx: %w", err)
	}

	return &p, nil
}
