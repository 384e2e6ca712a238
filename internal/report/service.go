package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrPaperNotFound = errors.New("paper not found")

type Service struct {
	db *sql.DB
}

// Summary aggregates every recorded result for one paper. A paper nobody has
// attempted yet reports zero across the board, which is a valid state.
type Summary struct {
	PaperID        int64   `json:"paper_id"`
	Count          int     `json:"count"`
	MeanPercentage float64 `json:"mean_percentage"`
	MaxPercentage  float64 `json:"max_percentage"`
	MinPercentage  float64 `json:"min_percentage"`
}

type ResultRow struct {
	ID             int64     `json:"id"`
	StudentName    string    `json:"student_name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) PaperSummary(ctx context.Context, paperID int64) (*Summary, error) {
	if err := s.requirePaper(ctx, paperID); err != nil {
		return nil, err
	}

	summary := &Summary{PaperID: paperID}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(percentage), 0),
			COALESCE(MAX(percentage), 0),
			COALESCE(MIN(percentage), 0)
		FROM results
		WHERE paper_id = $1
	`, paperID).Scan(&summary.Count, &summary.MeanPercentage, &summary.MaxPercentage, &summary.MinPercentage)
	if err != nil {
		return nil, fmt.Errorf("aggregate results: %w", err)
	}

	summary.MeanPercentage = math.Round(summary.MeanPercentage*100) / 100
	return summary, nil
}

// PaperResults returns the raw attempt rows, newest submission first.
func (s *Service) PaperResults(ctx context.Context, paperID int64) ([]ResultRow, error) {
	if err := s.requirePaper(ctx, paperID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_name, score, total_questions, percentage, submitted_at
		FROM results
		WHERE paper_id = $1
		ORDER BY submitted_at DESC, id DESC
	`, paperID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	items := make([]ResultRow, 0)
	for rows.Next() {
		var row ResultRow
		if err := rows.Scan(&row.ID, &row.StudentName, &row.Score, &row.TotalQuestions, &row.Percentage, &row.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}

	return items, nil
}

func (s *Service) requirePaper(ctx context.Context, paperID int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM papers WHERE id = $1)
	`, paperID).Scan(&exists); err != nil {
		return fmt.Errorf("check paper exists: %w", err)
	}
	if !exists {
		return ErrPaperNotFound
	}
	return nil
}
