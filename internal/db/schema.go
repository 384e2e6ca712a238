package db

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS papers (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS questions (
	id BIGSERIAL PRIMARY KEY,
	paper_id BIGINT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
	question_text TEXT NOT NULL,
	option_a TEXT NOT NULL,
	option_b TEXT NOT NULL,
	option_c TEXT NOT NULL,
	option_d TEXT NOT NULL,
	correct_option TEXT NOT NULL DEFAULT 'A'
);

CREATE TABLE IF NOT EXISTS results (
	id BIGSERIAL PRIMARY KEY,
	paper_id BIGINT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
	student_name TEXT NOT NULL,
	score INT NOT NULL,
	total_questions INT NOT NULL,
	percentage DOUBLE PRECISION NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_questions_paper_id ON questions(paper_id);
CREATE INDEX IF NOT EXISTS idx_results_paper_id ON results(paper_id);
`

// EnsureSchema applies the DDL set above. Every statement is idempotent, so
// it runs on each startup; a failure here means the process must not serve.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
