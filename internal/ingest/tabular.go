package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"quizforge/internal/question"

	"github.com/xuri/excelize/v2"
)

// ParseCSV reads question rows from a CSV file with a header row. Only the
// question_text column is required; every other field falls back to the same
// placeholders the model path uses.
func ParseCSV(r io.Reader) ([]question.Input, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := headerIndex(header)
	if _, ok := index["question_text"]; !ok {
		return nil, errors.New("missing required column: question_text")
	}

	items := make([]question.Input, 0)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if isRowEmpty(rec) {
			continue
		}
		items = append(items, inputFromFields(func(key string) string {
			return cell(rec, index, key)
		}))
	}
	return items, nil
}

// ParseXLSX reads question rows from the first sheet of a workbook, laid out
// the same way as the CSV format.
func ParseXLSX(r io.Reader) ([]question.Input, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("missing header row")
	}

	index := headerIndex(rows[0])
	if _, ok := index["question_text"]; !ok {
		return nil, errors.New("missing required column: question_text")
	}

	items := make([]question.Input, 0)
	for i := 1; i < len(rows); i++ {
		rec := rows[i]
		if isRowEmpty(rec) {
			continue
		}
		items = append(items, inputFromFields(func(key string) string {
			return cell(rec, index, key)
		}))
	}
	return items, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		if n := normalizeHeader(h); n != "" {
			index[n] = i
		}
	}
	return index
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "-", "_")
	h = strings.ReplaceAll(h, " ", "_")
	return h
}

func cell(rec []string, idx map[string]int, key string) string {
	i, ok := idx[key]
	if !ok || i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isRowEmpty(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
