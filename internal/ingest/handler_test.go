package ingest

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizforge/internal/paper"
	"quizforge/internal/question"
)

type mockGenerator struct {
	generateFn func(ctx context.Context, sourceText string) ([]question.Input, error)
}

func (m *mockGenerator) GenerateQuestions(ctx context.Context, sourceText string) ([]question.Input, error) {
	if m.generateFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.generateFn(ctx, sourceText)
}

type mockPaperCreator struct {
	createFn func(ctx context.Context, title string, questions []question.Input) (*paper.Paper, error)
}

func (m *mockPaperCreator) CreateWithQuestions(ctx context.Context, title string, questions []question.Input) (*paper.Paper, error) {
	if m.createFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createFn(ctx, title, questions)
}

func multipartBody(t *testing.T, title, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			t.Fatalf("write title field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("write file content: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestGenerateCreatesPaperFromModelOutput(t *testing.T) {
	var gotTitle string
	var gotItems []question.Input
	h := &Handler{
		svc: &mockGenerator{
			generateFn: func(ctx context.Context, sourceText string) ([]question.Input, error) {
				return []question.Input{
					{QuestionText: "Q1", OptionA: "x", OptionB: "y", OptionC: "z", OptionD: "w", CorrectOption: "A"},
				}, nil
			},
		},
		papers: &mockPaperCreator{
			createFn: func(ctx context.Context, title string, questions []question.Input) (*paper.Paper, error) {
				gotTitle = title
				gotItems = questions
				return &paper.Paper{ID: 9, Title: title, QuestionCount: len(questions), CreatedAt: time.Now()}, nil
			},
		},
	}

	payload := []byte(`{"title":"  Biology  ","source_text":"cells and things"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/generate", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Generate(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if gotTitle != "Biology" {
		t.Fatalf("expected trimmed title, got %q", gotTitle)
	}
	if len(gotItems) != 1 || gotItems[0].QuestionText != "Q1" {
		t.Fatalf("expected generated items to reach the store, got %+v", gotItems)
	}
}

func TestGenerateRequiresTitleAndSource(t *testing.T) {
	called := false
	h := &Handler{
		svc: &mockGenerator{
			generateFn: func(ctx context.Context, sourceText string) ([]question.Input, error) {
				called = true
				return nil, nil
			},
		},
		papers: &mockPaperCreator{},
	}

	payload := []byte(`{"title":"   ","source_text":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/generate", bytes.NewReader(payload))
	w := httptest.NewRecorder()

	h.Generate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if called {
		t.Fatal("generator should not run on invalid input")
	}
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "missing key", err: ErrAPIKeyMissing, want: http.StatusServiceUnavailable},
		{name: "zero questions", err: ErrNoQuestionsGenerated, want: http.StatusUnprocessableEntity},
		{name: "non-json output", err: ErrModelResponse, want: http.StatusBadGateway},
		{name: "network failure", err: errors.New("dial tcp: timeout"), want: http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := &Handler{
				svc: &mockGenerator{
					generateFn: func(ctx context.Context, sourceText string) ([]question.Input, error) {
						return nil, tc.err
					},
				},
				papers: &mockPaperCreator{},
			}

			payload := []byte(`{"title":"T","source_text":"S"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/generate", bytes.NewReader(payload))
			w := httptest.NewRecorder()

			h.Generate(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestImportFileCSV(t *testing.T) {
	var gotItems []question.Input
	h := &Handler{
		svc: &mockGenerator{},
		papers: &mockPaperCreator{
			createFn: func(ctx context.Context, title string, questions []question.Input) (*paper.Paper, error) {
				gotItems = questions
				return &paper.Paper{ID: 3, Title: title, QuestionCount: len(questions)}, nil
			},
		},
	}

	csvContent := "question_text,option_a,option_b,option_c,option_d,correct_option\n2+2?,3,4,5,6,b\n"
	body, contentType := multipartBody(t, "Math101", "questions.csv", csvContent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.ImportFile(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(gotItems) != 1 || gotItems[0].CorrectOption != "B" {
		t.Fatalf("expected normalized csv rows, got %+v", gotItems)
	}
}

func TestImportFileUnsupportedExtension(t *testing.T) {
	h := &Handler{svc: &mockGenerator{}, papers: &mockPaperCreator{}}

	body, contentType := multipartBody(t, "Math101", "questions.pdf", "%PDF-1.4")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.ImportFile(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestImportFileRequiresTitle(t *testing.T) {
	h := &Handler{svc: &mockGenerator{}, papers: &mockPaperCreator{}}

	body, contentType := multipartBody(t, "", "questions.csv", "question_text\nQ1\n")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.ImportFile(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestImportFileEmptyRows(t *testing.T) {
	h := &Handler{svc: &mockGenerator{}, papers: &mockPaperCreator{
		createFn: func(ctx context.Context, title string, questions []question.Input) (*paper.Paper, error) {
			t.Fatal("no paper should be created for an empty file")
			return nil, nil
		},
	}}

	body, contentType := multipartBody(t, "Math101", "questions.csv", "question_text,option_a\n")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/import", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	h.ImportFile(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}
