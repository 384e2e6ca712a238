package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"quizforge/internal/app/apiresp"
	"quizforge/internal/paper"
	"quizforge/internal/question"
)

type Handler struct {
	svc    questionGenerator
	papers paperCreator
}

type questionGenerator interface {
	GenerateQuestions(ctx context.Context, sourceText string) ([]question.Input, error)
}

type paperCreator interface {
	CreateWithQuestions(ctx context.Context, title string, questions []question.Input) (*paper.Paper, error)
}

type generateRequest struct {
	Title      string `json:"title"`
	SourceText string `json:"source_text"`
}

func NewHandler(svc *Service, papers *paper.Service) *Handler {
	return &Handler{svc: svc, papers: papers}
}

// Generate turns pasted or scraped text into a new paper with model-written
// questions. The paper and its questions land in one transaction, so a
// failed generation never leaves an empty paper behind.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	sourceText := strings.TrimSpace(req.SourceText)
	if title == "" || sourceText == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "title and source_text are required")
		return
	}

	items, err := h.svc.GenerateQuestions(r.Context(), sourceText)
	if err != nil {
		switch {
		case errors.Is(err, ErrAPIKeyMissing):
			apiresp.WriteError(w, r, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, ErrNoQuestionsGenerated):
			apiresp.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrModelResponse):
			apiresp.WriteError(w, r, http.StatusBadGateway, err.Error())
		default:
			apiresp.WriteError(w, r, http.StatusBadGateway, "generative model request failed")
		}
		return
	}

	created, err := h.papers.CreateWithQuestions(r.Context(), title, items)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	apiresp.WriteOK(w, r, http.StatusCreated, created)
}

// ImportFile builds a paper from an uploaded CSV or XLSX question file.
func (h *Handler) ImportFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(16 << 20); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		apiresp.WriteError(w, r, http.StatusBadRequest, "title is required")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	var items []question.Input
	switch strings.ToLower(filepath.Ext(hdr.Filename)) {
	case ".csv":
		items, err = ParseCSV(file)
	case ".xlsx":
		items, err = ParseXLSX(file)
	default:
		apiresp.WriteError(w, r, http.StatusBadRequest, "unsupported file type, expected .csv or .xlsx")
		return
	}
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(items) == 0 {
		apiresp.WriteError(w, r, http.StatusUnprocessableEntity, "file contains no question rows")
		return
	}

	created, err := h.papers.CreateWithQuestions(r.Context(), title, items)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	apiresp.WriteOK(w, r, http.StatusCreated, map[string]any{
		"paper":    created,
		"filename": hdr.Filename,
		"imported": len(items),
	})
}
