package report

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"quizforge/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc reportService
}

type reportService interface {
	PaperSummary(ctx context.Context, paperID int64) (*Summary, error)
	PaperResults(ctx context.Context, paperID int64) ([]ResultRow, error)
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) PaperReport(w http.ResponseWriter, r *http.Request) {
	paperID, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil || paperID <= 0 {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid paper id")
		return
	}

	summary, err := h.svc.PaperSummary(r.Context(), paperID)
	if err != nil {
		if errors.Is(err, ErrPaperNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	results, err := h.svc.PaperResults(r.Context(), paperID)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	apiresp.WriteOK(w, r, http.StatusOK, map[string]any{
		"summary": summary,
		"results": results,
	})
}
