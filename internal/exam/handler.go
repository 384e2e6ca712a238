package exam

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"quizforge/internal/app/apiresp"
	"quizforge/internal/auth"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc examService
}

type examService interface {
	PaperForTaking(ctx context.Context, paperID int64) (*TakePaper, error)
	Submit(ctx context.Context, input SubmitInput) (*Submission, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type submitRequest struct {
	Answers map[int64]string `json:"answers"`
}

func NewHandler(svc examService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Paper(w http.ResponseWriter, r *http.Request) {
	paperID, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil || paperID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid paper id"})
		return
	}

	paper, err := h.svc.PaperForTaking(r.Context(), paperID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaperNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		}
		return
	}

	writeJSON(w, r, http.StatusOK, response{OK: true, Data: paper})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.CurrentSession(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, response{OK: false, Error: "unauthorized"})
		return
	}

	paperID, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil || paperID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid paper id"})
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	sub, err := h.svc.Submit(r.Context(), SubmitInput{
		PaperID:     paperID,
		StudentName: sess.StudentName,
		Answers:     req.Answers,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrPaperNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrNoQuestions):
			writeJSON(w, r, http.StatusUnprocessableEntity, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		}
		return
	}

	writeJSON(w, r, http.StatusOK, response{OK: true, Data: sub})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
