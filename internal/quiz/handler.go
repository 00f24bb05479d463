// internal/quiz/handler.go
package quiz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"learnly/internal/auth"
	"learnly/internal/studyset"
	"learnly/pkg/httpx"
)

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{service: service, log: log}
}

// Register mounts the quiz routes on an authenticated router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/sets/{setID}/quiz", h.StartQuiz).Methods(http.MethodPost)
	r.HandleFunc("/quiz", h.GetQuiz).Methods(http.MethodGet)
	r.HandleFunc("/quiz", h.QuitQuiz).Methods(http.MethodDelete)
	r.HandleFunc("/quiz/answers", h.SubmitAnswer).Methods(http.MethodPost)
	r.HandleFunc("/quiz/finish", h.FinishQuiz).Methods(http.MethodPost)
	r.HandleFunc("/quiz/retake", h.Retake).Methods(http.MethodPost)
	r.HandleFunc("/quiz/retake-missed", h.RetakeMissed).Methods(http.MethodPost)
	r.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet)
}

type AnswerRequest struct {
	ItemID string `json:"itemId"`
	Answer string `json:"answer"`
}

func (h *Handler) StartQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	session, err := h.service.Start(r.Context(), userID, mux.Vars(r)["setID"])
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	session, err := h.service.Current(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) QuitQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.service.Quit(r.Context(), userID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req AnswerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.ItemID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	session, err := h.service.Answer(r.Context(), userID, req.ItemID, req.Answer)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) FinishQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	outcome, err := h.service.Finish(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) Retake(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	session, err := h.service.Retake(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) RetakeMissed(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	session, err := h.service.RetakeMissed(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, session)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, studyset.ErrSetNotFound), errors.Is(err, ErrNoActiveSession):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptySession), errors.Is(err, ErrNotQuizSet):
		httpx.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotInProgress), errors.Is(err, ErrNotStarted),
		errors.Is(err, ErrNotCompleted), errors.Is(err, ErrNothingMissed):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("quiz request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
