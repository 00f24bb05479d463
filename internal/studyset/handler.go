// internal/studyset/handler.go
package studyset

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"learnly/internal/auth"
	"learnly/internal/models"
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

// Register mounts the library routes on an authenticated router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/sets", h.ListSets).Methods(http.MethodGet)
	r.HandleFunc("/sets", h.CreateSet).Methods(http.MethodPost)
	r.HandleFunc("/sets/{setID}", h.GetSet).Methods(http.MethodGet)
	r.HandleFunc("/sets/{setID}", h.RenameSet).Methods(http.MethodPut)
	r.HandleFunc("/sets/{setID}", h.DeleteSet).Methods(http.MethodDelete)
	r.HandleFunc("/sets/{setID}/move", h.MoveSet).Methods(http.MethodPost)
	r.HandleFunc("/sets/{setID}/items", h.AddItem).Methods(http.MethodPost)
	r.HandleFunc("/sets/{setID}/items/move", h.MoveItem).Methods(http.MethodPost)
	r.HandleFunc("/sets/{setID}/items/{itemID}", h.SaveItem).Methods(http.MethodPut)
	r.HandleFunc("/sets/{setID}/items/{itemID}", h.DeleteItem).Methods(http.MethodDelete)
	r.HandleFunc("/sets/{setID}/import", h.Import).Methods(http.MethodPost)
	r.HandleFunc("/sets/{setID}/study/{index:-?[0-9]+}", h.Study).Methods(http.MethodGet)
	r.HandleFunc("/legacy-sets", h.ListLegacy).Methods(http.MethodGet)
	r.HandleFunc("/legacy-sets/{legacyID}/recover", h.RecoverLegacy).Methods(http.MethodPost)
}

type CreateSetRequest struct {
	Type models.SetType `json:"type"`
}

type RenameSetRequest struct {
	Title string `json:"title"`
}

type MoveRequest struct {
	Index     int `json:"index"`
	Direction int `json:"direction"`
}

type ImportRequest struct {
	Text string `json:"text"`
}

type ImportResponse struct {
	Added int              `json:"added"`
	Set   *models.StudySet `json:"set"`
}

func (h *Handler) ListSets(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	q := r.URL.Query()
	sets, err := h.service.List(r.Context(), userID, models.SetType(q.Get("type")), q.Get("q"))
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sets)
}

func (h *Handler) CreateSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req CreateSetRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	set, err := h.service.Create(r.Context(), userID, req.Type)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, set)
}

func (h *Handler) GetSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	set, err := h.service.Get(r.Context(), userID, mux.Vars(r)["setID"])
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, set)
}

func (h *Handler) RenameSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req RenameSetRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	set, err := h.service.Rename(r.Context(), userID, mux.Vars(r)["setID"], req.Title)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, set)
}

func (h *Handler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.service.Delete(r.Context(), userID, mux.Vars(r)["setID"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MoveSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req MoveRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	sets, err := h.service.MoveSet(r.Context(), userID, mux.Vars(r)["setID"], req.Direction)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sets)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	set, err := h.service.AddBlankItem(r.Context(), userID, mux.Vars(r)["setID"])
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, set)
}

func (h *Handler) SaveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var raw json.RawMessage
	if err := httpx.DecodeJSON(w, r, &raw); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	item, err := models.DecodeItem(raw)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	vars := mux.Vars(r)
	if item.ItemID() != vars["itemID"] {
		httpx.WriteError(w, http.StatusBadRequest, "item id does not match path")
		return
	}
	set, err := h.service.SaveItem(r.Context(), userID, vars["setID"], item)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, set)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	vars := mux.Vars(r)
	set, err := h.service.DeleteItem(r.Context(), userID, vars["setID"], vars["itemID"])
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, set)
}

func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req MoveRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	set, err := h.service.MoveItem(r.Context(), userID, mux.Vars(r)["setID"], req.Index, req.Direction)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, set)
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req ImportRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}
	set, added, err := h.service.Import(r.Context(), userID, mux.Vars(r)["setID"], req.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ImportResponse{Added: added, Set: set})
}

func (h *Handler) Study(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid index")
		return
	}
	cursor, err := h.service.Study(r.Context(), userID, vars["setID"], index)
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, cursor)
}

func (h *Handler) ListLegacy(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.ListLegacy(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sets)
}

func (h *Handler) RecoverLegacy(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	set, err := h.service.RecoverLegacy(r.Context(), userID, mux.Vars(r)["legacyID"])
	if err != nil {
		h.fail(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, set)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSetNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrLegacyNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNothingImported), errors.Is(err, ErrEmptyDeck):
		httpx.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidItem), errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidMove), errors.Is(err, ErrEmptyTitle):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("study set request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
