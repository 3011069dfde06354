package complaint

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/kos-ai-bridge/internal/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), Status(r.URL.Query().Get("status")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if list == nil {
		list = []Complaint{}
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	// admins type "in progress"
	status := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(payload.Status)), " ", "_"))

	c, err := h.svc.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[complaint] request failed: %v", err)
		http.Error(w, "processing error", http.StatusInternalServerError)
	}
}
