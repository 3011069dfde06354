package users

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Vovarama1992/kos-ai-bridge/internal/httpx"
)

type Handler struct {
	repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

type userResponse struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	ExternalID *string   `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toResponse(u *User) userResponse {
	return userResponse{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Phone:      u.Phone,
		ExternalID: u.ExternalID,
		CreatedAt:  u.CreatedAt,
	}
}

// Link ties a chat id to the user registered with that email.
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email      string `json:"email"`
		ExternalID string `json:"external_id"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Email) == "" {
		http.Error(w, "missing email", http.StatusBadRequest)
		return
	}

	u, err := h.repo.LinkExternalID(r.Context(), payload.Email, payload.ExternalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	log.Printf("[users] linked userId=%d externalId=%s", u.ID, payload.ExternalID)
	httpx.WriteJSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		u   *User
		err error
	)
	switch {
	case q.Get("email") != "":
		u, err = h.repo.GetByEmail(r.Context(), q.Get("email"))
	case q.Get("external_id") != "":
		u, err = h.repo.GetByExternalID(r.Context(), q.Get("external_id"))
	default:
		http.Error(w, "email or external_id is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(u))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrEmptyExternalID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyLinked), errors.Is(err, ErrExternalIDClaimed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[users] request failed: %v", err)
		http.Error(w, "processing error", http.StatusInternalServerError)
	}
}
