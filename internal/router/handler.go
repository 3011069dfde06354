package router

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Vovarama1992/kos-ai-bridge/internal/httpx"
)

// Turns is the part of Service the HTTP entry needs.
type Turns interface {
	Handle(ctx context.Context, userID, text string) (string, error)
}

type Handler struct {
	turns Turns
}

func NewHandler(turns Turns) *Handler {
	return &Handler{turns: turns}
}

// Chat is the transport-independent chat entry.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID  string `json:"user_id"`
		Message string `json:"message"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	reply, err := h.turns.Handle(r.Context(), payload.UserID, payload.Message)
	if err != nil {
		if errors.Is(err, ErrEmptyUser) || errors.Is(err, ErrEmptyMessage) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("[router] chat userId=%s: %v", payload.UserID, err)
		if reply == "" {
			http.Error(w, "processing error", http.StatusInternalServerError)
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
