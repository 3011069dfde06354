package telegram

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Vovarama1992/kos-ai-bridge/internal/httpx"
)

type broadcaster interface {
	Broadcast(ctx context.Context, ids []int64, text string) []int64
}

type Handler struct {
	out broadcaster
	now func() time.Time
}

// NewHandler accepts a nil notifier when the bot token is not configured.
func NewHandler(n *Notifier) *Handler {
	h := &Handler{now: time.Now}
	if n != nil {
		h.out = n
	}
	return h
}

// SendMessages broadcasts an admin message to a list of Telegram chat ids.
func (h *Handler) SendMessages(w http.ResponseWriter, r *http.Request) {
	if h.out == nil {
		http.Error(w, ErrBotDisabled.Error(), http.StatusServiceUnavailable)
		return
	}

	var payload struct {
		IDs         []int64 `json:"ids"`
		TelegramIDs []int64 `json:"telegram_ids"`
		Message     string  `json:"message"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	ids := append(payload.IDs, payload.TelegramIDs...)
	msg := strings.TrimSpace(payload.Message)
	if len(ids) == 0 || msg == "" {
		http.Error(w, "missing ids or message", http.StatusBadRequest)
		return
	}

	sent := h.out.Broadcast(r.Context(), ids, msg)
	log.Printf("[telegram] broadcast sent=%d of %d", len(sent), len(ids))

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sent_to": sent,
		"failed":  len(ids) - len(sent),
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"bot_connected": h.out != nil,
		"timestamp":     h.now().UTC().Format(time.RFC3339),
	})
}
