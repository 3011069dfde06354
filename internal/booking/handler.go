package booking

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/kos-ai-bridge/internal/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// PaymentCallback receives settlement webhooks from the payment gateway.
// 200 means the event is settled for good; 5xx asks for a redelivery.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OrderID                string `json:"orderId"`
		OrderIDSnake           string `json:"order_id"`
		TransactionStatus      string `json:"transactionStatus"`
		TransactionStatusSnake string `json:"transaction_status"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ev := SettlementEvent{
		OrderID:           firstNonEmpty(payload.OrderID, payload.OrderIDSnake),
		TransactionStatus: firstNonEmpty(payload.TransactionStatus, payload.TransactionStatusSnake),
	}
	if ev.OrderID == "" || ev.TransactionStatus == "" {
		http.Error(w, "missing orderId or transactionStatus", http.StatusBadRequest)
		return
	}

	outcome, err := h.svc.Reconcile(r.Context(), ev)
	if err != nil {
		switch {
		case IsClientError(err):
			log.Printf("[reconciler] rejected order=%s: %v", ev.OrderID, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrRoomNotFound):
			log.Printf("[reconciler] no booking for order=%s", ev.OrderID)
			http.Error(w, "booking not found", http.StatusNotFound)
		default:
			log.Printf("[reconciler] order=%s failed: %v", ev.OrderID, err)
			http.Error(w, "processing error", http.StatusInternalServerError)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"outcome": string(outcome),
	})
}

func (h *Handler) GeneratePaymentLink(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BookingID      int64 `json:"bookingId"`
		BookingIDSnake int64 `json:"booking_id"`
		Price          int64 `json:"price"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	bookingID := payload.BookingID
	if bookingID == 0 {
		bookingID = payload.BookingIDSnake
	}
	if bookingID <= 0 {
		http.Error(w, "missing bookingId", http.StatusBadRequest)
		return
	}

	link, err := h.svc.IssuePaymentLink(r.Context(), bookingID, payload.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"paymentLink": link})
}

// UpdateRoomAvailability pushes every room to the spreadsheet mirror.
func (h *Handler) UpdateRoomAvailability(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.SyncAvailability(r.Context())
	if err != nil {
		if errors.Is(err, ErrMirrorDisabled) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		log.Printf("[booking] sync availability failed: %v", err)
		http.Error(w, "sync failed", http.StatusBadGateway)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "rooms": n})
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	onlyAvailable, _ := strconv.ParseBool(r.URL.Query().Get("available"))
	rooms, err := h.svc.ListRooms(r.Context(), onlyAvailable)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rooms == nil {
		rooms = []Room{}
	}
	httpx.WriteJSON(w, http.StatusOK, rooms)
}

func (h *Handler) SetRoomAvailability(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Available *bool `json:"available"`
	}
	if err := httpx.DecodeJSON(r, &payload); err != nil || payload.Available == nil {
		http.Error(w, "body must be {\"available\": bool}", http.StatusBadRequest)
		return
	}

	if err := h.svc.SetRoomAvailability(r.Context(), roomID, *payload.Available); err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, RoomAvailability{RoomID: roomID, Available: *payload.Available})
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CheckOut)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64) (*Booking, error)) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := apply(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrRoomNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrRoomUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case IsClientError(err), errors.Is(err, ErrNoChannelUser):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("[booking] request failed: %v", err)
		http.Error(w, "processing error", http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
