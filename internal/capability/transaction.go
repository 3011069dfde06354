package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
)

var bookingStatusLabels = map[booking.Status]string{
	booking.StatusBooked:     "menunggu pembayaran",
	booking.StatusCheckedIn:  "lunas, sudah check-in",
	booking.StatusCheckedOut: "sudah check-out",
	booking.StatusCancelled:  "dibatalkan",
}

// Transaction books a room and sends a payment link, or lists the user's bills.
type Transaction struct {
	bookings Bookings
	users    Users
}

func NewTransaction(b Bookings, u Users) *Transaction {
	return &Transaction{bookings: b, users: u}
}

func (h *Transaction) Handle(ctx context.Context, req router.Request) (string, error) {
	if req.Params.Action == router.ActionBills {
		return h.bills(ctx, req.UserID)
	}
	return h.pay(ctx, req)
}

func (h *Transaction) pay(ctx context.Context, req router.Request) (string, error) {
	roomID := req.Params.RoomID
	if roomID <= 0 {
		return "Kamar nomor berapa yang ingin Anda bayar? Contoh: \"bayar kamar 3\".", nil
	}

	u, err := h.users.ResolveExternal(ctx, req.UserID, users.PlaceholderName(req.UserID))
	if err != nil {
		return "", fmt.Errorf("resolve user: %w", err)
	}

	b, reused, err := h.bookings.BookRoom(ctx, u.ID, roomID, time.Time{}, time.Time{})
	switch {
	case errors.Is(err, booking.ErrRoomNotFound):
		return fmt.Sprintf("Kamar %d tidak ditemukan.", roomID), nil
	case errors.Is(err, booking.ErrRoomUnavailable):
		return fmt.Sprintf("Maaf, kamar %d sedang tidak tersedia.", roomID), nil
	case err != nil:
		return "", err
	}

	link, err := h.bookings.IssuePaymentLink(ctx, b.ID, 0)
	if err != nil {
		return "", err
	}

	intro := fmt.Sprintf("Pemesanan kamar %d berhasil dibuat (booking #%d).", roomID, b.ID)
	if reused {
		intro = fmt.Sprintf("Anda sudah memiliki pemesanan kamar %d yang belum dibayar (booking #%d).", roomID, b.ID)
	}
	return fmt.Sprintf(
		"%s\nPeriode: %s s/d %s.\nSilakan lakukan pembayaran melalui link berikut:\n%s",
		intro, b.CheckIn.Format("02-01-2006"), b.CheckOut.Format("02-01-2006"), link,
	), nil
}

func (h *Transaction) bills(ctx context.Context, externalID string) (string, error) {
	list, err := h.bookings.ListUserBookings(ctx, externalID)
	if err != nil {
		return "", fmt.Errorf("list bookings: %w", err)
	}
	if len(list) == 0 {
		return "Anda belum memiliki pemesanan kamar.", nil
	}

	var sb strings.Builder
	sb.WriteString("Riwayat pemesanan dan pembayaran Anda:\n")
	for _, b := range list {
		fmt.Fprintf(&sb, "- Booking #%d, kamar %d (%s s/d %s): %s\n",
			b.ID, b.RoomID, b.CheckIn.Format("02-01-2006"), b.CheckOut.Format("02-01-2006"), bookingStatusLabels[b.Status])
	}
	return sb.String(), nil
}
