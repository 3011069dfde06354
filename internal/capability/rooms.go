package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
)

// Rooms answers availability, type and price questions from live room data.
type Rooms struct {
	catalog RoomCatalog
}

func NewRooms(catalog RoomCatalog) *Rooms {
	return &Rooms{catalog: catalog}
}

func (h *Rooms) Handle(ctx context.Context, req router.Request) (string, error) {
	if req.Params.Action == router.ActionRoomInfo && req.Params.RoomID > 0 {
		return h.roomInfo(ctx, req.Params.RoomID)
	}
	return h.listAvailable(ctx)
}

func (h *Rooms) listAvailable(ctx context.Context) (string, error) {
	rooms, err := h.catalog.ListRooms(ctx, true)
	if err != nil {
		return "", fmt.Errorf("list rooms: %w", err)
	}
	if len(rooms) == 0 {
		return "Maaf, saat ini tidak ada kamar yang tersedia.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Kamar yang tersedia saat ini (%d):\n", len(rooms))
	for _, r := range rooms {
		fmt.Fprintf(&b, "- Kamar %d (%s): %s per bulan\n", r.ID, r.Type, rupiah(r.Price))
	}
	b.WriteString("\nKetik \"bayar kamar <nomor>\" untuk memesan.")
	return b.String(), nil
}

func (h *Rooms) roomInfo(ctx context.Context, roomID int64) (string, error) {
	r, err := h.catalog.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, booking.ErrRoomNotFound) {
			return fmt.Sprintf("Kamar %d tidak ditemukan.", roomID), nil
		}
		return "", fmt.Errorf("get room %d: %w", roomID, err)
	}

	state := "sudah terisi"
	if r.Available {
		state = "tersedia"
	}
	return fmt.Sprintf("Kamar %d (%s) %s. Harga: %s per bulan.", r.ID, r.Type, state, rupiah(r.Price)), nil
}
