// Package capability holds the handlers the router dispatches to.
package capability

import (
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
	"github.com/Vovarama1992/kos-ai-bridge/internal/complaint"
	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
)

type RoomCatalog interface {
	ListRooms(ctx context.Context, onlyAvailable bool) ([]booking.Room, error)
	GetRoom(ctx context.Context, roomID int64) (*booking.Room, error)
}

type Bookings interface {
	BookRoom(ctx context.Context, userID, roomID int64, checkIn, checkOut time.Time) (*booking.Booking, bool, error)
	IssuePaymentLink(ctx context.Context, bookingID, amount int64) (string, error)
	ListUserBookings(ctx context.Context, externalID string) ([]booking.Booking, error)
}

type Complaints interface {
	File(ctx context.Context, guestName string, roomID int64, description string) (*complaint.Complaint, error)
	Get(ctx context.Context, id int64) (*complaint.Complaint, error)
}

type Users interface {
	ResolveExternal(ctx context.Context, externalID, fullName string) (*users.User, error)
}

var idr = message.NewPrinter(language.Indonesian)

// rupiah renders 1500000 as "Rp 1.500.000".
func rupiah(amount int64) string {
	return idr.Sprintf("Rp %d", amount)
}
