package booking

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomUnavailable   = errors.New("room is not available")
	ErrInvalidTransition = errors.New("booking status transition not allowed")
	ErrUnknownStatus     = errors.New("unknown transaction status")
	ErrInvalidDates      = errors.New("check-out must not be before check-in")
	ErrInvalidAmount     = errors.New("payment amount must be positive")
	ErrAlreadyPaid       = errors.New("booking is already paid")
	ErrNoChannelUser     = errors.New("booking owner has no chat channel id")
	ErrMirrorDisabled    = errors.New("sheet mirror is not configured")
)

// SettlementEvent is the gateway webhook payload that matters to us.
type SettlementEvent struct {
	OrderID           string
	TransactionStatus string
}

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeAlreadyApplied Outcome = "already_applied"
	OutcomeIgnored        Outcome = "ignored"
)

// CheckIn is the result of the atomic settlement step.
type CheckIn struct {
	BookingID   int64
	UserID      int64
	RoomID      int64
	Applied     bool
	RoomWasFree bool
}

// PaymentOrder is handed to the gateway to obtain a payment link.
type PaymentOrder struct {
	OrderID  string
	Amount   int64
	ItemID   string
	ItemName string
}

// Repo persists bookings and rooms.
type Repo interface {
	// CheckInPaid moves the newest active booking of (user, room) to checked_in
	// and marks the room unavailable in one transaction.
	CheckInPaid(ctx context.Context, externalID string, roomID int64) (*CheckIn, error)
	// Create inserts a booked booking, or returns the user's existing unpaid
	// booking for the same room with reused=true.
	Create(ctx context.Context, b *Booking) (reused bool, err error)
	GetDetails(ctx context.Context, bookingID int64) (*Details, error)
	// Transition applies an administrative state change. roomReleased is true
	// when the room became available again.
	Transition(ctx context.Context, bookingID int64, to Status) (b *Booking, roomReleased bool, err error)
	ListByUserExternal(ctx context.Context, externalID string, limit int) ([]Booking, error)

	ListRooms(ctx context.Context, onlyAvailable bool) ([]Room, error)
	GetRoom(ctx context.Context, roomID int64) (*Room, error)
	SetRoomAvailability(ctx context.Context, roomID int64, available bool) error
}

type Gateway interface {
	IssueLink(ctx context.Context, order PaymentOrder) (string, error)
}

// Notifier is best-effort; its failures never affect booking state.
type Notifier interface {
	Notify(ctx context.Context, externalID, text string) error
}

// Mirror is best-effort; its failures never affect booking state.
type Mirror interface {
	PushAvailability(ctx context.Context, rooms []RoomAvailability) error
}

// DefaultStay is the length of a booking created from chat (monthly rent).
const DefaultStay = 30 * 24 * time.Hour
