package booking

import "time"

type Status string

const (
	StatusBooked     Status = "booked"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
)

// ActiveStatuses hold a room.
var ActiveStatuses = []Status{StatusBooked, StatusCheckedIn}

var transitions = map[Status][]Status{
	StatusBooked:    {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut, StatusCancelled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusBooked, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	RoomID    int64     `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Room struct {
	ID        int64  `json:"id"`
	Available bool   `json:"available"`
	Type      string `json:"type"`
	Price     int64  `json:"price"`
}

// RoomAvailability is what the spreadsheet mirror needs to know about a room.
type RoomAvailability struct {
	RoomID    int64
	Available bool
}

// Details is a booking joined with its owner's channel id and room price.
type Details struct {
	Booking
	ExternalID string
	RoomPrice  int64
}
