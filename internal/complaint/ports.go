package complaint

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("complaint not found")
	ErrRoomNotFound  = errors.New("room not found")
	ErrInvalidStatus = errors.New("invalid complaint status")
	ErrMissingFields = errors.New("guest name, room and description are required")
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusInProgress || s == StatusClosed
}

type Complaint struct {
	ID          int64     `json:"id"`
	GuestName   string    `json:"guest_name"`
	RoomID      int64     `json:"room_id"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Repo interface {
	Create(ctx context.Context, c *Complaint) error
	Get(ctx context.Context, id int64) (*Complaint, error)
	List(ctx context.Context, status Status, limit int) ([]Complaint, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (*Complaint, error)
}
