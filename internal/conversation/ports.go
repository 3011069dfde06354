package conversation

import (
	"context"
	"errors"
	"time"
)

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAgent Role = "AGENT"
)

var (
	ErrEmptyBody        = errors.New("message body is empty")
	ErrInvalidDirection = errors.New("invalid message direction")
	ErrInvalidRole      = errors.New("invalid message role")
)

// Message is one immutable entry of a user's conversation log.
type Message struct {
	ID         int64
	UserID     int64
	ExternalID string
	Direction  Direction
	Role       Role
	Body       string
	SentAt     time.Time
}

// Store is the append-only conversation log. There is no update or delete.
type Store interface {
	Append(ctx context.Context, externalID string, dir Direction, role Role, body string, sentAt time.Time) (*Message, error)
	// ReadRecent returns at most limit messages, newest first, skipping offset.
	ReadRecent(ctx context.Context, externalID string, limit, offset int) ([]Message, error)
}

func validate(dir Direction, role Role, body string) error {
	if dir != DirectionIn && dir != DirectionOut {
		return ErrInvalidDirection
	}
	if role != RoleUser && role != RoleAgent {
		return ErrInvalidRole
	}
	if body == "" {
		return ErrEmptyBody
	}
	return nil
}
