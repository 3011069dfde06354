package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrEmptyExternalID   = errors.New("external id is empty")
	ErrAlreadyLinked     = errors.New("user is already linked to another external id")
	ErrExternalIDClaimed = errors.New("external id belongs to a user with an email")
)

// User is keyed by an external channel id (Telegram) or by email.
type User struct {
	ID         int64
	FullName   string
	Email      *string
	Phone      *string
	ExternalID *string
	CreatedAt  time.Time
}

type Repo interface {
	// ResolveExternal returns the user owning externalID, creating it on first sight.
	ResolveExternal(ctx context.Context, externalID, fullName string) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// LinkExternalID attaches externalID to the email-keyed user, folding any
	// placeholder record created by the chat channel into it.
	LinkExternalID(ctx context.Context, email, externalID string) (*User, error)
}

// PlaceholderName is used for users first seen on a chat channel.
func PlaceholderName(externalID string) string {
	return externalID + "@TELEGRAM"
}
