package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const userColumns = `id, full_name, email, phone, external_id, created_at`

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u                 User
		email, phone, ext sql.NullString
	)
	if err := row.Scan(&u.ID, &u.FullName, &email, &phone, &ext, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if email.Valid {
		u.Email = &email.String
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if ext.Valid {
		u.ExternalID = &ext.String
	}
	return &u, nil
}

func (r *repo) ResolveExternal(ctx context.Context, externalID, fullName string) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrEmptyExternalID
	}

	u, err := r.GetByExternalID(ctx, externalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if strings.TrimSpace(fullName) == "" {
		fullName = PlaceholderName(externalID)
	}

	// a concurrent first write wins; we read back whichever row exists
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO users (full_name, external_id)
		VALUES ($1, $2)
		ON CONFLICT (external_id) DO NOTHING
	`, strings.TrimSpace(fullName), externalID); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return r.GetByExternalID(ctx, externalID)
}

func (r *repo) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE external_id = $1
	`, externalID)
	u, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return u, err
}

func (r *repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

func (r *repo) LinkExternalID(ctx context.Context, email, externalID string) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrEmptyExternalID
	}
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	owner, err := scanUser(tx.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
		FOR UPDATE
	`, email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lock email user: %w", err)
	}
	if owner.ExternalID != nil {
		if *owner.ExternalID == externalID {
			return owner, nil
		}
		return nil, ErrAlreadyLinked
	}

	other, err := scanUser(tx.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE external_id = $1
		FOR UPDATE
	`, externalID))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lock external user: %w", err)
	}

	if other != nil {
		if other.Email != nil {
			return nil, ErrExternalIDClaimed
		}
		if err := foldPlaceholder(ctx, tx, other.ID, owner.ID); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET external_id = $2 WHERE id = $1
	`, owner.ID, externalID); err != nil {
		return nil, fmt.Errorf("link external id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	owner.ExternalID = &externalID
	return owner, nil
}

// foldPlaceholder moves history and bookings of the chat placeholder to the real user.
// This re-parenting is the only write to messages besides Append: body,
// direction and sent_at stay as they were, so per-user order is unchanged.
func foldPlaceholder(ctx context.Context, tx *sql.Tx, fromID, toID int64) error {
	if _, err := tx.ExecContext(ctx, `UPDATE messages SET user_id = $2 WHERE user_id = $1`, fromID, toID); err != nil {
		return fmt.Errorf("move messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET user_id = $2 WHERE user_id = $1`, fromID, toID); err != nil {
		return fmt.Errorf("move bookings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, fromID); err != nil {
		return fmt.Errorf("delete placeholder: %w", err)
	}
	return nil
}
