package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
)

type store struct {
	db    *sql.DB
	users users.Repo
}

func NewStore(db *sql.DB, usersRepo users.Repo) Store {
	return &store{db: db, users: usersRepo}
}

func (s *store) Append(
	ctx context.Context,
	externalID string,
	dir Direction,
	role Role,
	body string,
	sentAt time.Time,
) (*Message, error) {
	if err := validate(dir, role, body); err != nil {
		return nil, err
	}
	if sentAt.IsZero() {
		sentAt = time.Now()
	}

	u, err := s.users.ResolveExternal(ctx, externalID, "")
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	msg := &Message{
		UserID:     u.ID,
		ExternalID: externalID,
		Direction:  dir,
		Role:       role,
		Body:       body,
		SentAt:     sentAt.UTC(),
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO messages (user_id, direction, role, body, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		msg.UserID,
		string(msg.Direction),
		string(msg.Role),
		msg.Body,
		msg.SentAt,
	).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return msg, nil
}

func (s *store) ReadRecent(ctx context.Context, externalID string, limit, offset int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	if offset < 0 {
		offset = 0
	}

	// ties on sent_at are broken by insertion sequence
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.user_id, m.direction, m.role, m.body, m.sent_at
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE u.external_id = $1
		ORDER BY m.sent_at DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`, externalID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("read recent: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, limit)
	for rows.Next() {
		var (
			m         Message
			dir, role string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &dir, &role, &m.Body, &m.SentAt); err != nil {
			return nil, err
		}
		m.ExternalID = externalID
		m.Direction = Direction(dir)
		m.Role = Role(role)
		out = append(out, m)
	}

	return out, rows.Err()
}
