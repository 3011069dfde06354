package complaint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const columns = `id, guest_name, room_id, description, status, created_at`

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scan(row rowScanner) (*Complaint, error) {
	var (
		c      Complaint
		status string
	)
	if err := row.Scan(&c.ID, &c.GuestName, &c.RoomID, &c.Description, &status, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Status = Status(status)
	return &c, nil
}

func (r *repo) Create(ctx context.Context, c *Complaint) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO complaints (guest_name, room_id, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.GuestName, c.RoomID, c.Description, string(StatusOpen)).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrRoomNotFound
		}
		return fmt.Errorf("insert complaint: %w", err)
	}
	c.Status = StatusOpen
	return nil
}

func (r *repo) Get(ctx context.Context, id int64) (*Complaint, error) {
	c, err := scan(r.db.QueryRowContext(ctx, `
		SELECT `+columns+` FROM complaints WHERE id = $1
	`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get complaint: %w", err)
	}
	return c, err
}

// List returns newest first. An empty status lists every complaint.
func (r *repo) List(ctx context.Context, status Status, limit int) ([]Complaint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM complaints
		WHERE $1 = '' OR status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repo) UpdateStatus(ctx context.Context, id int64, status Status) (*Complaint, error) {
	c, err := scan(r.db.QueryRowContext(ctx, `
		UPDATE complaints SET status = $2 WHERE id = $1
		RETURNING `+columns+`
	`, id, string(status)))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("update complaint status: %w", err)
	}
	return c, err
}
