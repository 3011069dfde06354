package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
)

const bookingColumns = `b.id, b.user_id, b.room_id, b.check_in, b.check_out, b.status, b.created_at, b.updated_at`

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner, extra ...any) (*Booking, error) {
	var (
		b      Booking
		status string
	)
	dest := append([]any{
		&b.ID, &b.UserID, &b.RoomID, &b.CheckIn, &b.CheckOut, &status, &b.CreatedAt, &b.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	b.Status = Status(status)
	return &b, nil
}

func activeStatuses() any {
	out := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		out[i] = string(s)
	}
	return pq.Array(out)
}

func (r *repo) CheckInPaid(ctx context.Context, externalID string, roomID int64) (*CheckIn, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// the payment reference carries no booking id, so the owner + room pair
	// selects the newest active booking
	b, err := scanBooking(tx.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE b.room_id = $1 AND u.external_id = $2 AND b.status = ANY($3)
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT 1
		FOR UPDATE OF b
	`, roomID, externalID, activeStatuses()))
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}

	var candidates int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE b.room_id = $1 AND u.external_id = $2 AND b.status = ANY($3)
	`, roomID, externalID, activeStatuses()).Scan(&candidates); err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}
	if candidates > 1 {
		log.Printf("[booking] WARN %d active bookings for user=%s room=%d, picked newest id=%d", candidates, externalID, roomID, b.ID)
	}

	res := &CheckIn{BookingID: b.ID, UserID: b.UserID, RoomID: b.RoomID}
	if b.Status == StatusCheckedIn {
		return res, nil
	}

	var available bool
	if err := tx.QueryRowContext(ctx, `
		SELECT is_available FROM rooms WHERE id = $1 FOR UPDATE
	`, roomID).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("lock room: %w", err)
	}
	res.RoomWasFree = available

	if _, err := tx.ExecContext(ctx, `
		UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
	`, b.ID, string(StatusCheckedIn)); err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE rooms SET is_available = FALSE WHERE id = $1
	`, roomID); err != nil {
		return nil, fmt.Errorf("update room availability: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	res.Applied = true
	return res, nil
}

func (r *repo) Create(ctx context.Context, b *Booking) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var available bool
	if err := tx.QueryRowContext(ctx, `
		SELECT is_available FROM rooms WHERE id = $1 FOR UPDATE
	`, b.RoomID).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("lock room: %w", err)
	}

	existing, err := scanBooking(tx.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.user_id = $1 AND b.room_id = $2 AND b.status = $3
		ORDER BY b.created_at DESC
		LIMIT 1
	`, b.UserID, b.RoomID, string(StatusBooked)))
	switch {
	case err == nil:
		*b = *existing
		return true, tx.Commit()
	case !errors.Is(err, ErrBookingNotFound):
		return false, fmt.Errorf("find unpaid booking: %w", err)
	}

	if !available {
		return false, ErrRoomUnavailable
	}

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO bookings (user_id, room_id, check_in, check_out, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, b.UserID, b.RoomID, b.CheckIn, b.CheckOut, string(StatusBooked)).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return false, fmt.Errorf("insert booking: %w", err)
	}
	b.Status = StatusBooked

	return false, tx.Commit()
}

func (r *repo) GetDetails(ctx context.Context, bookingID int64) (*Details, error) {
	var (
		d          Details
		externalID sql.NullString
	)
	b, err := scanBooking(r.db.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`, u.external_id, r.price
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN rooms r ON r.id = b.room_id
		WHERE b.id = $1
	`, bookingID), &externalID, &d.RoomPrice)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	d.Booking = *b
	d.ExternalID = externalID.String
	return &d, nil
}

func (r *repo) Transition(ctx context.Context, bookingID int64, to Status) (*Booking, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	b, err := scanBooking(tx.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		WHERE b.id = $1
		FOR UPDATE
	`, bookingID))
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("lock booking: %w", err)
	}

	if !CanTransition(b.Status, to) {
		return nil, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}

	var lockedRoom int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM rooms WHERE id = $1 FOR UPDATE
	`, b.RoomID).Scan(&lockedRoom); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, ErrRoomNotFound
		}
		return nil, false, fmt.Errorf("lock room: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
	`, b.ID, string(to)); err != nil {
		return nil, false, fmt.Errorf("update booking status: %w", err)
	}

	released := false
	if b.Status == StatusCheckedIn {
		var occupied bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM bookings
				WHERE room_id = $1 AND status = $2 AND id <> $3
			)
		`, b.RoomID, string(StatusCheckedIn), b.ID).Scan(&occupied); err != nil {
			return nil, false, fmt.Errorf("check room occupancy: %w", err)
		}
		if !occupied {
			if _, err := tx.ExecContext(ctx, `
				UPDATE rooms SET is_available = TRUE WHERE id = $1
			`, b.RoomID); err != nil {
				return nil, false, fmt.Errorf("release room: %w", err)
			}
			released = true
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	log.Printf("[booking] transition id=%d %s -> %s released=%v", b.ID, b.Status, to, released)
	b.Status = to
	return b, released, nil
}

func (r *repo) ListByUserExternal(ctx context.Context, externalID string, limit int) ([]Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		WHERE u.external_id = $1
		ORDER BY b.created_at DESC
		LIMIT $2
	`, externalID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) ListRooms(ctx context.Context, onlyAvailable bool) ([]Room, error) {
	query := `SELECT id, is_available, room_type, price FROM rooms`
	if onlyAvailable {
		query += ` WHERE is_available = TRUE`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.Available, &room.Type, &room.Price); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (r *repo) GetRoom(ctx context.Context, roomID int64) (*Room, error) {
	var room Room
	err := r.db.QueryRowContext(ctx, `
		SELECT id, is_available, room_type, price FROM rooms WHERE id = $1
	`, roomID).Scan(&room.ID, &room.Available, &room.Type, &room.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return &room, nil
}

func (r *repo) SetRoomAvailability(ctx context.Context, roomID int64, available bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET is_available = $2 WHERE id = $1
	`, roomID, available)
	if err != nil {
		return fmt.Errorf("set room availability: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
