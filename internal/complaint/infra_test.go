package complaint

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "guest_name", "room_id", "description", "status", "created_at"}

func newRepo(t *testing.T) (Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, sm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepo(db), sm
}

func TestCreate_StartsOpen(t *testing.T) {
	r, sm := newRepo(t)
	at := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

	sm.ExpectQuery(`INSERT INTO complaints`).
		WithArgs("Budi", int64(3), "AC bocor", "open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), at))

	c := &Complaint{GuestName: "Budi", RoomID: 3, Description: "AC bocor"}
	require.NoError(t, r.Create(context.Background(), c))

	assert.Equal(t, int64(9), c.ID)
	assert.Equal(t, StatusOpen, c.Status)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestCreate_UnknownRoom(t *testing.T) {
	r, sm := newRepo(t)

	sm.ExpectQuery(`INSERT INTO complaints`).
		WillReturnError(&pq.Error{Code: "23503"})

	err := r.Create(context.Background(), &Complaint{GuestName: "Budi", RoomID: 99, Description: "x"})

	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	r, sm := newRepo(t)

	sm.ExpectQuery(`UPDATE complaints SET status = \$2 WHERE id = \$1`).
		WithArgs(int64(5), "closed").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := r.UpdateStatus(context.Background(), 5, StatusClosed)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestList_FiltersByStatus(t *testing.T) {
	r, sm := newRepo(t)
	at := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)

	sm.ExpectQuery(`FROM complaints WHERE \$1 = '' OR status = \$1`).
		WithArgs("open", 100).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(2), "Sari", int64(1), "air mati", "open", at).
			AddRow(int64(1), "Budi", int64(3), "AC bocor", "open", at))

	list, err := r.List(context.Background(), StatusOpen, 100)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.NoError(t, sm.ExpectationsWereMet())
}
