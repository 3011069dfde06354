package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) ResolveExternal(ctx context.Context, externalID, fullName string) (*users.User, error) {
	args := m.Called(ctx, externalID, fullName)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetByExternalID(ctx context.Context, externalID string) (*users.User, error) {
	args := m.Called(ctx, externalID)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}

func (m *mockUsers) LinkExternalID(ctx context.Context, email, externalID string) (*users.User, error) {
	args := m.Called(ctx, email, externalID)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}

func newStore(t *testing.T) (Store, sqlmock.Sqlmock, *mockUsers) {
	t.Helper()
	db, sm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	u := &mockUsers{}
	t.Cleanup(func() { u.AssertExpectations(t) })
	return NewStore(db, u), sm, u
}

func TestAppend_ResolvesUserBeforeInsert(t *testing.T) {
	s, sm, u := newStore(t)
	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	u.On("ResolveExternal", mock.Anything, "42", "").Return(&users.User{ID: 5}, nil).Once()
	sm.ExpectQuery("INSERT INTO messages").
		WithArgs(int64(5), "IN", "USER", "kamar kosong?", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	msg, err := s.Append(context.Background(), "42", DirectionIn, RoleUser, "kamar kosong?", at)

	require.NoError(t, err)
	assert.Equal(t, int64(11), msg.ID)
	assert.Equal(t, int64(5), msg.UserID)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestAppend_RejectsInvalidInput(t *testing.T) {
	s, _, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, "42", DirectionIn, RoleUser, "", time.Now())
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = s.Append(ctx, "42", Direction("SIDEWAYS"), RoleUser, "x", time.Now())
	assert.ErrorIs(t, err, ErrInvalidDirection)

	_, err = s.Append(ctx, "42", DirectionOut, Role("BOT"), "x", time.Now())
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestAppend_UserResolveFailure(t *testing.T) {
	s, _, u := newStore(t)

	u.On("ResolveExternal", mock.Anything, "42", "").Return(nil, users.ErrEmptyExternalID).Once()

	_, err := s.Append(context.Background(), "42", DirectionIn, RoleUser, "halo", time.Now())
	assert.ErrorIs(t, err, users.ErrEmptyExternalID)
}

func TestReadRecent_NewestFirst(t *testing.T) {
	s, sm, _ := newStore(t)
	t1 := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Second)

	sm.ExpectQuery("ORDER BY m.sent_at DESC, m.id DESC LIMIT").
		WithArgs("42", 5, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "direction", "role", "body", "sent_at"}).
			AddRow(int64(2), int64(5), "OUT", "AGENT", "m2", t2).
			AddRow(int64(1), int64(5), "IN", "USER", "m1", t1))

	msgs, err := s.ReadRecent(context.Background(), "42", 5, 0)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m2", msgs[0].Body)
	assert.Equal(t, DirectionOut, msgs[0].Direction)
	assert.Equal(t, RoleAgent, msgs[0].Role)
	assert.Equal(t, "m1", msgs[1].Body)
	assert.Equal(t, "42", msgs[1].ExternalID)
	assert.NoError(t, sm.ExpectationsWereMet())
}

func TestReadRecent_ZeroLimit(t *testing.T) {
	s, _, _ := newStore(t)

	msgs, err := s.ReadRecent(context.Background(), "42", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
