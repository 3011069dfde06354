package capability

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Vovarama1992/kos-ai-bridge/internal/ai"
	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
	"github.com/Vovarama1992/kos-ai-bridge/internal/complaint"
	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
)

type stubAI struct {
	reply string
	err   error
	calls int
	last  []ai.Message
}

func (s *stubAI) GetReply(_ context.Context, _ string, history []ai.Message) (string, error) {
	s.calls++
	s.last = history
	return s.reply, s.err
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) ListRooms(ctx context.Context, onlyAvailable bool) ([]booking.Room, error) {
	args := m.Called(ctx, onlyAvailable)
	out, _ := args.Get(0).([]booking.Room)
	return out, args.Error(1)
}

func (m *mockCatalog) GetRoom(ctx context.Context, roomID int64) (*booking.Room, error) {
	args := m.Called(ctx, roomID)
	r, _ := args.Get(0).(*booking.Room)
	return r, args.Error(1)
}

type mockBookings struct {
	mock.Mock
}

func (m *mockBookings) BookRoom(ctx context.Context, userID, roomID int64, checkIn, checkOut time.Time) (*booking.Booking, bool, error) {
	args := m.Called(ctx, userID, roomID, checkIn, checkOut)
	b, _ := args.Get(0).(*booking.Booking)
	return b, args.Bool(1), args.Error(2)
}

func (m *mockBookings) IssuePaymentLink(ctx context.Context, bookingID, amount int64) (string, error) {
	args := m.Called(ctx, bookingID, amount)
	return args.String(0), args.Error(1)
}

func (m *mockBookings) ListUserBookings(ctx context.Context, externalID string) ([]booking.Booking, error) {
	args := m.Called(ctx, externalID)
	out, _ := args.Get(0).([]booking.Booking)
	return out, args.Error(1)
}

type mockComplaints struct {
	mock.Mock
}

func (m *mockComplaints) File(ctx context.Context, guestName string, roomID int64, description string) (*complaint.Complaint, error) {
	args := m.Called(ctx, guestName, roomID, description)
	c, _ := args.Get(0).(*complaint.Complaint)
	return c, args.Error(1)
}

func (m *mockComplaints) Get(ctx context.Context, id int64) (*complaint.Complaint, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*complaint.Complaint)
	return c, args.Error(1)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) ResolveExternal(ctx context.Context, externalID, fullName string) (*users.User, error) {
	args := m.Called(ctx, externalID, fullName)
	u, _ := args.Get(0).(*users.User)
	return u, args.Error(1)
}
