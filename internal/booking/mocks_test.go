package booking

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CheckInPaid(ctx context.Context, externalID string, roomID int64) (*CheckIn, error) {
	args := m.Called(ctx, externalID, roomID)
	res, _ := args.Get(0).(*CheckIn)
	return res, args.Error(1)
}

func (m *mockRepo) Create(ctx context.Context, b *Booking) (bool, error) {
	args := m.Called(ctx, b)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) GetDetails(ctx context.Context, bookingID int64) (*Details, error) {
	args := m.Called(ctx, bookingID)
	d, _ := args.Get(0).(*Details)
	return d, args.Error(1)
}

func (m *mockRepo) Transition(ctx context.Context, bookingID int64, to Status) (*Booking, bool, error) {
	args := m.Called(ctx, bookingID, to)
	b, _ := args.Get(0).(*Booking)
	return b, args.Bool(1), args.Error(2)
}

func (m *mockRepo) ListByUserExternal(ctx context.Context, externalID string, limit int) ([]Booking, error) {
	args := m.Called(ctx, externalID, limit)
	out, _ := args.Get(0).([]Booking)
	return out, args.Error(1)
}

func (m *mockRepo) ListRooms(ctx context.Context, onlyAvailable bool) ([]Room, error) {
	args := m.Called(ctx, onlyAvailable)
	out, _ := args.Get(0).([]Room)
	return out, args.Error(1)
}

func (m *mockRepo) GetRoom(ctx context.Context, roomID int64) (*Room, error) {
	args := m.Called(ctx, roomID)
	r, _ := args.Get(0).(*Room)
	return r, args.Error(1)
}

func (m *mockRepo) SetRoomAvailability(ctx context.Context, roomID int64, available bool) error {
	return m.Called(ctx, roomID, available).Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) IssueLink(ctx context.Context, order PaymentOrder) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, externalID, text string) error {
	return m.Called(ctx, externalID, text).Error(0)
}

type mockMirror struct {
	mock.Mock
}

func (m *mockMirror) PushAvailability(ctx context.Context, rooms []RoomAvailability) error {
	return m.Called(ctx, rooms).Error(0)
}
