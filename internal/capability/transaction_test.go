package capability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
)

func TestTransaction_PayBooksAndSendsLink(t *testing.T) {
	bs := &mockBookings{}
	us := &mockUsers{}
	in := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	us.On("ResolveExternal", mock.Anything, "42", "42@TELEGRAM").Return(&users.User{ID: 1}, nil).Once()
	bs.On("BookRoom", mock.Anything, int64(1), int64(7), time.Time{}, time.Time{}).
		Return(&booking.Booking{ID: 5, RoomID: 7, CheckIn: in, CheckOut: in.AddDate(0, 0, 30)}, false, nil).Once()
	bs.On("IssuePaymentLink", mock.Anything, int64(5), int64(0)).Return("https://pay.example/5", nil).Once()

	out, err := NewTransaction(bs, us).Handle(context.Background(), router.Request{
		UserID: "42",
		Params: router.Params{Action: router.ActionPay, RoomID: 7},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "booking #5")
	assert.Contains(t, out, "https://pay.example/5")
	assert.Contains(t, out, "18-10-2026")
	bs.AssertExpectations(t)
}

func TestTransaction_PayNeedsRoom(t *testing.T) {
	out, err := NewTransaction(&mockBookings{}, &mockUsers{}).Handle(context.Background(), router.Request{
		UserID: "42",
		Params: router.Params{Action: router.ActionPay},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Kamar nomor berapa")
}

func TestTransaction_RoomTaken(t *testing.T) {
	bs := &mockBookings{}
	us := &mockUsers{}
	us.On("ResolveExternal", mock.Anything, "42", "42@TELEGRAM").Return(&users.User{ID: 1}, nil).Once()
	bs.On("BookRoom", mock.Anything, int64(1), int64(7), time.Time{}, time.Time{}).
		Return(nil, false, booking.ErrRoomUnavailable).Once()

	out, err := NewTransaction(bs, us).Handle(context.Background(), router.Request{
		UserID: "42",
		Params: router.Params{Action: router.ActionPay, RoomID: 7},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "tidak tersedia")
}

func TestTransaction_GatewayFailureSurfaces(t *testing.T) {
	bs := &mockBookings{}
	us := &mockUsers{}
	us.On("ResolveExternal", mock.Anything, "42", "42@TELEGRAM").Return(&users.User{ID: 1}, nil).Once()
	bs.On("BookRoom", mock.Anything, int64(1), int64(7), time.Time{}, time.Time{}).
		Return(&booking.Booking{ID: 5, RoomID: 7}, true, nil).Once()
	bs.On("IssuePaymentLink", mock.Anything, int64(5), int64(0)).Return("", errors.New("gateway down")).Once()

	_, err := NewTransaction(bs, us).Handle(context.Background(), router.Request{
		UserID: "42",
		Params: router.Params{Action: router.ActionPay, RoomID: 7},
	})

	assert.Error(t, err)
}

func TestTransaction_Bills(t *testing.T) {
	bs := &mockBookings{}
	in := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	bs.On("ListUserBookings", mock.Anything, "42").Return([]booking.Booking{
		{ID: 5, RoomID: 7, CheckIn: in, CheckOut: in.AddDate(0, 1, 0), Status: booking.StatusCheckedIn},
		{ID: 2, RoomID: 3, CheckIn: in, CheckOut: in.AddDate(0, 1, 0), Status: booking.StatusBooked},
	}, nil).Once()

	out, err := NewTransaction(bs, nil).Handle(context.Background(), router.Request{
		UserID: "42",
		Params: router.Params{Action: router.ActionBills},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Booking #5, kamar 7")
	assert.Contains(t, out, "lunas")
	assert.Contains(t, out, "menunggu pembayaran")
}
