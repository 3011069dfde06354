package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// successStatuses are the gateway codes that mean the money has settled.
var successStatuses = map[string]bool{
	"settlement": true,
	"capture":    true,
}

// knownStatuses are acknowledged without any state change.
var knownStatuses = map[string]bool{
	"pending":        true,
	"authorize":      true,
	"deny":           true,
	"cancel":         true,
	"expire":         true,
	"failure":        true,
	"refund":         true,
	"partial_refund": true,
	"chargeback":     true,
}

// Service owns the booking state machine: payment reconciliation,
// administrative transitions and the best-effort fan-out after each commit.
type Service struct {
	repo          Repo
	gateway       Gateway
	notifier      Notifier
	mirror        Mirror
	fanoutTimeout time.Duration
	now           func() time.Time
}

// NewService wires the reconciler. notifier and mirror may be nil when the
// corresponding channel is not configured.
func NewService(repo Repo, gateway Gateway, notifier Notifier, mirror Mirror, fanoutTimeout time.Duration) *Service {
	if fanoutTimeout <= 0 {
		fanoutTimeout = 10 * time.Second
	}
	return &Service{
		repo:          repo,
		gateway:       gateway,
		notifier:      notifier,
		mirror:        mirror,
		fanoutTimeout: fanoutTimeout,
		now:           time.Now,
	}
}

// Reconcile applies a settlement notification. Parse and matching failures are
// client errors; persistence failures are returned so the gateway redelivers.
// Fan-out failures are only logged.
func (s *Service) Reconcile(ctx context.Context, ev SettlementEvent) (Outcome, error) {
	corr, err := ParseCorrelationID(strings.TrimSpace(ev.OrderID))
	if err != nil {
		return "", err
	}

	status := strings.ToLower(strings.TrimSpace(ev.TransactionStatus))
	if !successStatuses[status] {
		if !knownStatuses[status] {
			return "", fmt.Errorf("%w: %q", ErrUnknownStatus, ev.TransactionStatus)
		}
		log.Printf("[reconciler] ignored order=%s status=%s", ev.OrderID, status)
		return OutcomeIgnored, nil
	}

	res, err := s.repo.CheckInPaid(ctx, corr.UserExternalID, corr.RoomID)
	if err != nil {
		return "", fmt.Errorf("check in order %s: %w", ev.OrderID, err)
	}

	if !res.Applied {
		log.Printf("[reconciler] duplicate settlement order=%s booking=%d already checked_in", ev.OrderID, res.BookingID)
		return OutcomeAlreadyApplied, nil
	}

	if !res.RoomWasFree {
		log.Printf("[reconciler] WARN room=%d was already occupied when booking=%d was paid", res.RoomID, res.BookingID)
	}
	log.Printf("[reconciler] checked in booking=%d room=%d user=%s", res.BookingID, res.RoomID, corr.UserExternalID)

	s.fanOut(ctx, corr.UserExternalID, paymentSuccessText(corr.RoomID), []RoomAvailability{
		{RoomID: res.RoomID, Available: false},
	})

	return OutcomeApplied, nil
}

// fanOut runs after the commit; each side effect fails on its own.
func (s *Service) fanOut(ctx context.Context, externalID, text string, rooms []RoomAvailability) {
	base := context.WithoutCancel(ctx)

	if externalID != "" && text != "" {
		if s.notifier == nil {
			log.Printf("[reconciler] notification skipped (channel disabled) user=%s", externalID)
		} else {
			nctx, cancel := context.WithTimeout(base, s.fanoutTimeout)
			if err := s.notifier.Notify(nctx, externalID, text); err != nil {
				log.Printf("[reconciler] notify user=%s failed: %v", externalID, err)
			}
			cancel()
		}
	}

	if len(rooms) > 0 {
		if s.mirror == nil {
			log.Printf("[reconciler] sheet update skipped (mirror disabled)")
			return
		}
		mctx, cancel := context.WithTimeout(base, s.fanoutTimeout)
		defer cancel()
		if err := s.mirror.PushAvailability(mctx, rooms); err != nil {
			log.Printf("[reconciler] sheet update failed: %v", err)
		}
	}
}

func paymentSuccessText(roomID int64) string {
	return fmt.Sprintf(
		"*Pembayaran berhasil!*\n\nTerima kasih, pembayaran untuk kamar %d sudah kami terima. Status pemesanan Anda sekarang: check-in.",
		roomID,
	)
}

// BookRoom creates a booking for an available room, or returns the user's
// existing unpaid booking for that room.
func (s *Service) BookRoom(ctx context.Context, userID, roomID int64, checkIn, checkOut time.Time) (*Booking, bool, error) {
	if checkIn.IsZero() {
		y, m, d := s.now().Date()
		checkIn = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	if checkOut.IsZero() {
		checkOut = checkIn.Add(DefaultStay)
	}
	if checkOut.Before(checkIn) {
		return nil, false, ErrInvalidDates
	}

	b := &Booking{
		UserID:   userID,
		RoomID:   roomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Status:   StatusBooked,
	}
	reused, err := s.repo.Create(ctx, b)
	if err != nil {
		return nil, false, fmt.Errorf("create booking: %w", err)
	}

	log.Printf("[booking] booked id=%d user=%d room=%d reused=%v", b.ID, userID, roomID, reused)
	return b, reused, nil
}

// IssuePaymentLink asks the gateway for a link carrying a fresh correlation id.
// A non-positive amount falls back to the room price.
func (s *Service) IssuePaymentLink(ctx context.Context, bookingID, amount int64) (string, error) {
	d, err := s.repo.GetDetails(ctx, bookingID)
	if err != nil {
		return "", fmt.Errorf("get booking %d: %w", bookingID, err)
	}
	if d.Status != StatusBooked {
		if d.Status == StatusCheckedIn || d.Status == StatusCheckedOut {
			return "", ErrAlreadyPaid
		}
		return "", fmt.Errorf("%w: booking is %s", ErrInvalidTransition, d.Status)
	}
	if d.ExternalID == "" {
		return "", ErrNoChannelUser
	}

	if amount <= 0 {
		amount = d.RoomPrice
	}
	if amount <= 0 {
		return "", ErrInvalidAmount
	}

	orderID, err := NewCorrelationID(d.ExternalID, d.RoomID)
	if err != nil {
		return "", err
	}

	url, err := s.gateway.IssueLink(ctx, PaymentOrder{
		OrderID:  orderID,
		Amount:   amount,
		ItemID:   strconv.FormatInt(d.ID, 10),
		ItemName: fmt.Sprintf("Kamar %d", d.RoomID),
	})
	if err != nil {
		return "", fmt.Errorf("issue payment link: %w", err)
	}

	log.Printf("[booking] payment link booking=%d order=%s amount=%d", d.ID, orderID, amount)
	return url, nil
}

func (s *Service) CheckOut(ctx context.Context, bookingID int64) (*Booking, error) {
	return s.transition(ctx, bookingID, StatusCheckedOut)
}

func (s *Service) Cancel(ctx context.Context, bookingID int64) (*Booking, error) {
	return s.transition(ctx, bookingID, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, bookingID int64, to Status) (*Booking, error) {
	b, released, err := s.repo.Transition(ctx, bookingID, to)
	if err != nil {
		return nil, err
	}
	if released {
		s.fanOut(ctx, "", "", []RoomAvailability{{RoomID: b.RoomID, Available: true}})
	}
	return b, nil
}

func (s *Service) ListRooms(ctx context.Context, onlyAvailable bool) ([]Room, error) {
	return s.repo.ListRooms(ctx, onlyAvailable)
}

func (s *Service) GetRoom(ctx context.Context, roomID int64) (*Room, error) {
	return s.repo.GetRoom(ctx, roomID)
}

func (s *Service) ListUserBookings(ctx context.Context, externalID string) ([]Booking, error) {
	return s.repo.ListByUserExternal(ctx, externalID, 10)
}

// SetRoomAvailability is the administrative override.
func (s *Service) SetRoomAvailability(ctx context.Context, roomID int64, available bool) error {
	if err := s.repo.SetRoomAvailability(ctx, roomID, available); err != nil {
		return err
	}
	log.Printf("[booking] admin room=%d available=%v", roomID, available)
	s.fanOut(ctx, "", "", []RoomAvailability{{RoomID: roomID, Available: available}})
	return nil
}

// SyncAvailability pushes every room to the mirror. Unlike the fan-out the
// error is returned, since the caller asked for exactly this.
func (s *Service) SyncAvailability(ctx context.Context) (int, error) {
	if s.mirror == nil {
		return 0, ErrMirrorDisabled
	}
	rooms, err := s.repo.ListRooms(ctx, false)
	if err != nil {
		return 0, err
	}
	out := make([]RoomAvailability, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomAvailability{RoomID: r.ID, Available: r.Available})
	}
	if err := s.mirror.PushAvailability(ctx, out); err != nil {
		return 0, fmt.Errorf("push availability: %w", err)
	}
	return len(out), nil
}

// IsClientError reports whether err is caused by the caller's input.
func IsClientError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrInvalidDates) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidTransition)
}
