package complaint

import (
	"context"
	"log"
	"strings"
)

const listLimit = 100

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) File(ctx context.Context, guestName string, roomID int64, description string) (*Complaint, error) {
	c := &Complaint{
		GuestName:   strings.TrimSpace(guestName),
		RoomID:      roomID,
		Description: strings.TrimSpace(description),
	}
	if c.GuestName == "" || c.RoomID <= 0 || c.Description == "" {
		return nil, ErrMissingFields
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("[complaint] filed id=%d room=%d", c.ID, c.RoomID)
	return c, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Complaint, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, status Status) ([]Complaint, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.List(ctx, status, listLimit)
}

// UpdateStatus is the only way a complaint's status changes.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Complaint, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	c, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	log.Printf("[complaint] id=%d status=%s", id, status)
	return c, nil
}
