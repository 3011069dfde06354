package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Vovarama1992/kos-ai-bridge/internal/ai"
	"github.com/Vovarama1992/kos-ai-bridge/internal/conversation"
)

// User-facing fallbacks. Never leak technical detail to the chat.
const (
	ApologyText = "Maaf, terjadi kesalahan saat memproses permintaan Anda. Silakan coba lagi nanti."
	TimeoutText = "Maaf, permintaan Anda membutuhkan waktu terlalu lama. Silakan coba lagi sebentar lagi."
	BusyText    = "Mohon tunggu, pesan Anda sebelumnya masih kami proses."
	BudgetText  = "Maaf, saya belum bisa menyelesaikan permintaan ini. Coba ulangi dengan pertanyaan yang lebih spesifik."
)

const persistTimeout = 5 * time.Second

type Options struct {
	HistoryLimit int
	Budget       int
	TurnTimeout  time.Duration
	// LockWait bounds waiting behind the user's previous turn; it does not
	// eat into TurnTimeout.
	LockWait time.Duration
}

type Service struct {
	store      conversation.Store
	classifier Classifier
	handlers   map[Capability]CapabilityHandler
	locker     TurnLocker
	opts       Options
}

func NewService(
	store conversation.Store,
	classifier Classifier,
	handlers map[Capability]CapabilityHandler,
	locker TurnLocker,
	opts Options,
) *Service {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	if opts.Budget <= 0 {
		opts.Budget = 3
	}
	if opts.TurnTimeout <= 0 {
		opts.TurnTimeout = 60 * time.Second
	}
	if opts.LockWait <= 0 {
		opts.LockWait = 10 * time.Second
	}
	if locker == nil {
		locker = NewKeyedLocker()
	}
	return &Service{
		store:      store,
		classifier: classifier,
		handlers:   handlers,
		locker:     locker,
		opts:       opts,
	}
}

// Handle runs one turn: append inbound, answer, append outbound.
// The returned error is only set for invalid input or a failed append; a
// non-empty reply is still worth delivering in the latter case.
func (s *Service) Handle(ctx context.Context, userID, text string) (string, error) {
	userID = strings.TrimSpace(userID)
	text = strings.TrimSpace(text)
	if userID == "" {
		return "", ErrEmptyUser
	}
	if text == "" {
		return "", ErrEmptyMessage
	}

	log.Printf("[router] turn userId=%s text=%q", userID, ai.Short(text))

	lockCtx, lockCancel := context.WithTimeout(ctx, s.opts.LockWait)
	unlock, err := s.locker.Lock(lockCtx, userID)
	lockCancel()
	if err != nil {
		log.Printf("[router] userId=%s turn lock not acquired: %v", userID, err)
		return BusyText, nil
	}
	defer unlock()

	turnCtx, cancel := context.WithTimeout(ctx, s.opts.TurnTimeout)
	defer cancel()

	if _, err := s.store.Append(turnCtx, userID, conversation.DirectionIn, conversation.RoleUser, text, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("append inbound: %w", err)
	}

	history := s.history(turnCtx, userID)

	reply := s.answer(turnCtx, Request{
		UserID:  userID,
		Text:    text,
		History: history,
		Budget:  NewBudget(s.opts.Budget),
	})

	pctx, pcancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer pcancel()
	if _, err := s.store.Append(pctx, userID, conversation.DirectionOut, conversation.RoleAgent, reply, time.Now().UTC()); err != nil {
		return reply, fmt.Errorf("append outbound: %w", err)
	}

	return reply, nil
}

// history excludes the message appended for this turn (offset 1) and is
// returned oldest first.
func (s *Service) history(ctx context.Context, userID string) []ai.Message {
	recent, err := s.store.ReadRecent(ctx, userID, s.opts.HistoryLimit, 1)
	if err != nil {
		log.Printf("[router] userId=%s read history failed: %v", userID, err)
		return nil
	}

	out := make([]ai.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		role := ai.RoleUser
		if recent[i].Role == conversation.RoleAgent {
			role = ai.RoleAssistant
		}
		out = append(out, ai.Message{Role: role, Text: recent[i].Body})
	}
	return out
}

// answer never fails: every error path maps to a localized fallback.
func (s *Service) answer(ctx context.Context, req Request) string {
	done := make(chan string, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[router] userId=%s handler panic: %v\n%s", req.UserID, r, debug.Stack())
				done <- ApologyText
			}
		}()
		done <- s.dispatch(ctx, req)
	}()

	select {
	case reply := <-done:
		return reply
	case <-ctx.Done():
		log.Printf("[router] userId=%s turn abandoned: %v", req.UserID, ctx.Err())
		return TimeoutText
	}
}

func (s *Service) dispatch(ctx context.Context, req Request) string {
	d, err := s.classifier.Classify(ctx, req.Text, req.History, req.Budget)
	if err != nil {
		return s.fallback(req, "classify", err)
	}
	if err := d.Validate(); err != nil {
		return s.fallback(req, "classify", err)
	}

	h, ok := s.handlers[d.Capability]
	if !ok {
		return s.fallback(req, "dispatch", fmt.Errorf("%w: %s", ErrNoHandler, d.Capability))
	}
	if err := req.Budget.Spend(); err != nil {
		return s.fallback(req, "dispatch", err)
	}

	log.Printf("[router] userId=%s capability=%s action=%s budgetLeft=%d",
		req.UserID, d.Capability, d.Params.Action, req.Budget.Left())

	req.Params = d.Params
	raw, err := h.Handle(ctx, req)
	if err != nil {
		return s.fallback(req, string(d.Capability), err)
	}
	if strings.TrimSpace(raw) == "" {
		return s.fallback(req, string(d.Capability), errors.New("empty reply"))
	}

	return Format(raw)
}

func (s *Service) fallback(req Request, stage string, err error) string {
	log.Printf("[router] userId=%s stage=%s error: %v", req.UserID, stage, err)
	switch {
	case errors.Is(err, ErrBudgetExhausted):
		return BudgetText
	case errors.Is(err, context.DeadlineExceeded):
		return TimeoutText
	default:
		return ApologyText
	}
}
