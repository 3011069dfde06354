package router

import (
	"context"
	"errors"

	"github.com/Vovarama1992/kos-ai-bridge/internal/ai"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrEmptyUser       = errors.New("user id is empty")
	ErrBudgetExhausted = errors.New("invocation budget exhausted")
	ErrNoHandler       = errors.New("no handler for capability")
	ErrInvalidDecision = errors.New("classifier decision is invalid")
)

// Capability is the closed set of things the assistant can do.
type Capability string

const (
	CapRooms       Capability = "rooms"
	CapDocuments   Capability = "documents"
	CapComplaint   Capability = "complaint"
	CapTransaction Capability = "transaction"
)

var Capabilities = []Capability{CapRooms, CapDocuments, CapComplaint, CapTransaction}

// Action narrows a capability to one operation.
type Action string

const (
	ActionListRooms Action = "list_rooms"
	ActionRoomInfo  Action = "room_info"

	ActionAsk Action = "ask"

	ActionFileComplaint   Action = "file_complaint"
	ActionComplaintStatus Action = "complaint_status"

	ActionPay   Action = "pay"
	ActionBills Action = "bills"
)

var actions = map[Capability][]Action{
	CapRooms:       {ActionListRooms, ActionRoomInfo},
	CapDocuments:   {ActionAsk},
	CapComplaint:   {ActionFileComplaint, ActionComplaintStatus},
	CapTransaction: {ActionPay, ActionBills},
}

func (c Capability) Valid() bool {
	_, ok := actions[c]
	return ok
}

// DefaultAction is used when the classifier names a capability but no action.
func (c Capability) DefaultAction() Action {
	if a := actions[c]; len(a) > 0 {
		return a[0]
	}
	return ""
}

// Params are the structured arguments extracted together with the decision.
type Params struct {
	Action      Action `json:"action,omitempty"`
	RoomID      int64  `json:"room_id,omitempty"`
	ComplaintID int64  `json:"complaint_id,omitempty"`
}

type Decision struct {
	Capability Capability `json:"capability"`
	Params     Params     `json:"params"`
}

// Validate fills the default action and rejects anything outside the closed set.
func (d *Decision) Validate() error {
	if !d.Capability.Valid() {
		return ErrInvalidDecision
	}
	if d.Params.Action == "" {
		d.Params.Action = d.Capability.DefaultAction()
	}
	allowed := false
	for _, a := range actions[d.Capability] {
		if a == d.Params.Action {
			allowed = true
			break
		}
	}
	if !allowed || d.Params.RoomID < 0 || d.Params.ComplaintID < 0 {
		return ErrInvalidDecision
	}
	return nil
}

// Request is what a handler sees of one turn.
type Request struct {
	UserID  string
	Text    string
	History []ai.Message // oldest first, current message excluded
	Params  Params
	Budget  *Budget
}

// CapabilityHandler answers one classified request.
type CapabilityHandler interface {
	Handle(ctx context.Context, req Request) (string, error)
}

type CapabilityHandlerFunc func(ctx context.Context, req Request) (string, error)

func (f CapabilityHandlerFunc) Handle(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

type Classifier interface {
	Classify(ctx context.Context, text string, history []ai.Message, budget *Budget) (Decision, error)
}

// TurnLocker serializes turns of one user. unlock must be safe to call twice.
type TurnLocker interface {
	Lock(ctx context.Context, userID string) (unlock func(), err error)
}
