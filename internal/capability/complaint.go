package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vovarama1992/kos-ai-bridge/internal/ai"
	"github.com/Vovarama1992/kos-ai-bridge/internal/complaint"
	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
)

const complaintPrompt = `
Kamu adalah agen KELUHAN untuk guest house (kos).

Kamu menerima JSON:

{
  "history": [...],
  "message": "...",
  "known_name": "..."
}

Ambil data keluhan dari message dan history:
- guest_name: nama penghuni (pakai known_name jika tidak disebut)
- room_id: nomor kamar (angka)
- description: isi keluhan, singkat dan jelas

Jangan mengarang. Jika data tidak ada, biarkan kosong / 0.

Format jawaban:

{
  "guest_name": "...",
  "room_id": 0,
  "description": "..."
}
`

var statusLabels = map[complaint.Status]string{
	complaint.StatusOpen:       "diterima (open)",
	complaint.StatusInProgress: "sedang diproses (in progress)",
	complaint.StatusClosed:     "selesai (closed)",
}

// Complaint files new complaints and reports the status of existing ones.
type Complaint struct {
	ai         ai.AI
	complaints Complaints
	users      Users
}

func NewComplaint(c ai.AI, complaints Complaints, u Users) *Complaint {
	return &Complaint{ai: c, complaints: complaints, users: u}
}

type complaintDraft struct {
	GuestName   string `json:"guest_name"`
	RoomID      int64  `json:"room_id"`
	Description string `json:"description"`
}

func (h *Complaint) Handle(ctx context.Context, req router.Request) (string, error) {
	if req.Params.Action == router.ActionComplaintStatus {
		return h.status(ctx, req.Params.ComplaintID)
	}
	return h.file(ctx, req)
}

func (h *Complaint) file(ctx context.Context, req router.Request) (string, error) {
	knownName := h.knownName(ctx, req.UserID)

	draft := complaintDraft{GuestName: knownName, RoomID: req.Params.RoomID}
	if h.ai != nil {
		if err := req.Budget.Spend(); err != nil {
			return "", err
		}
		input := map[string]any{
			"history":    req.History,
			"message":    req.Text,
			"known_name": knownName,
		}
		if err := ai.AskJSON(ctx, h.ai, complaintPrompt, input, &draft); err != nil {
			return "", fmt.Errorf("extract complaint: %w", err)
		}
		if draft.GuestName == "" {
			draft.GuestName = knownName
		}
		if draft.RoomID == 0 {
			draft.RoomID = req.Params.RoomID
		}
	} else {
		draft.Description = req.Text
	}

	if missing := missingFields(draft); len(missing) > 0 {
		return "Untuk mencatat keluhan, mohon lengkapi: " + strings.Join(missing, ", ") + ".", nil
	}

	c, err := h.complaints.File(ctx, draft.GuestName, draft.RoomID, draft.Description)
	if err != nil {
		if errors.Is(err, complaint.ErrRoomNotFound) {
			return fmt.Sprintf("Kamar %d tidak ditemukan. Mohon periksa kembali nomor kamar Anda.", draft.RoomID), nil
		}
		return "", err
	}

	return fmt.Sprintf(
		"Keluhan Anda sudah kami catat dengan nomor #%d untuk kamar %d.\nStatus: %s.\nKetik \"status keluhan %d\" untuk mengecek perkembangannya.",
		c.ID, c.RoomID, statusLabels[c.Status], c.ID,
	), nil
}

func (h *Complaint) status(ctx context.Context, id int64) (string, error) {
	if id <= 0 {
		return "Mohon sebutkan nomor keluhan Anda, misalnya \"status keluhan 12\".", nil
	}
	c, err := h.complaints.Get(ctx, id)
	if err != nil {
		if errors.Is(err, complaint.ErrNotFound) {
			return fmt.Sprintf("Keluhan #%d tidak ditemukan.", id), nil
		}
		return "", err
	}
	// complaints are not tied to a chat user, so anyone may ask by number;
	// only the status is disclosed
	return fmt.Sprintf("Status keluhan #%d: %s.", c.ID, statusLabels[c.Status]), nil
}

// knownName is the user's real name, or "" for chat placeholders.
func (h *Complaint) knownName(ctx context.Context, externalID string) string {
	if h.users == nil {
		return ""
	}
	u, err := h.users.ResolveExternal(ctx, externalID, users.PlaceholderName(externalID))
	if err != nil || u.FullName == users.PlaceholderName(externalID) {
		return ""
	}
	return u.FullName
}

func missingFields(d complaintDraft) []string {
	var out []string
	if strings.TrimSpace(d.GuestName) == "" {
		out = append(out, "nama")
	}
	if d.RoomID <= 0 {
		out = append(out, "nomor kamar")
	}
	if strings.TrimSpace(d.Description) == "" {
		out = append(out, "isi keluhan")
	}
	return out
}
