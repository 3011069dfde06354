package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/Vovarama1992/kos-ai-bridge/internal/ai"
)

const classifierPrompt = `
Kamu adalah ROUTER untuk asisten kos (rumah kos).

Kamu menerima JSON:

{
  "history": [...],
  "message": "..."
}

Pilih SATU capability untuk pesan terakhir pengguna:

- "rooms": pertanyaan tentang kamar, ketersediaan, tipe, harga.
  actions: "list_rooms", "room_info" (isi room_id jika disebut)
- "documents": peraturan kos, fasilitas, jam malam, FAQ umum.
  actions: "ask"
- "complaint": keluhan atau kerusakan, atau cek status keluhan.
  actions: "file_complaint", "complaint_status" (isi complaint_id jika disebut)
- "transaction": pembayaran atau pemesanan kamar, cek tagihan.
  actions: "pay" (isi room_id jika disebut), "bills"

Jangan menjawab pertanyaan pengguna. Kamu hanya memilih.

Format jawaban:

{
  "capability": "rooms",
  "params": {"action": "room_info", "room_id": 3}
}
`

// LLMClassifier asks the language backend for a decision over the closed set.
type LLMClassifier struct {
	ai ai.AI
}

func NewLLMClassifier(c ai.AI) *LLMClassifier {
	return &LLMClassifier{ai: c}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, history []ai.Message, budget *Budget) (Decision, error) {
	if err := budget.Spend(); err != nil {
		return Decision{}, err
	}

	input := map[string]any{
		"history": history,
		"message": text,
	}

	var d Decision
	if err := ai.AskJSON(ctx, c.ai, classifierPrompt, input, &d); err != nil {
		return Decision{}, fmt.Errorf("classify: %w", err)
	}
	d.Capability = Capability(strings.ToLower(strings.TrimSpace(string(d.Capability))))
	if err := d.Validate(); err != nil {
		return Decision{}, fmt.Errorf("%w: %q/%q", err, d.Capability, d.Params.Action)
	}
	return d, nil
}

var (
	numberRe = regexp.MustCompile(`\d+`)

	complaintWords   = []string{"keluhan", "komplain", "complaint", "rusak", "bocor", "mati", "lapor", "berisik", "kotor"}
	transactionWords = []string{"bayar", "pembayaran", "tagihan", "payment", "pay", "bill", "invoice", "lunas", "pesan kamar", "booking", "sewa"}
	billWords        = []string{"tagihan", "bill", "riwayat", "cek pembayaran", "status pembayaran", "invoice"}
	roomWords        = []string{"kamar", "room", "tersedia", "available", "kosong", "harga", "price", "tipe"}
	statusWords      = []string{"status", "cek", "check"}
)

// KeywordClassifier is deterministic and never calls the backend.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string, _ []ai.Message, _ *Budget) (Decision, error) {
	m := newMatcher(text)
	num := firstNumber(m.norm)

	var d Decision
	switch {
	case m.any(complaintWords):
		d.Capability = CapComplaint
		d.Params.Action = ActionFileComplaint
		if m.any(statusWords) {
			d.Params.Action = ActionComplaintStatus
			d.Params.ComplaintID = num
		}
	case m.any(transactionWords):
		d.Capability = CapTransaction
		d.Params.Action = ActionPay
		d.Params.RoomID = num
		if m.any(billWords) {
			d.Params.Action = ActionBills
			d.Params.RoomID = 0
		}
	case m.any(roomWords):
		d.Capability = CapRooms
		d.Params.Action = ActionListRooms
		if num > 0 {
			d.Params.Action = ActionRoomInfo
			d.Params.RoomID = num
		}
	default:
		d.Capability = CapDocuments
		d.Params.Action = ActionAsk
	}
	return d, d.Validate()
}

// FallbackClassifier uses Secondary when Primary fails or answers outside the set.
type FallbackClassifier struct {
	Primary   Classifier
	Secondary Classifier
}

func (f FallbackClassifier) Classify(ctx context.Context, text string, history []ai.Message, budget *Budget) (Decision, error) {
	d, err := f.Primary.Classify(ctx, text, history, budget)
	if err == nil {
		return d, nil
	}
	if errors.Is(err, ErrBudgetExhausted) || ctx.Err() != nil {
		return Decision{}, err
	}
	log.Printf("[router] primary classifier failed, using fallback: %v", err)
	return f.Secondary.Classify(ctx, text, history, budget)
}

// matcher matches single words as token prefixes ("kamarnya" hits "kamar")
// and multi-word phrases as substrings of the normalized text.
type matcher struct {
	norm   string
	tokens []string
}

func newMatcher(text string) matcher {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return matcher{norm: strings.Join(tokens, " "), tokens: tokens}
}

func (m matcher) any(words []string) bool {
	for _, w := range words {
		if strings.Contains(w, " ") {
			if strings.Contains(m.norm, w) {
				return true
			}
			continue
		}
		for _, t := range m.tokens {
			if strings.HasPrefix(t, w) {
				return true
			}
		}
	}
	return false
}

func firstNumber(s string) int64 {
	m := numberRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
