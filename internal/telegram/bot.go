package telegram

import (
	"context"
	"log"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
)

const (
	WelcomeText = "Halo selamat datang di Pak Kos Bot! 👋\n\n" +
		"Saya bisa membantu Anda cek ketersediaan kamar, menjelaskan peraturan kos, " +
		"mencatat keluhan, dan membuat link pembayaran. Silakan ketik pertanyaan Anda " +
		"atau pilih menu di bawah."
	WaitText        = "🔄 Mohon Menunggu, Bapak Kos sedang mencari informasi..."
	RateLimitedText = "Anda mengirim pesan terlalu cepat. Mohon tunggu sebentar sebelum mengirim lagi."

	callbackRooms = "Ketersediaan Kamar"
	callbackRules = "Peraturan Kos"
)

func welcomeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Cek Status Kamar", callbackRooms),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Peraturan Kos-kosan", callbackRules),
		),
	)
}

const sendTimeout = 15 * time.Second

// Bot long-polls Telegram and feeds every text message to the router.
type Bot struct {
	api     API
	out     *Notifier
	turns   router.Turns
	limiter *userLimiter
	wg      sync.WaitGroup
}

func NewBot(api API, turns router.Turns, perMinute int) *Bot {
	return &Bot{
		api:     api,
		out:     NewNotifier(api),
		turns:   turns,
		limiter: newUserLimiter(perMinute),
	}
}

// Run blocks until ctx is done, then waits for in-flight turns.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	log.Printf("[telegram] polling started")
	defer log.Printf("[telegram] polling stopped")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return
		case upd, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, upd)
			}()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[telegram] panic in update %d: %v\n%s", upd.UpdateID, rec, debug.Stack())
		}
	}()

	var (
		userID int64
		chatID int64
		text   string
	)

	switch {
	case upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.Printf("[telegram] answer callback %s: %v", cq.ID, err)
		}
		if cq.Message == nil || cq.Message.Chat == nil || cq.From == nil {
			return
		}
		userID, chatID, text = cq.From.ID, cq.Message.Chat.ID, cq.Data

	case upd.Message != nil:
		msg := upd.Message
		if msg.From == nil || msg.Chat == nil {
			return
		}
		if msg.IsCommand() {
			if msg.Command() == "start" {
				if err := b.send(ctx, msg.Chat.ID, WelcomeText, welcomeKeyboard()); err != nil {
					log.Printf("[telegram] welcome chat=%d: %v", msg.Chat.ID, err)
				}
			}
			return
		}
		userID, chatID, text = msg.From.ID, msg.Chat.ID, msg.Text

	default:
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if !b.limiter.Allow(userID) {
		log.Printf("[telegram] rate limited user=%d", userID)
		if err := b.send(ctx, chatID, RateLimitedText, nil); err != nil {
			log.Printf("[telegram] send chat=%d: %v", chatID, err)
		}
		return
	}

	if err := b.send(ctx, chatID, WaitText, nil); err != nil {
		log.Printf("[telegram] interim chat=%d: %v", chatID, err)
	}

	// the router bounds the turn itself; shutdown must not cut a reply in half
	reply, err := b.turns.Handle(context.WithoutCancel(ctx), strconv.FormatInt(userID, 10), text)
	if err != nil {
		log.Printf("[telegram] turn user=%d: %v", userID, err)
		if reply == "" {
			reply = router.ApologyText
		}
	}

	if err := b.send(ctx, chatID, reply, nil); err != nil {
		log.Printf("[telegram] reply chat=%d: %v", chatID, err)
	}
}

// send outlives shutdown so a finished turn is still delivered.
func (b *Bot) send(ctx context.Context, chatID int64, text string, markup any) error {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()
	return b.out.send(sctx, chatID, text, markup)
}
