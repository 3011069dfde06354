package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NewBotAPI connects to Telegram with a client timeout above the long-poll timeout.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 75 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	log.Printf("[telegram] authorized as @%s", bot.Self.UserName)
	return bot, nil
}

type Notifier struct {
	api API
}

func NewNotifier(api API) *Notifier {
	return &Notifier{api: api}
}

// Notify sends text to the chat whose id is externalID.
func (n *Notifier) Notify(ctx context.Context, externalID, text string) error {
	if n == nil || n.api == nil {
		return ErrBotDisabled
	}
	chatID, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidChatID, externalID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.send(ctx, chatID, text, nil)
}

// Broadcast returns the ids that received the message.
func (n *Notifier) Broadcast(ctx context.Context, ids []int64, text string) []int64 {
	reached := make([]int64, 0, len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			log.Printf("[telegram] broadcast stopped: %v", ctx.Err())
			break
		}
		if err := n.send(ctx, id, text, nil); err != nil {
			log.Printf("[telegram] send to %d failed: %v", id, err)
			continue
		}
		reached = append(reached, id)
	}
	return reached
}

// send tries Markdown first and falls back to plain text when Telegram
// rejects the entities. The API call takes no context, so ctx only bounds
// how long we wait; an abandoned call finishes in the background.
func (n *Notifier) send(ctx context.Context, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	done := make(chan error, 1)
	go func() {
		if _, err := n.api.Send(msg); err != nil {
			msg.ParseMode = ""
			if _, err2 := n.api.Send(msg); err2 != nil {
				done <- fmt.Errorf("send: %w", err2)
				return
			}
			log.Printf("[telegram] chat=%d markdown rejected, sent as plain text: %v", chatID, err)
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Printf("[telegram] chat=%d send abandoned: %v", chatID, ctx.Err())
		return ctx.Err()
	}
}
