package telegram

import (
	"errors"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sent struct {
	ChatID    int64
	Text      string
	ParseMode string
	Markup    any
}

type fakeAPI struct {
	mu        sync.Mutex
	sent      []sent
	callbacks []string
	updates   chan tgbotapi.Update
	stopped   bool

	// failFor makes every send to the chat fail; rejectMarkdown fails only Markdown sends.
	failFor        map[int64]bool
	rejectMarkdown bool
	delay          time.Duration
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		updates: make(chan tgbotapi.Update, 8),
		failFor: map[int64]bool{},
	}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, errors.New("unexpected chattable")
	}
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.ChatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	if f.rejectMarkdown && msg.ParseMode == tgbotapi.ModeMarkdown {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	f.sent = append(f.sent, sent{ChatID: msg.ChatID, Text: msg.Text, ParseMode: msg.ParseMode, Markup: msg.ReplyMarkup})
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	cb, ok := c.(tgbotapi.CallbackConfig)
	if !ok {
		return nil, errors.New("unexpected chattable")
	}
	f.mu.Lock()
	f.callbacks = append(f.callbacks, cb.CallbackQueryID)
	f.mu.Unlock()
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeAPI) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.sent...)
}

func textMessage(userID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
		},
	}
}

func command(userID int64, name string) tgbotapi.Update {
	upd := textMessage(userID, "/"+name)
	upd.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name) + 1}}
	return upd
}
