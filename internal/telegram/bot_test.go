package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
)

type recordingTurns struct {
	mu    sync.Mutex
	calls [][2]string
	reply string
	err   error
}

func (r *recordingTurns) Handle(_ context.Context, userID, text string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]string{userID, text})
	return r.reply, r.err
}

func (r *recordingTurns) seen() [][2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]string(nil), r.calls...)
}

func TestBot_StartShowsMenu(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{}
	bot := NewBot(api, turns, 20)

	bot.handleUpdate(context.Background(), command(9, "start"))

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, WelcomeText, msgs[0].Text)
	kb, ok := msgs[0].Markup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, callbackRooms, *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, callbackRules, *kb.InlineKeyboard[1][0].CallbackData)
	assert.Empty(t, turns.seen())
}

func TestBot_UnknownCommandIgnored(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{}

	NewBot(api, turns, 20).handleUpdate(context.Background(), command(9, "help"))

	assert.Empty(t, api.messages())
	assert.Empty(t, turns.seen())
}

func TestBot_MessageGetsInterimThenReply(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{reply: "Kamar 2 tersedia."}

	NewBot(api, turns, 20).handleUpdate(context.Background(), textMessage(42, "  ada kamar kosong?  "))

	assert.Equal(t, [][2]string{{"42", "ada kamar kosong?"}}, turns.seen())
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, WaitText, msgs[0].Text)
	assert.Equal(t, "Kamar 2 tersedia.", msgs[1].Text)
	assert.Equal(t, int64(42), msgs[1].ChatID)
}

func TestBot_CallbackRoutedAsText(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{reply: "Peraturan: ..."}
	upd := tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb-1",
			From:    &tgbotapi.User{ID: 5},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 500}},
			Data:    callbackRules,
		},
	}

	NewBot(api, turns, 20).handleUpdate(context.Background(), upd)

	assert.Equal(t, []string{"cb-1"}, api.callbacks)
	assert.Equal(t, [][2]string{{"5", callbackRules}}, turns.seen())
	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(500), msgs[1].ChatID)
}

func TestBot_TurnErrorWithoutReplyApologises(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{err: errors.New("db down")}

	NewBot(api, turns, 20).handleUpdate(context.Background(), textMessage(1, "halo"))

	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, router.ApologyText, msgs[1].Text)
}

func TestBot_TurnErrorKeepsReply(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{reply: "Keluhan dicatat.", err: errors.New("append outbound")}

	NewBot(api, turns, 20).handleUpdate(context.Background(), textMessage(1, "wifi mati"))

	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Keluhan dicatat.", msgs[1].Text)
}

func TestBot_RateLimitsPerUser(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{reply: "ok"}
	bot := NewBot(api, turns, 1)
	frozen := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	bot.limiter.now = func() time.Time { return frozen }

	bot.handleUpdate(context.Background(), textMessage(1, "satu"))
	bot.handleUpdate(context.Background(), textMessage(1, "dua"))
	bot.handleUpdate(context.Background(), textMessage(2, "tiga"))

	assert.Equal(t, [][2]string{{"1", "satu"}, {"2", "tiga"}}, turns.seen())
	var limited int
	for _, m := range api.messages() {
		if m.Text == RateLimitedText {
			limited++
		}
	}
	assert.Equal(t, 1, limited)
}

func TestBot_RunStopsOnCancel(t *testing.T) {
	api := newFakeAPI()
	turns := &recordingTurns{reply: "ok"}
	bot := NewBot(api, turns, 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		bot.Run(ctx)
		close(done)
	}()

	api.updates <- textMessage(3, "halo")
	require.Eventually(t, func() bool { return len(turns.seen()) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	api.mu.Lock()
	assert.True(t, api.stopped)
	api.mu.Unlock()
}

func TestUserLimiter_SweepsIdleUsers(t *testing.T) {
	l := newUserLimiter(60)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(1))
	now = now.Add(limiterIdle + time.Minute)
	assert.True(t, l.Allow(2))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, int64(1))
	assert.Contains(t, l.visitors, int64(2))
}
