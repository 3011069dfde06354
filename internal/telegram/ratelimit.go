package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userLimiter keeps one token bucket per Telegram user.
type userLimiter struct {
	mu        sync.Mutex
	visitors  map[int64]*visitor
	limit     rate.Limit
	lastSweep time.Time
	now       func() time.Time
}

func newUserLimiter(perMinute int) *userLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return &userLimiter{
		visitors: make(map[int64]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		now:      time.Now,
	}
}

// Allow reports whether userID may send another message now.
// Burst is one so a user cannot fire a volley at the model.
func (l *userLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, 1)}
		l.visitors[userID] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// sweep drops idle users at most once per idle window.
func (l *userLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < limiterIdle {
		return
	}
	l.lastSweep = now
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > limiterIdle {
			delete(l.visitors, id)
		}
	}
}
