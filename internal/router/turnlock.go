package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyedLocker is an in-process TurnLocker: one waiter queue per user.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]*keyLock)}
}

func (l *KeyedLocker) Lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[userID]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.ch
				l.release(userID, kl)
			})
		}, nil
	case <-ctx.Done():
		l.release(userID, kl)
		return nil, ctx.Err()
	}
}

func (l *KeyedLocker) release(userID string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, userID)
	}
}

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes turns across replicas with SET NX PX.
type RedisLocker struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker: ttl should outlive the turn timeout so a live turn never
// loses its lock; a crashed replica's lock expires after ttl.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: 50 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := "turn_lock:" + userID
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		if ok {
			break
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("[router] release turn lock user=%s failed: %v", userID, err)
			}
		})
	}, nil
}
