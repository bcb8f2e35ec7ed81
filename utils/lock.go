package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PlayerLocker serialises heist resolution per player.
// The returned func releases the lock and is safe to call once.
type PlayerLocker interface {
	Lock(ctx context.Context, userID int64) (func(), error)
}

// LocalLocker is a per-player mutex for a single process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[int64]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[int64]*localLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &localLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(userID, entry)
		return nil, fmt.Errorf("failed to lock player %d: %w", userID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.release(userID, entry)
		})
	}, nil
}

func (l *LocalLocker) release(userID int64, entry *localLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()
}

// held reports how many players currently have a lock entry
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// ErrLockTimeout is returned when a Redis lock could not be taken before ctx ended
var ErrLockTimeout = errors.New("player lock timed out")

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker shares player locks across bot replicas. Keys expire after ttl
// so a crashed holder cannot wedge a player forever.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, prefix: "heist:lock:", ttl: ttl, retry: 25 * time.Millisecond}
}

func (r *RedisLocker) key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

func (r *RedisLocker) Lock(ctx context.Context, userID int64) (func(), error) {
	key := r.key(userID)
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return nil, fmt.Errorf("failed to lock player %d: %w", userID, err)
		}
		if ok {
			break
		}

		t := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
				log.Warn().Err(err).Int64("user_id", userID).Msg("failed to release player lock")
			}
		})
	}, nil
}

// NewRedisClient parses url and checks the server is reachable
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}
