package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// PassLock serialises reconciliation passes. Acquire fails with
// ErrPassInProgress when another pass holds the lock. The returned context
// is cancelled once the lock can no longer be guaranteed and must be used for
// the guarded work.
type PassLock interface {
	Acquire(ctx context.Context) (held context.Context, release func(context.Context) error, err error)
}

// LocalPassLock serialises passes within one process.
type LocalPassLock struct {
	held atomic.Bool
}

func NewLocalPassLock() *LocalPassLock {
	return &LocalPassLock{}
}

func (l *LocalPassLock) Acquire(ctx context.Context) (context.Context, func(context.Context) error, error) {
	if !l.held.CompareAndSwap(false, true) {
		return nil, nil, ErrPassInProgress
	}

	return ctx, func(context.Context) error {
		l.held.Store(false)

		return nil
	}, nil
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the key only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisPassLock serialises passes across processes sharing a redis server.
// The key expires after TTL unless the holder keeps renewing it every TTL/3.
type RedisPassLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisPassLock(client *redis.Client, key string, ttl time.Duration) *RedisPassLock {
	return &RedisPassLock{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (l *RedisPassLock) Acquire(ctx context.Context) (context.Context, func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire pass lock: %w", err)
	}

	if !ok {
		return nil, nil, ErrPassInProgress
	}

	held, cancel := context.WithCancelCause(ctx)
	stopped := make(chan struct{})

	if l.ttl > 0 {
		go l.watch(held, cancel, token, stopped)
	} else {
		close(stopped)
	}

	return held, func(ctx context.Context) error {
		cancel(nil)
		<-stopped

		err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("failed to release pass lock: %w", err)
		}

		return nil
	}, nil
}

// watch renews the key until held is done. It cancels held with
// ErrPassLockLost when the key no longer carries token.
func (l *RedisPassLock) watch(held context.Context, cancel context.CancelCauseFunc, token string, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(max(l.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-held.Done():
			return
		case <-ticker.C:
			renewed, err := renewScript.Run(held, l.client, []string{l.key}, token, l.ttl.Milliseconds()).Int()

			switch {
			case err != nil:
				// Transient failures are retried on the next tick while the key lives.
				continue
			case renewed == 0:
				cancel(ErrPassLockLost)

				return
			}
		}
	}
}

// chainLocks acquires every lock in order and releases them in reverse.
type chainLocks []PassLock

func (c chainLocks) Acquire(ctx context.Context) (context.Context, func(context.Context) error, error) {
	releases := make([]func(context.Context) error, 0, len(c))

	releaseAll := func(ctx context.Context) error {
		var errs []error

		for i := len(releases) - 1; i >= 0; i-- {
			errs = append(errs, releases[i](ctx))
		}

		return errors.Join(errs...)
	}

	held := ctx

	for _, lock := range c {
		next, release, err := lock.Acquire(held)
		if err != nil {
			_ = releaseAll(ctx)

			return nil, nil, err
		}

		held = next
		releases = append(releases, release)
	}

	return held, releaseAll, nil
}
