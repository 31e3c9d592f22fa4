// Package lock serializes settlement per store owner with a Redis lease.
package lock

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when the lock is still held by someone else once the
// wait budget is spent.
var ErrBusy = errors.New("lock: resource busy")

// releaseScript deletes the key only while it still holds our token, so a
// lease that expired and was taken by another register is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// Locker hands out leases stored as SET NX PX keys.
type Locker struct {
	R            redis.UniversalClient
	RetryBackoff time.Duration
	// MaxWait bounds how long WithLock keeps retrying. Zero waits for the
	// caller's context only.
	MaxWait time.Duration
}

// CheckoutKey names the lease that serializes settlement for one store owner.
func CheckoutKey(ownerID int64) string {
	return "kasir:lock:checkout:" + strconv.FormatInt(ownerID, 10)
}

// WithLock runs fn while holding key for at most ttl. The lease is released
// when fn returns, whatever the outcome.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	waitCtx := ctx
	if l.MaxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.MaxWait)
		defer cancel()
	}

	token := uuid.NewString()
	for {
		acquired, err := l.R.SetNX(waitCtx, key, token, ttl).Result()
		switch {
		case err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return ErrBusy
		case err != nil:
			return err
		case acquired:
			defer func() {
				_ = releaseScript.Run(context.WithoutCancel(ctx), l.R, []string{key}, token).Err()
			}()
			return fn(ctx)
		}

		// Jitter keeps two registers polling the same key from retrying in lockstep.
		wait := retry + rand.N(retry/2+1)
		timer := time.NewTimer(wait)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrBusy
		case <-timer.C:
		}
	}
}
