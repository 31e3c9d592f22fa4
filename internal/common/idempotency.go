package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// IdempotencyHeader names the client-supplied replay key.
const IdempotencyHeader = "Idempotency-Key"

const (
	idemPending = "pending"
	idemDone    = "done"
)

// Idem guards register writes (cart edits, checkout, transitions) against
// double submission. A key is "pending" while the first request runs and
// "done" for TTL once it succeeds. A failed request releases the key so the
// corrected request can reuse it.
type Idem struct {
	R   redis.UniversalClient
	TTL time.Duration
}

// redisKey scopes the key per operator and route so two registers can reuse
// the same client key without colliding.
func (i Idem) redisKey(r *http.Request, header string) string {
	owner := "anon"
	if id, ok := OperatorID(r.Context()); ok {
		owner = strconv.FormatInt(id, 10)
	}
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + "|" + header))
	return "kasir:idem:" + owner + ":" + hex.EncodeToString(sum[:])
}

// Middleware enforces the key on requests that carry one. Requests without
// the header pass straight through.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(IdempotencyHeader)
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		ctx := r.Context()
		key := i.redisKey(r, header)
		acquired, err := i.R.SetNX(ctx, key, idemPending, ttl).Result()
		if err != nil {
			JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "idempotency store unavailable", nil)
			return
		}
		if !acquired {
			state, _ := i.R.Get(ctx, key).Result()
			if state == idemPending {
				JSONError(w, http.StatusConflict, "REQUEST_IN_PROGRESS", "a request with this key is still running", nil)
				return
			}
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		rec := &statusCapture{ResponseWriter: w, status: http.StatusOK}
		returned := false
		defer func() {
			// The request context may already be canceled here.
			bg := context.WithoutCancel(ctx)
			// A panicking handler never returns; the recoverer answers 500.
			if !returned || rec.status >= http.StatusBadRequest {
				_ = i.R.Del(bg, key).Err()
				return
			}
			_ = i.R.Set(bg, key, idemDone, ttl).Err()
		}()
		next.ServeHTTP(rec, r)
		returned = true
	})
}

type statusCapture struct {
	http.ResponseWriter
	status int
}

func (s *statusCapture) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
