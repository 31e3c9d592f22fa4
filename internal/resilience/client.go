package resilience

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

// Backoff returns base*2^(attempt-1) with +/- jitterPct randomisation.
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << uint(attempt-1)
	if jitterPct <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * float64(d) * jitterPct
	return d + time.Duration(delta)
}

// Client retries an HTTP call behind a breaker. Responses with status >= 500
// count as failures and are retried.
type Client struct {
	HTTP        *http.Client
	Breaker     *Breaker
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
}

// Do builds a fresh request per attempt so bodies can be replayed. The caller
// owns the returned response body.
func (c Client) Do(ctx context.Context, build func(context.Context) (*http.Request, error)) (*http.Response, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		if c.Breaker != nil && !c.Breaker.Allow(ctx) {
			return nil, ErrOpenCircuit
		}
		resp, err := httpClient.Do(req)
		if err == nil && resp.StatusCode < http.StatusInternalServerError {
			if c.Breaker != nil {
				c.Breaker.Report(ctx, true)
			}
			return resp, nil
		}
		if err == nil {
			_ = resp.Body.Close()
			err = fmt.Errorf("resilience: upstream status %d", resp.StatusCode)
		}
		lastErr = err
		if c.Breaker != nil {
			c.Breaker.Report(ctx, false)
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(c.BaseBackoff, attempt, c.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
