package resilience

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func getter(url string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := Client{HTTP: srv.Client(), MaxAttempts: 3, BaseBackoff: time.Millisecond}
	resp, err := c.Do(context.Background(), getter(srv.URL))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	c := Client{HTTP: srv.Client(), MaxAttempts: 3, BaseBackoff: time.Millisecond}
	resp, err := c.Do(context.Background(), getter(srv.URL))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, int32(1), calls.Load())
}

func TestClientStopsAtOpenCircuit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	breaker := NewBreaker(BreakerConfig{MinRequests: 2, OpenFor: time.Hour})
	c := Client{HTTP: srv.Client(), Breaker: breaker, MaxAttempts: 5, BaseBackoff: time.Millisecond}

	_, err := c.Do(context.Background(), getter(srv.URL))
	require.True(t, errors.Is(err, ErrOpenCircuit))
	require.Equal(t, int32(2), calls.Load())

	_, err = c.Do(context.Background(), getter(srv.URL))
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.Equal(t, int32(2), calls.Load())
}
