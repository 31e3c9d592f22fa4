package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/resilience"
)

func completedEvent() dbgen.DomainEvent {
	return dbgen.DomainEvent{
		ID:          11,
		Topic:       "transaction.completed",
		AggregateID: 501,
		Payload:     []byte(`{"total":"24.30"}`),
		OccurredAt:  pgtype.Timestamptz{Time: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), Valid: true},
	}
}

func TestWebhookDeliversSignedEnvelope(t *testing.T) {
	fixed := time.Unix(1_780_000_000, 0)
	var got Envelope
	var verified bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ts, _ := strconv.ParseInt(r.Header.Get(HeaderTimestamp), 10, 64)
		verified = Verify("s3cret", ts, r.Header.Get(HeaderDelivery), body, r.Header.Get(HeaderSignature))
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)

	hook := Webhook{
		URL:    srv.URL,
		Secret: "s3cret",
		Client: resilience.Client{HTTP: srv.Client()},
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return fixed },
	}
	require.NoError(t, hook.Notify(context.Background(), completedEvent()))
	require.True(t, verified)
	require.Equal(t, int64(501), got.AggregateID)
	require.Equal(t, "transaction.completed", got.Topic)
	require.JSONEq(t, `{"total":"24.30"}`, string(got.Payload))
}

func TestWebhookFiltersTopicsAndSkipsWithoutURL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	require.NoError(t, Webhook{}.Notify(context.Background(), completedEvent()))

	hook := Webhook{
		URL:    srv.URL,
		Client: resilience.Client{HTTP: srv.Client()},
		Topics: map[string]bool{"transaction.canceled": true},
	}
	require.NoError(t, hook.Notify(context.Background(), completedEvent()))
	require.Equal(t, int32(0), calls.Load())
}

func TestWebhookReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	hook := Webhook{URL: srv.URL, Client: resilience.Client{HTTP: srv.Client()}, Logger: zerolog.Nop()}
	require.Error(t, hook.Notify(context.Background(), completedEvent()))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	sig := "sha256=" + Sign("k", 1, "7", []byte(`{"a":1}`))
	require.True(t, Verify("k", 1, "7", []byte(`{"a":1}`), sig))
	require.False(t, Verify("k", 1, "7", []byte(`{"a":2}`), sig))
	require.False(t, Verify("other", 1, "7", []byte(`{"a":1}`), sig))
}
