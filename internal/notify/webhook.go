package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-kasir/internal/common"
	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/resilience"
)

// Header names sent with every delivery.
const (
	HeaderEvent     = "X-Kasir-Event"
	HeaderDelivery  = "X-Kasir-Delivery"
	HeaderTimestamp = "X-Kasir-Timestamp"
	HeaderSignature = "X-Kasir-Signature"
)

// Envelope is the JSON body posted to the webhook endpoint.
type Envelope struct {
	ID          int64           `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID int64           `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Webhook posts published domain events to a single HTTP endpoint, signed
// with HMAC-SHA256. It implements events.Notifier.
type Webhook struct {
	URL    string
	Secret string
	Client resilience.Client
	Logger zerolog.Logger
	// Topics restricts deliveries to the listed topics when non-empty.
	Topics map[string]bool
	Now    func() time.Time
}

// NewHTTPClient returns a client whose transport is traced with otelhttp.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Notify delivers the event. A disabled webhook (no URL) is a no-op.
func (w Webhook) Notify(ctx context.Context, event dbgen.DomainEvent) error {
	if strings.TrimSpace(w.URL) == "" {
		return nil
	}
	if len(w.Topics) > 0 && !w.Topics[event.Topic] {
		return nil
	}
	payload := json.RawMessage(event.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	body, err := json.Marshal(Envelope{
		ID:          event.ID,
		Topic:       event.Topic,
		AggregateID: event.AggregateID,
		OccurredAt:  common.TimeOf(event.OccurredAt).UTC(),
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	ts := now().Unix()
	delivery := strconv.FormatInt(event.ID, 10)
	signature := Sign(w.Secret, ts, delivery, body)

	resp, err := w.Client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderEvent, event.Topic)
		req.Header.Set(HeaderDelivery, delivery)
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderSignature, "sha256="+signature)
		return req, nil
	})
	if err != nil {
		w.Logger.Warn().Err(err).Int64("event_id", event.ID).Str("topic", event.Topic).Msg("webhook delivery failed")
		return fmt.Errorf("notify: deliver event %d: %w", event.ID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusBadRequest {
		w.Logger.Warn().Int("status", resp.StatusCode).Int64("event_id", event.ID).Msg("webhook rejected delivery")
		return fmt.Errorf("notify: endpoint rejected event %d with status %d", event.ID, resp.StatusCode)
	}
	w.Logger.Debug().Int64("event_id", event.ID).Str("topic", event.Topic).Msg("webhook delivered")
	return nil
}

// Sign computes the hex HMAC-SHA256 of "<ts>.<delivery>.<body>".
func Sign(secret string, ts int64, delivery string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write([]byte(delivery))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature header value produced by Sign.
func Verify(secret string, ts int64, delivery string, body []byte, header string) bool {
	expected := "sha256=" + Sign(secret, ts, delivery, body)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}
