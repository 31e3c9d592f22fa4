package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
)

// EventStore defines the persistence operations required by the event bus.
type EventStore interface {
	InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error)
}

// Notifier reacts to emitted events after they are durable.
type Notifier interface {
	Notify(ctx context.Context, event dbgen.DomainEvent) error
}

// Bus persists domain events and fans them out to downstream handlers.
type Bus struct {
	Store     EventStore
	Notifiers []Notifier
}

// Emit records the event with the bus store and notifies all handlers.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID int64, payload any) (dbgen.DomainEvent, error) {
	if b == nil || b.Store == nil {
		return dbgen.DomainEvent{}, errors.New("events: store not configured")
	}
	ev, err := b.Record(ctx, b.Store, topic, aggregateID, payload)
	if err != nil {
		return dbgen.DomainEvent{}, err
	}
	return ev, b.Publish(ctx, ev)
}

// Record persists the event through q without notifying anyone. Callers that
// write inside a database transaction use it with the transaction's querier
// and call Publish once the transaction commits.
func (b *Bus) Record(ctx context.Context, q EventStore, topic string, aggregateID int64, payload any) (dbgen.DomainEvent, error) {
	if q == nil {
		return dbgen.DomainEvent{}, errors.New("events: store not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return dbgen.DomainEvent{}, errors.New("events: topic is required")
	}
	if aggregateID <= 0 {
		return dbgen.DomainEvent{}, errors.New("events: aggregate id is required")
	}
	encoded, err := encodePayload(payload)
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: encode payload: %w", err)
	}
	ev, err := q.InsertDomainEvent(ctx, dbgen.InsertDomainEventParams{
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     encoded,
	})
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: persist event: %w", err)
	}
	return ev, nil
}

// Publish hands a persisted event to every notifier. Notifier failures are
// joined and returned; they never undo the event.
func (b *Bus) Publish(ctx context.Context, ev dbgen.DomainEvent) error {
	if b == nil {
		return nil
	}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier %s: %w", ev.Topic, notifyErr))
		}
	}
	return joined
}

// encodePayload accepts pre-encoded JSON (bytes, RawMessage, string) or any
// value json can marshal. Empty input is stored as an empty object.
func encodePayload(payload any) ([]byte, error) {
	var raw []byte
	switch v := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(strings.TrimSpace(v))
	default:
		return json.Marshal(v)
	}
	if len(raw) == 0 {
		return []byte("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("payload is not valid json")
	}
	return bytes.Clone(raw), nil
}
