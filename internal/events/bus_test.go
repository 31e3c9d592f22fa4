package events_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
	"github.com/noah-isme/backend-kasir/internal/events"
)

type stubStore struct {
	lastParams dbgen.InsertDomainEventParams
	nextID     int64
	err        error
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	if s.err != nil {
		return dbgen.DomainEvent{}, s.err
	}
	s.lastParams = arg
	s.nextID++
	return dbgen.DomainEvent{
		ID:          s.nextID,
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureNotifier struct {
	events []dbgen.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	payload := map[string]any{"transaction_id": 12, "total": "24.30"}
	event, err := bus.Emit(context.Background(), events.TopicTransactionCompleted, 12, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicTransactionCompleted, store.lastParams.Topic)
	require.Equal(t, int64(12), store.lastParams.AggregateID)
	require.JSONEq(t, `{"transaction_id":12,"total":"24.30"}`, string(store.lastParams.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "24.30", decoded["total"])
}

func TestRecordDoesNotNotify(t *testing.T) {
	txStore := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{notifier}}

	ev, err := bus.Record(context.Background(), txStore, events.TopicTransactionCanceled, 4, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{}`, string(ev.Payload))
	require.Empty(t, notifier.events)

	require.NoError(t, bus.Publish(context.Background(), ev))
	require.Len(t, notifier.events, 1)
}

func TestRecordValidatesInput(t *testing.T) {
	bus := events.Bus{}
	store := &stubStore{}

	_, err := bus.Record(context.Background(), store, " ", 1, nil)
	require.Error(t, err)
	_, err = bus.Record(context.Background(), store, events.TopicTransactionHeld, 0, nil)
	require.Error(t, err)
	_, err = bus.Record(context.Background(), store, events.TopicTransactionHeld, 1, "not json")
	require.Error(t, err)

	store.err = errors.New("db down")
	_, err = bus.Record(context.Background(), store, events.TopicTransactionHeld, 1, nil)
	require.ErrorContains(t, err, "db down")
}

func TestPublishJoinsNotifierErrors(t *testing.T) {
	failing := &captureNotifier{err: errors.New("smtp down")}
	ok := &captureNotifier{}
	bus := events.Bus{Notifiers: []events.Notifier{failing, nil, ok}}

	err := bus.Publish(context.Background(), dbgen.DomainEvent{ID: 1, Topic: events.TopicTransactionRestocked, AggregateID: 2, Payload: []byte("{}")})
	require.ErrorContains(t, err, "smtp down")
	require.Len(t, ok.events, 1)
}

func TestLogNotifierFiltersTopics(t *testing.T) {
	var buf bytes.Buffer
	n := events.LogNotifier{
		Logger: zerolog.New(&buf),
		Topics: map[string]bool{events.TopicTransactionCompleted: true},
	}
	require.NoError(t, n.Notify(context.Background(), dbgen.DomainEvent{ID: 1, Topic: events.TopicTransactionHeld, AggregateID: 3, Payload: []byte("{}")}))
	require.Zero(t, buf.Len())

	require.NoError(t, n.Notify(context.Background(), dbgen.DomainEvent{ID: 2, Topic: events.TopicTransactionCompleted, AggregateID: 3, Payload: []byte(`{"total":"1.00"}`)}))
	require.Contains(t, buf.String(), `"topic":"transaction.completed"`)
	require.Contains(t, buf.String(), `"total":"1.00"`)
}
