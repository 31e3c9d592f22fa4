package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/backend-kasir/internal/db/gen"
)

// LogNotifier writes every published event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
	// Topics restricts logging to the listed topics when non-empty.
	Topics map[string]bool
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	if len(n.Topics) > 0 && !n.Topics[event.Topic] {
		return nil
	}
	n.Logger.Info().
		Int64("event_id", event.ID).
		Str("topic", event.Topic).
		Int64("aggregate_id", event.AggregateID).
		RawJSON("payload", json.RawMessage(event.Payload)).
		Msg("domain_event")
	return nil
}
