package eventing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

// Publisher is satisfied by the rabbitmq publisher and the noop publisher.
type Publisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

// Emit publishes a domain event best-effort. Failures are logged, never returned:
// the write that produced the event has already been committed.
func Emit(ctx context.Context, pub Publisher, routingKey string, payload any, at time.Time) {
	if pub == nil {
		return
	}

	env := domain.EventEnvelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: at.UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		zlog.Warn().Err(err).Str("routing_key", routingKey).Msg("event marshal failed")
		return
	}

	if err := pub.PublishEvent(ctx, routingKey, env.ID, body); err != nil {
		zlog.Warn().Err(err).
			Str("routing_key", routingKey).
			Str("message_id", env.ID).
			Msg("event publish failed")
	}
}
