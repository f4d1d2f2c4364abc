package memory

import (
	"context"

	zlog "github.com/rs/zerolog/log"
)

// NoopPublisher stands in for RabbitMQ when RABBIT_URL is empty.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishEvent(_ context.Context, routingKey, messageID string, body []byte) error {
	zlog.Debug().
		Str("routing_key", routingKey).
		Str("message_id", messageID).
		Int("bytes", len(body)).
		Msg("noop publish")
	return nil
}
