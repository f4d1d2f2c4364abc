package domain

import "time"

// Routing keys for domain events.
const (
	EventInteractionRecorded = "interaction.recorded"
	EventRankingRefreshed    = "ranking.refreshed"
	EventBadgeAssigned       = "badge.assigned"
	EventBackupCreated       = "backup.created"
)

// EventEnvelope is the JSON body published to the broker.
type EventEnvelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}
