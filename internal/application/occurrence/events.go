package occurrence

import (
	"time"
)

const (
	EventVersion  = 1
	EventProducer = "occurrence-service"
)

// DomainEventEnvelope is the stable contract for all domain events
// emitted by occurrence-service. Consumers should rely on:
// version/producer/message_id/occurred_at + payload.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

// SeriesCreatedPayload is the business payload for routing key: series.created
type SeriesCreatedPayload struct {
	SeriesID        string    `json:"series_id"`
	FirstID         string    `json:"first_occurrence_id"`
	CreatedBy       string    `json:"created_by"`
	Title           string    `json:"title"`
	Frequency       string    `json:"frequency"`
	Interval        int       `json:"interval"`
	OccurrenceCount int       `json:"occurrence_count"`
	FirstStart      time.Time `json:"first_start_time"`
	LastStart       time.Time `json:"last_start_time"`
}

// SeriesConvertedPayload is the business payload for routing key: series.converted
type SeriesConvertedPayload struct {
	SeriesID        string `json:"series_id"`
	FirstID         string `json:"first_occurrence_id"`
	OccurrenceCount int    `json:"occurrence_count"`
	ActorRole       string `json:"actor_role,omitempty"`
}

// OccurrenceDeletedPayload is the business payload for routing key: occurrence.deleted
type OccurrenceDeletedPayload struct {
	OccurrenceID string  `json:"occurrence_id"`
	SeriesID     *string `json:"series_id,omitempty"`
	DeletedBy    string  `json:"deleted_by"`
	ActorRole    string  `json:"actor_role,omitempty"`
}
