package occurrence

import (
	"context"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
	"github.com/communityos/occurrence-service/internal/recurrence"
)

type Clock interface {
	Now() time.Time
}

// Generator expands a recurrence spec into concrete windows.
type Generator interface {
	Generate(templateStart, templateEnd time.Time, spec domain.RecurrenceSpec) []recurrence.Window
}

type OccurrenceRepo interface {
	Insert(ctx context.Context, o *domain.Occurrence) error
	GetByID(ctx context.Context, id string) (*domain.Occurrence, error)
	ListBySeriesID(ctx context.Context, seriesID string) ([]*domain.Occurrence, error)
	Update(ctx context.Context, o *domain.Occurrence) error

	WithTx(ctx context.Context, fn func(tr TxOccurrenceRepo) error) error
}

// TxOccurrenceRepo is the transactional view used for multi-row writes:
// a series batch and its outbox message commit or roll back together.
type TxOccurrenceRepo interface {
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Occurrence, error)
	InsertBatch(ctx context.Context, rows []*domain.Occurrence) error
	Update(ctx context.Context, o *domain.Occurrence) error
	SoftDelete(ctx context.Context, id string, now time.Time) (bool, error)
	InsertOutbox(ctx context.Context, msg OutboxMessage) error
}

// CalendarSync is the fire-and-forget bridge to the external calendar.
// Dispatches return immediately; failures are logged inside the adapter
// and never reach the local operation.
type CalendarSync interface {
	DispatchCreate(rows []*domain.Occurrence, spec *domain.RecurrenceSpec)
	DispatchUpdate(o *domain.Occurrence)
	DispatchDelete(o *domain.Occurrence)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher pushes outbox rows to the broker. messageID must be
// stable across retries.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

type OutboxMessage struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}
