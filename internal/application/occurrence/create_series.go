package occurrence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/communityos/occurrence-service/internal/domain"
	appctx "github.com/communityos/occurrence-service/internal/pkg/context"
)

type CreateSeriesCmd struct {
	ActorID   string
	ActorRole string

	Template   domain.Template
	StartTime  time.Time
	EndTime    time.Time
	Recurrence domain.RecurrenceSpec
}

// CreateSeries expands the recurrence into concrete windows and persists
// one row per window under a shared series id. The batch and its outbox
// message commit atomically; the calendar dispatch happens after commit.
func (s *Service) CreateSeries(ctx context.Context, cmd CreateSeriesCmd) (*domain.Occurrence, error) {
	now := s.clock.Now().UTC()

	spec := cmd.Recurrence.Normalized()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	// Validate the template once up front; per-row construction below
	// reuses the same fields.
	if _, err := domain.NewOccurrence(cmd.ActorID, cmd.Template, cmd.StartTime, cmd.EndTime, now); err != nil {
		return nil, err
	}

	windows := s.gen.Generate(cmd.StartTime, cmd.EndTime, spec)
	if len(windows) == 0 {
		return nil, domain.ErrValidation("no occurrences could be generated for this recurrence")
	}

	seriesID := uuid.NewString()
	rows := make([]*domain.Occurrence, 0, len(windows))
	for _, w := range windows {
		o, err := domain.NewOccurrence(cmd.ActorID, cmd.Template, w.Start, w.End, now)
		if err != nil {
			return nil, err
		}
		o.SeriesID = &seriesID
		rows = append(rows, o)
	}

	err := s.repo.WithTx(ctx, func(r TxOccurrenceRepo) error {
		if err := r.InsertBatch(ctx, rows); err != nil {
			return err
		}

		messageID := uuid.NewString()
		env := DomainEventEnvelope[SeriesCreatedPayload]{
			Version:    EventVersion,
			Producer:   EventProducer,
			MessageID:  messageID,
			TraceID:    appctx.RequestID(ctx),
			OccurredAt: now,
			Payload: SeriesCreatedPayload{
				SeriesID:        seriesID,
				FirstID:         rows[0].ID,
				CreatedBy:       cmd.ActorID,
				Title:           rows[0].Title,
				Frequency:       string(spec.Frequency),
				Interval:        spec.Interval,
				OccurrenceCount: len(rows),
				FirstStart:      rows[0].StartTime,
				LastStart:       rows[len(rows)-1].StartTime,
			},
		}
		body, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return r.InsertOutbox(ctx, OutboxMessage{
			MessageID:  messageID,
			RoutingKey: "series.created",
			Body:       body,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.sync != nil {
		s.sync.DispatchCreate(rows, &spec)
	}
	return rows[0], nil
}
