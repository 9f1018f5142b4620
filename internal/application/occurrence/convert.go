package occurrence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/communityos/occurrence-service/internal/domain"
	appctx "github.com/communityos/occurrence-service/internal/pkg/context"
)

// TemplateOverride carries optional replacements for the shared fields
// when an existing occurrence is converted into a series. Nil means
// "keep the value from the original row".
type TemplateOverride struct {
	Title                   *string
	Description             *string
	Location                *string
	Visibility              *domain.Visibility
	EventType               *domain.EventType
	ExternalRegistrationURL *string
	ImageURL                *string
}

func (ov TemplateOverride) mergeInto(tpl domain.Template) domain.Template {
	if ov.Title != nil {
		tpl.Title = *ov.Title
	}
	if ov.Description != nil {
		tpl.Description = *ov.Description
	}
	if ov.Location != nil {
		tpl.Location = *ov.Location
	}
	if ov.Visibility != nil {
		tpl.Visibility = *ov.Visibility
	}
	if ov.EventType != nil {
		tpl.EventType = *ov.EventType
	}
	if ov.ExternalRegistrationURL != nil {
		tpl.ExternalRegistrationURL = *ov.ExternalRegistrationURL
	}
	if ov.ImageURL != nil {
		tpl.ImageURL = *ov.ImageURL
	}
	return tpl
}

type ConvertCmd struct {
	OccurrenceID string
	ActorID      string
	ActorRole    string

	Override   TemplateOverride
	StartTime  time.Time
	EndTime    time.Time
	Recurrence domain.RecurrenceSpec
}

// ConvertToSeries turns a standalone occurrence into the first member of
// a new series. The original row keeps its id and takes the first
// generated window; the remaining windows become new sibling rows.
func (s *Service) ConvertToSeries(ctx context.Context, cmd ConvertCmd) (*domain.Occurrence, error) {
	now := s.clock.Now().UTC()

	spec := cmd.Recurrence.Normalized()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if cmd.StartTime.IsZero() || cmd.EndTime.IsZero() || !cmd.EndTime.After(cmd.StartTime) {
		return nil, domain.ErrValidation("end_time must be after start_time")
	}

	var (
		first    *domain.Occurrence
		siblings []*domain.Occurrence
	)

	err := s.repo.WithTx(ctx, func(r TxOccurrenceRepo) error {
		existing, err := r.GetByIDForUpdate(ctx, cmd.OccurrenceID)
		if err != nil {
			return err
		}
		if existing.IsDeleted() {
			return domain.ErrNotFound("occurrence not found")
		}
		if !canManage(cmd.ActorID, cmd.ActorRole, existing.CreatedBy) {
			return domain.ErrForbidden("not allowed")
		}
		if existing.IsSeriesMember() {
			return domain.ErrConflict("occurrence already belongs to a series")
		}

		tpl := cmd.Override.mergeInto(existing.TemplateFields())

		windows := s.gen.Generate(cmd.StartTime, cmd.EndTime, spec)
		if len(windows) == 0 {
			return domain.ErrValidation("no occurrences could be generated for this recurrence")
		}

		seriesID := uuid.NewString()

		// The original row becomes the first member in place.
		if err := existing.ApplyTemplate(tpl, now); err != nil {
			return err
		}
		existing.SeriesID = &seriesID
		existing.StartTime = windows[0].Start
		existing.EndTime = windows[0].End
		if err := r.Update(ctx, existing); err != nil {
			return err
		}

		rest := make([]*domain.Occurrence, 0, len(windows)-1)
		for _, w := range windows[1:] {
			o, err := domain.NewOccurrence(existing.CreatedBy, tpl, w.Start, w.End, now)
			if err != nil {
				return err
			}
			o.SeriesID = &seriesID
			rest = append(rest, o)
		}
		if len(rest) > 0 {
			if err := r.InsertBatch(ctx, rest); err != nil {
				return err
			}
		}

		messageID := uuid.NewString()
		env := DomainEventEnvelope[SeriesConvertedPayload]{
			Version:    EventVersion,
			Producer:   EventProducer,
			MessageID:  messageID,
			TraceID:    appctx.RequestID(ctx),
			OccurredAt: now,
			Payload: SeriesConvertedPayload{
				SeriesID:        seriesID,
				FirstID:         existing.ID,
				OccurrenceCount: 1 + len(rest),
				ActorRole:       cmd.ActorRole,
			},
		}
		body, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if err := r.InsertOutbox(ctx, OutboxMessage{
			MessageID:  messageID,
			RoutingKey: "series.converted",
			Body:       body,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		first = existing
		siblings = rest
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Cache Invalidation (best-effort, after commit)
	s.invalidate(ctx, cacheKeyOccurrenceDetails(first.ID))

	if s.sync != nil {
		all := append([]*domain.Occurrence{first}, siblings...)
		s.sync.DispatchCreate(all, &spec)
	}
	return first, nil
}
