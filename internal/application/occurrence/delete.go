package occurrence

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/communityos/occurrence-service/internal/domain"
	appctx "github.com/communityos/occurrence-service/internal/pkg/context"
)

// Delete soft-deletes a single row. Series siblings are untouched; the
// calendar dispatch for series members is suppressed inside the sync
// adapter so the shared remote event survives.
func (s *Service) Delete(ctx context.Context, occurrenceID, actorID, actorRole string) error {
	var deleted *domain.Occurrence

	err := s.repo.WithTx(ctx, func(r TxOccurrenceRepo) error {
		o, err := r.GetByIDForUpdate(ctx, occurrenceID)
		if err != nil {
			return err
		}
		if o.IsDeleted() {
			return domain.ErrNotFound("occurrence not found")
		}
		if !canManage(actorID, actorRole, o.CreatedBy) {
			return domain.ErrForbidden("not allowed")
		}

		now := s.clock.Now().UTC()
		ok, err := r.SoftDelete(ctx, o.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound("occurrence not found")
		}

		messageID := uuid.NewString()
		env := DomainEventEnvelope[OccurrenceDeletedPayload]{
			Version:    EventVersion,
			Producer:   EventProducer,
			MessageID:  messageID,
			TraceID:    appctx.RequestID(ctx),
			OccurredAt: now,
			Payload: OccurrenceDeletedPayload{
				OccurrenceID: o.ID,
				SeriesID:     o.SeriesID,
				DeletedBy:    actorID,
				ActorRole:    actorRole,
			},
		}
		body, err := json.Marshal(env)
		if err != nil {
			return err
		}
		if err := r.InsertOutbox(ctx, OutboxMessage{
			MessageID:  messageID,
			RoutingKey: "occurrence.deleted",
			Body:       body,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		deleted = o
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, cacheKeyOccurrenceDetails(deleted.ID))

	if s.sync != nil {
		s.sync.DispatchDelete(deleted)
	}
	return nil
}
