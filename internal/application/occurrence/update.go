package occurrence

import (
	"context"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
)

type UpdateCmd struct {
	OccurrenceID string
	ActorID      string
	ActorRole    string

	Title       *string
	Description *string
	Location    *string
	ImageURL    *string
	Visibility  *domain.Visibility
	StartTime   *time.Time
	EndTime     *time.Time
}

// Update edits one row only. Editing a series member never cascades to
// its siblings.
func (s *Service) Update(ctx context.Context, cmd UpdateCmd) (*domain.Occurrence, error) {
	o, err := s.repo.GetByID(ctx, cmd.OccurrenceID)
	if err != nil {
		return nil, err
	}
	if o.IsDeleted() {
		return nil, domain.ErrNotFound("occurrence not found")
	}
	if !canManage(cmd.ActorID, cmd.ActorRole, o.CreatedBy) {
		return nil, domain.ErrForbidden("not allowed")
	}

	now := s.clock.Now().UTC()
	if err := o.ApplyUpdate(cmd.Title, cmd.Description, cmd.Location, cmd.ImageURL, cmd.Visibility, cmd.StartTime, cmd.EndTime, now); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, err
	}

	s.invalidate(ctx, cacheKeyOccurrenceDetails(o.ID))

	if s.sync != nil && o.ExternalCalendarID != nil {
		s.sync.DispatchUpdate(o)
	}
	return o, nil
}
