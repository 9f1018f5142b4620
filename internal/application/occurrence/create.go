package occurrence

import (
	"context"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
)

type CreateCmd struct {
	ActorID   string
	ActorRole string

	Template  domain.Template
	StartTime time.Time
	EndTime   time.Time
}

// CreateSingle persists one standalone occurrence and dispatches a
// best-effort calendar create for it.
func (s *Service) CreateSingle(ctx context.Context, cmd CreateCmd) (*domain.Occurrence, error) {
	now := s.clock.Now().UTC()

	o, err := domain.NewOccurrence(cmd.ActorID, cmd.Template, cmd.StartTime, cmd.EndTime, now)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, o); err != nil {
		return nil, err
	}

	if s.sync != nil {
		s.sync.DispatchCreate([]*domain.Occurrence{o}, nil)
	}
	return o, nil
}
