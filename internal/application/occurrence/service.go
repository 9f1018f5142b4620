package occurrence

import (
	"context"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
)

type Service struct {
	repo  OccurrenceRepo
	gen   Generator
	sync  CalendarSync
	cache Cache
	clock Clock

	ttlDetails time.Duration
}

func New(
	repo OccurrenceRepo,
	gen Generator,
	clock Clock,
	sync CalendarSync,
	cache Cache,
	ttlDetails time.Duration,
) *Service {
	if ttlDetails == 0 {
		ttlDetails = 5 * time.Minute
	}

	return &Service{
		repo:       repo,
		gen:        gen,
		sync:       sync,
		cache:      cache,
		clock:      clock,
		ttlDetails: ttlDetails,
	}
}

func isModerator(role string) bool { return role == "moderator" }
func isAdmin(role string) bool     { return role == "admin" }

func canManage(actorID, actorRole, createdBy string) bool {
	if isAdmin(actorRole) || isModerator(actorRole) {
		return true
	}
	return strings.TrimSpace(actorID) != "" && actorID == createdBy
}

// invalidate drops cache keys best-effort after a committed write.
func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil || len(keys) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		zlog.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
	}
}
