package occurrence

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/communityos/occurrence-service/internal/domain"
)

func (s *Service) Get(ctx context.Context, id string) (*domain.Occurrence, error) {
	// 1. Try Cache
	key := cacheKeyOccurrenceDetails(id)
	var cached domain.Occurrence

	if s.cache != nil {
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found {
			zlog.Debug().Str("key", key).Msg("cache hit")
			return &cached, nil
		} else {
			zlog.Debug().Str("key", key).Msg("cache miss")
		}
	}

	// 2. DB Query
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.IsDeleted() {
		return nil, domain.ErrNotFound("occurrence not found")
	}

	// 3. Set Cache (Best Effort)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, o, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}

	return o, nil
}

// GetSeries returns all live members of a series ordered by start time.
func (s *Service) GetSeries(ctx context.Context, seriesID string) ([]*domain.Occurrence, error) {
	rows, err := s.repo.ListBySeriesID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound("series not found")
	}
	return rows, nil
}
