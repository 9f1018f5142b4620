package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/communityos/occurrence-service/internal/domain"
)

type Service struct {
	regs  RegistrationRepo
	occs  OccurrenceReader
	sync  AttendeeSync
	cache Cache
	clock Clock

	ttlCounts time.Duration
}

func New(
	regs RegistrationRepo,
	occs OccurrenceReader,
	clock Clock,
	sync AttendeeSync,
	cache Cache,
	ttlCounts time.Duration,
) *Service {
	if ttlCounts == 0 {
		ttlCounts = 30 * time.Second
	}
	return &Service{
		regs:      regs,
		occs:      occs,
		sync:      sync,
		cache:     cache,
		clock:     clock,
		ttlCounts: ttlCounts,
	}
}

func cacheKeyCount(occurrenceID string) string {
	return fmt.Sprintf("registration:count:%s", occurrenceID)
}

type AddCmd struct {
	OccurrenceID string
	UserID       string
	UserEmail    string
	UserName     string
	GuestCount   int
}

// Add registers a user for one occurrence. Repeating the call refreshes
// the row instead of erroring.
func (s *Service) Add(ctx context.Context, cmd AddCmd) (*domain.Registration, error) {
	if strings.TrimSpace(cmd.UserID) == "" {
		return nil, domain.ErrValidation("user_id is required")
	}
	if cmd.GuestCount < 0 {
		return nil, domain.ErrValidation("guest_count must be >= 0")
	}

	o, err := s.occs.GetByID(ctx, cmd.OccurrenceID)
	if err != nil {
		return nil, err
	}
	if o.IsDeleted() {
		return nil, domain.ErrNotFound("occurrence not found")
	}

	now := s.clock.Now().UTC()
	r := &domain.Registration{
		OccurrenceID: o.ID,
		UserID:       cmd.UserID,
		Status:       domain.RegistrationRegistered,
		GuestCount:   cmd.GuestCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.regs.Upsert(ctx, r); err != nil {
		return nil, err
	}

	s.invalidateCount(ctx, o.ID)

	if s.shouldSyncAttendees(o) && cmd.UserEmail != "" {
		s.sync.DispatchAttendeeAdd(o, cmd.UserEmail, cmd.UserName)
	}
	return r, nil
}

// Cancel removes an RSVP and reports whether one existed.
func (s *Service) Cancel(ctx context.Context, occurrenceID, userID, userEmail string) (bool, error) {
	o, err := s.occs.GetByID(ctx, occurrenceID)
	if err != nil {
		return false, err
	}

	existed, err := s.regs.Delete(ctx, o.ID, userID)
	if err != nil {
		return false, err
	}
	if !existed {
		return false, nil
	}

	s.invalidateCount(ctx, o.ID)

	if s.shouldSyncAttendees(o) && userEmail != "" {
		s.sync.DispatchAttendeeRemove(o, userEmail)
	}
	return true, nil
}

// GetStatus returns the user's registration, or nil when there is none.
func (s *Service) GetStatus(ctx context.Context, occurrenceID, userID string) (*domain.Registration, error) {
	r, err := s.regs.Get(ctx, occurrenceID, userID)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) && appErr.Code == domain.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// Count serves the attendance read path through a short-lived cache.
func (s *Service) Count(ctx context.Context, occurrenceID string) (int, error) {
	key := cacheKeyCount(occurrenceID)

	if s.cache != nil {
		var cached int
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found {
			return cached, nil
		}
	}

	n, err := s.regs.Count(ctx, occurrenceID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, n, s.ttlCounts); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return n, nil
}

// RemoveUser cancels every RSVP a user holds. Driven by membership
// revocation events, not by the HTTP surface.
func (s *Service) RemoveUser(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, domain.ErrValidation("user_id is required")
	}
	n, err := s.regs.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		zlog.Info().Str("user_id", userID).Int("removed", n).Msg("registrations removed for user")
	}
	return n, nil
}

func (s *Service) shouldSyncAttendees(o *domain.Occurrence) bool {
	return s.sync != nil &&
		o.Visibility == domain.VisibilityMemberOnly &&
		o.ExternalCalendarID != nil && *o.ExternalCalendarID != ""
}

func (s *Service) invalidateCount(ctx context.Context, occurrenceID string) {
	if s.cache == nil {
		return
	}
	key := cacheKeyCount(occurrenceID)
	if err := s.cache.Delete(ctx, key); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}
