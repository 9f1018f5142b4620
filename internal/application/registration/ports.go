package registration

import (
	"context"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type RegistrationRepo interface {
	// Upsert is idempotent per (occurrence_id, user_id).
	Upsert(ctx context.Context, r *domain.Registration) error
	// Delete reports whether a record existed.
	Delete(ctx context.Context, occurrenceID, userID string) (bool, error)
	Get(ctx context.Context, occurrenceID, userID string) (*domain.Registration, error)
	Count(ctx context.Context, occurrenceID string) (int, error)
	// DeleteAllForUser returns how many rows were removed.
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// OccurrenceReader is the read-only slice of the occurrence store this
// ledger needs: existence checks and the fields that drive attendee sync.
type OccurrenceReader interface {
	GetByID(ctx context.Context, id string) (*domain.Occurrence, error)
}

// AttendeeSync mirrors RSVPs onto the remote calendar event, best-effort
// and only for member_only occurrences that already have a remote id.
type AttendeeSync interface {
	DispatchAttendeeAdd(o *domain.Occurrence, email, name string)
	DispatchAttendeeRemove(o *domain.Occurrence, email string)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
