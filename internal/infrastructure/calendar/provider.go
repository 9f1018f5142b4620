package calendar

import (
	"context"
	"time"
)

// EventPayload is the provider-agnostic shape of a remote calendar event.
// Recurrence carries the rule string for recurring events; empty for
// standalone ones.
type EventPayload struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Recurrence  string
}

// Provider is the remote calendar surface. Every call may fail or be
// unconfigured; callers treat "" / false results as "nothing happened
// remotely" and move on.
type Provider interface {
	Create(ctx context.Context, p EventPayload) (string, error)
	Update(ctx context.Context, remoteID string, p EventPayload) (bool, error)
	Delete(ctx context.Context, remoteID string) (bool, error)
	AddAttendee(ctx context.Context, remoteID, email, name string) (bool, error)
	RemoveAttendee(ctx context.Context, remoteID, email string) (bool, error)
}

// Disabled is the provider used when no credentials are configured.
// All calls are silent no-ops.
type Disabled struct{}

func (Disabled) Create(ctx context.Context, p EventPayload) (string, error) { return "", nil }
func (Disabled) Update(ctx context.Context, remoteID string, p EventPayload) (bool, error) {
	return false, nil
}
func (Disabled) Delete(ctx context.Context, remoteID string) (bool, error) { return false, nil }
func (Disabled) AddAttendee(ctx context.Context, remoteID, email, name string) (bool, error) {
	return false, nil
}
func (Disabled) RemoveAttendee(ctx context.Context, remoteID, email string) (bool, error) {
	return false, nil
}
