package calendar

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/communityos/occurrence-service/internal/domain"
)

// RemoteIDWriter persists the remote calendar id back onto a local row.
// Each row of a series is written individually.
type RemoteIDWriter interface {
	SetExternalCalendarID(ctx context.Context, id, remoteID string, now time.Time) error
}

type Clock interface {
	Now() time.Time
}

// Adapter bridges local occurrence writes to the remote calendar.
// Every dispatch is fire-and-forget: the caller returns immediately and
// remote failures are logged, never surfaced. Local state stays
// authoritative; the remote calendar is a best-effort mirror.
type Adapter struct {
	provider Provider
	writer   RemoteIDWriter
	clock    Clock
	timeout  time.Duration

	wg sync.WaitGroup
}

func NewAdapter(provider Provider, writer RemoteIDWriter, clock Clock, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Adapter{
		provider: provider,
		writer:   writer,
		clock:    clock,
		timeout:  timeout,
	}
}

// Wait blocks until in-flight dispatches finish. Used on shutdown and in
// tests.
func (a *Adapter) Wait() { a.wg.Wait() }

func (a *Adapter) dispatch(fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		fn(ctx)
	}()
}

func (a *Adapter) DispatchCreate(rows []*domain.Occurrence, spec *domain.RecurrenceSpec) {
	if len(rows) == 0 {
		return
	}
	a.dispatch(func(ctx context.Context) { a.syncCreate(ctx, rows, spec) })
}

func (a *Adapter) DispatchUpdate(o *domain.Occurrence) {
	a.dispatch(func(ctx context.Context) { a.syncUpdate(ctx, o) })
}

func (a *Adapter) DispatchDelete(o *domain.Occurrence) {
	a.dispatch(func(ctx context.Context) { a.syncDelete(ctx, o) })
}

func (a *Adapter) DispatchAttendeeAdd(o *domain.Occurrence, email, name string) {
	a.dispatch(func(ctx context.Context) { a.syncAttendeeAdd(ctx, o, email, name) })
}

func (a *Adapter) DispatchAttendeeRemove(o *domain.Occurrence, email string) {
	a.dispatch(func(ctx context.Context) { a.syncAttendeeRemove(ctx, o, email) })
}

// syncCreate creates ONE remote event for the whole batch. A series of N
// local rows maps to a single remote recurring event; the returned remote
// id is written back onto every row individually.
func (a *Adapter) syncCreate(ctx context.Context, rows []*domain.Occurrence, spec *domain.RecurrenceSpec) {
	first := rows[0]
	p := EventPayload{
		Title:       first.Title,
		Description: first.Description,
		Location:    first.Location,
		Start:       first.StartTime,
		End:         first.EndTime,
	}
	if spec != nil {
		p.Recurrence = BuildRule(*spec)
	}

	remoteID, err := a.provider.Create(ctx, p)
	if err != nil {
		zlog.Warn().Err(err).Str("occurrence_id", first.ID).Msg("calendar create failed")
		return
	}
	if remoteID == "" {
		return
	}

	now := a.clock.Now()
	for _, o := range rows {
		if err := a.writer.SetExternalCalendarID(ctx, o.ID, remoteID, now); err != nil {
			zlog.Warn().Err(err).
				Str("occurrence_id", o.ID).
				Str("remote_id", remoteID).
				Msg("remote id write-back failed")
		}
	}
}

func (a *Adapter) syncUpdate(ctx context.Context, o *domain.Occurrence) {
	if o.ExternalCalendarID == nil || *o.ExternalCalendarID == "" {
		return
	}
	ok, err := a.provider.Update(ctx, *o.ExternalCalendarID, EventPayload{
		Title:       o.Title,
		Description: o.Description,
		Location:    o.Location,
		Start:       o.StartTime,
		End:         o.EndTime,
	})
	if err != nil {
		zlog.Warn().Err(err).Str("occurrence_id", o.ID).Msg("calendar update failed")
		return
	}
	if !ok {
		zlog.Debug().Str("occurrence_id", o.ID).Msg("calendar update skipped")
	}
}

// syncDelete removes the remote event for standalone occurrences only.
// A series member shares its remote recurring event with its siblings,
// so deleting one local row must leave the remote event alone.
func (a *Adapter) syncDelete(ctx context.Context, o *domain.Occurrence) {
	if o.IsSeriesMember() {
		zlog.Debug().Str("occurrence_id", o.ID).Msg("calendar delete suppressed for series member")
		return
	}
	if o.ExternalCalendarID == nil || *o.ExternalCalendarID == "" {
		return
	}
	if _, err := a.provider.Delete(ctx, *o.ExternalCalendarID); err != nil {
		zlog.Warn().Err(err).Str("occurrence_id", o.ID).Msg("calendar delete failed")
	}
}

func (a *Adapter) syncAttendeeAdd(ctx context.Context, o *domain.Occurrence, email, name string) {
	if o.ExternalCalendarID == nil || *o.ExternalCalendarID == "" {
		return
	}
	if _, err := a.provider.AddAttendee(ctx, *o.ExternalCalendarID, email, name); err != nil {
		zlog.Warn().Err(err).Str("occurrence_id", o.ID).Msg("calendar attendee add failed")
	}
}

func (a *Adapter) syncAttendeeRemove(ctx context.Context, o *domain.Occurrence, email string) {
	if o.ExternalCalendarID == nil || *o.ExternalCalendarID == "" {
		return
	}
	if _, err := a.provider.RemoveAttendee(ctx, *o.ExternalCalendarID, email); err != nil {
		zlog.Warn().Err(err).Str("occurrence_id", o.ID).Msg("calendar attendee remove failed")
	}
}
