package occurrence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/communityos/occurrence-service/internal/domain"
	"github.com/communityos/occurrence-service/internal/recurrence"
)

// --- Mocks & Helpers ---

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type mockCache struct {
	store map[string]any
}

func newMockCache() *mockCache { return &mockCache{store: make(map[string]any)} }

func (m *mockCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}
func (m *mockCache) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	m.store[key] = val
	return nil
}
func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.store, k)
	}
	return nil
}

// memRepo backs both the plain and transactional repo views; the fake
// "transaction" is just the same map, which is enough for service-level
// behavior tests.
type memRepo struct {
	byID   map[string]*domain.Occurrence
	outbox []OutboxMessage
}

func newMemRepo() *memRepo { return &memRepo{byID: map[string]*domain.Occurrence{}} }

func (m *memRepo) Insert(ctx context.Context, o *domain.Occurrence) error {
	m.byID[o.ID] = o
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound("occurrence not found")
	}
	return o, nil
}

func (m *memRepo) ListBySeriesID(ctx context.Context, seriesID string) ([]*domain.Occurrence, error) {
	var out []*domain.Occurrence
	for _, o := range m.byID {
		if o.SeriesID != nil && *o.SeriesID == seriesID && !o.IsDeleted() {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memRepo) Update(ctx context.Context, o *domain.Occurrence) error {
	m.byID[o.ID] = o
	return nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(tr TxOccurrenceRepo) error) error {
	return fn(m)
}

func (m *memRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Occurrence, error) {
	return m.GetByID(ctx, id)
}

func (m *memRepo) InsertBatch(ctx context.Context, rows []*domain.Occurrence) error {
	for _, o := range rows {
		m.byID[o.ID] = o
	}
	return nil
}

func (m *memRepo) SoftDelete(ctx context.Context, id string, now time.Time) (bool, error) {
	o, ok := m.byID[id]
	if !ok || o.IsDeleted() {
		return false, nil
	}
	d := now
	o.DeletedAt = &d
	return true, nil
}

func (m *memRepo) InsertOutbox(ctx context.Context, msg OutboxMessage) error {
	m.outbox = append(m.outbox, msg)
	return nil
}

// recordingSync captures dispatches so tests can assert which rows hit
// the calendar path without doing any real work.
type recordingSync struct {
	created [][]*domain.Occurrence
	updated []*domain.Occurrence
	deleted []*domain.Occurrence
}

func (r *recordingSync) DispatchCreate(rows []*domain.Occurrence, spec *domain.RecurrenceSpec) {
	r.created = append(r.created, rows)
}
func (r *recordingSync) DispatchUpdate(o *domain.Occurrence) { r.updated = append(r.updated, o) }
func (r *recordingSync) DispatchDelete(o *domain.Occurrence) { r.deleted = append(r.deleted, o) }

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tt, err := time.Parse(time.RFC3339, s)
	assert.NoError(t, err)
	return tt.UTC()
}

func newTestService(repo *memRepo, sync *recordingSync, now time.Time) *Service {
	gen := recurrence.NewGenerator(recurrence.DefaultBounds())
	return New(repo, gen, fakeClock{t: now}, sync, newMockCache(), 0)
}

func validTemplate() domain.Template {
	return domain.Template{Title: "Weekly standup", Location: "Room 2"}
}

// --- Test Cases ---

func TestService_CreateSingle(t *testing.T) {
	now := mustTime(t, "2026-01-01T09:00:00Z")
	repo := newMemRepo()
	sync := &recordingSync{}
	svc := newTestService(repo, sync, now)

	t.Run("persists_and_dispatches", func(t *testing.T) {
		o, err := svc.CreateSingle(context.Background(), CreateCmd{
			ActorID:   "user_A",
			Template:  validTemplate(),
			StartTime: mustTime(t, "2026-02-01T10:00:00Z"),
			EndTime:   mustTime(t, "2026-02-01T11:00:00Z"),
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, o.ID)
		assert.Nil(t, o.SeriesID)
		assert.Len(t, sync.created, 1)
		assert.Len(t, sync.created[0], 1)
	})

	t.Run("rejects_invalid_window", func(t *testing.T) {
		_, err := svc.CreateSingle(context.Background(), CreateCmd{
			ActorID:   "user_A",
			Template:  validTemplate(),
			StartTime: mustTime(t, "2026-02-01T11:00:00Z"),
			EndTime:   mustTime(t, "2026-02-01T10:00:00Z"),
		})
		assert.Error(t, err)
		var appErr *domain.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeValidation, appErr.Code)
	})
}

func TestService_CreateSeries(t *testing.T) {
	now := mustTime(t, "2026-01-01T09:00:00Z")

	t.Run("all_rows_share_series_id_and_template", func(t *testing.T) {
		repo := newMemRepo()
		sync := &recordingSync{}
		svc := newTestService(repo, sync, now)

		end := mustTime(t, "2026-01-22T00:00:00Z")
		first, err := svc.CreateSeries(context.Background(), CreateSeriesCmd{
			ActorID:   "user_A",
			Template:  validTemplate(),
			StartTime: mustTime(t, "2026-01-05T14:00:00Z"),
			EndTime:   mustTime(t, "2026-01-05T15:00:00Z"),
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqWeekly,
				Interval:  1,
				EndDate:   &end,
			},
		})
		assert.NoError(t, err)
		assert.NotNil(t, first.SeriesID)

		rows, err := svc.GetSeries(context.Background(), *first.SeriesID)
		assert.NoError(t, err)
		assert.Len(t, rows, 3) // Mondays Jan 5, 12, 19
		for _, o := range rows {
			assert.Equal(t, *first.SeriesID, *o.SeriesID)
			assert.Equal(t, "Weekly standup", o.Title)
			assert.Equal(t, "user_A", o.CreatedBy)
		}
	})

	t.Run("writes_outbox_in_same_tx", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, &recordingSync{}, now)

		end := mustTime(t, "2026-01-10T00:00:00Z")
		_, err := svc.CreateSeries(context.Background(), CreateSeriesCmd{
			ActorID:   "user_A",
			Template:  validTemplate(),
			StartTime: mustTime(t, "2026-01-05T14:00:00Z"),
			EndTime:   mustTime(t, "2026-01-05T15:00:00Z"),
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqDaily,
				Interval:  1,
				EndDate:   &end,
			},
		})
		assert.NoError(t, err)
		assert.Len(t, repo.outbox, 1)
		assert.Equal(t, "series.created", repo.outbox[0].RoutingKey)
		assert.NotEmpty(t, repo.outbox[0].MessageID)
	})

	t.Run("zero_windows_is_validation_error", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, &recordingSync{}, now)

		end := mustTime(t, "2026-01-01T00:00:00Z") // before start
		_, err := svc.CreateSeries(context.Background(), CreateSeriesCmd{
			ActorID:   "user_A",
			Template:  validTemplate(),
			StartTime: mustTime(t, "2026-02-05T14:00:00Z"),
			EndTime:   mustTime(t, "2026-02-05T15:00:00Z"),
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqWeekly,
				Interval:  1,
				EndDate:   &end,
			},
		})
		var appErr *domain.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeValidation, appErr.Code)
		assert.Empty(t, repo.byID)
		assert.Empty(t, repo.outbox)
	})
}

func TestService_ConvertToSeries(t *testing.T) {
	now := mustTime(t, "2026-01-01T09:00:00Z")

	seed := func(t *testing.T, repo *memRepo) *domain.Occurrence {
		t.Helper()
		o, err := domain.NewOccurrence("user_A", validTemplate(),
			mustTime(t, "2026-03-02T14:00:00Z"),
			mustTime(t, "2026-03-02T15:00:00Z"), now)
		assert.NoError(t, err)
		repo.byID[o.ID] = o
		return o
	}

	t.Run("original_row_keeps_its_id", func(t *testing.T) {
		repo := newMemRepo()
		sync := &recordingSync{}
		svc := newTestService(repo, sync, now)
		existing := seed(t, repo)

		end := mustTime(t, "2026-03-20T00:00:00Z")
		first, err := svc.ConvertToSeries(context.Background(), ConvertCmd{
			OccurrenceID: existing.ID,
			ActorID:      "user_A",
			StartTime:    existing.StartTime,
			EndTime:      existing.EndTime,
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqWeekly,
				Interval:  1,
				EndDate:   &end,
			},
		})
		assert.NoError(t, err)
		assert.Equal(t, existing.ID, first.ID)
		assert.NotNil(t, first.SeriesID)

		rows, err := svc.GetSeries(context.Background(), *first.SeriesID)
		assert.NoError(t, err)
		assert.Len(t, rows, 3) // Mondays Mar 2, 9, 16
		assert.Len(t, sync.created, 1)
		assert.Len(t, sync.created[0], 3)
	})

	t.Run("template_overrides_apply_to_all_members", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, &recordingSync{}, now)
		existing := seed(t, repo)

		end := mustTime(t, "2026-03-10T00:00:00Z")
		title := "Renamed series"
		first, err := svc.ConvertToSeries(context.Background(), ConvertCmd{
			OccurrenceID: existing.ID,
			ActorID:      "user_A",
			Override:     TemplateOverride{Title: &title},
			StartTime:    existing.StartTime,
			EndTime:      existing.EndTime,
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqWeekly,
				Interval:  1,
				EndDate:   &end,
			},
		})
		assert.NoError(t, err)
		rows, err := svc.GetSeries(context.Background(), *first.SeriesID)
		assert.NoError(t, err)
		for _, o := range rows {
			assert.Equal(t, "Renamed series", o.Title)
		}
	})

	t.Run("already_in_series_is_conflict", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, &recordingSync{}, now)
		existing := seed(t, repo)
		sid := "series_1"
		existing.SeriesID = &sid

		end := mustTime(t, "2026-03-20T00:00:00Z")
		_, err := svc.ConvertToSeries(context.Background(), ConvertCmd{
			OccurrenceID: existing.ID,
			ActorID:      "user_A",
			StartTime:    existing.StartTime,
			EndTime:      existing.EndTime,
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqWeekly,
				Interval:  1,
				EndDate:   &end,
			},
		})
		var appErr *domain.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeConflict, appErr.Code)
		assert.Empty(t, repo.outbox)
	})

	t.Run("non_owner_is_forbidden", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, &recordingSync{}, now)
		existing := seed(t, repo)

		end := mustTime(t, "2026-03-20T00:00:00Z")
		_, err := svc.ConvertToSeries(context.Background(), ConvertCmd{
			OccurrenceID: existing.ID,
			ActorID:      "user_B",
			ActorRole:    "user",
			StartTime:    existing.StartTime,
			EndTime:      existing.EndTime,
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqWeekly,
				Interval:  1,
				EndDate:   &end,
			},
		})
		var appErr *domain.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeForbidden, appErr.Code)
	})
}

func TestService_Update(t *testing.T) {
	now := mustTime(t, "2026-01-01T09:00:00Z")
	repo := newMemRepo()
	sync := &recordingSync{}
	svc := newTestService(repo, sync, now)

	o, err := domain.NewOccurrence("user_A", validTemplate(),
		mustTime(t, "2026-02-01T10:00:00Z"),
		mustTime(t, "2026-02-01T11:00:00Z"), now)
	assert.NoError(t, err)
	repo.byID[o.ID] = o

	t.Run("edits_one_row_only", func(t *testing.T) {
		title := "New title"
		got, err := svc.Update(context.Background(), UpdateCmd{
			OccurrenceID: o.ID,
			ActorID:      "user_A",
			Title:        &title,
		})
		assert.NoError(t, err)
		assert.Equal(t, "New title", got.Title)
	})

	t.Run("no_dispatch_without_remote_id", func(t *testing.T) {
		assert.Empty(t, sync.updated)
	})

	t.Run("dispatch_when_remote_id_set", func(t *testing.T) {
		rid := "cal_abc"
		o.ExternalCalendarID = &rid
		title := "Another title"
		_, err := svc.Update(context.Background(), UpdateCmd{
			OccurrenceID: o.ID,
			ActorID:      "user_A",
			Title:        &title,
		})
		assert.NoError(t, err)
		assert.Len(t, sync.updated, 1)
	})

	t.Run("moderator_can_edit", func(t *testing.T) {
		title := "Moderated"
		_, err := svc.Update(context.Background(), UpdateCmd{
			OccurrenceID: o.ID,
			ActorID:      "mod_1",
			ActorRole:    "moderator",
			Title:        &title,
		})
		assert.NoError(t, err)
	})
}

func TestService_Delete(t *testing.T) {
	now := mustTime(t, "2026-01-01T09:00:00Z")

	t.Run("soft_deletes_and_dispatches", func(t *testing.T) {
		repo := newMemRepo()
		sync := &recordingSync{}
		svc := newTestService(repo, sync, now)

		o, err := domain.NewOccurrence("user_A", validTemplate(),
			mustTime(t, "2026-02-01T10:00:00Z"),
			mustTime(t, "2026-02-01T11:00:00Z"), now)
		assert.NoError(t, err)
		repo.byID[o.ID] = o

		err = svc.Delete(context.Background(), o.ID, "user_A", "user")
		assert.NoError(t, err)
		assert.True(t, repo.byID[o.ID].IsDeleted())
		assert.Len(t, sync.deleted, 1)
		assert.Len(t, repo.outbox, 1)
		assert.Equal(t, "occurrence.deleted", repo.outbox[0].RoutingKey)
	})

	t.Run("series_member_delete_leaves_siblings", func(t *testing.T) {
		repo := newMemRepo()
		sync := &recordingSync{}
		svc := newTestService(repo, sync, now)

		end := mustTime(t, "2026-01-22T00:00:00Z")
		first, err := svc.CreateSeries(context.Background(), CreateSeriesCmd{
			ActorID:   "user_A",
			Template:  validTemplate(),
			StartTime: mustTime(t, "2026-01-05T14:00:00Z"),
			EndTime:   mustTime(t, "2026-01-05T15:00:00Z"),
			Recurrence: domain.RecurrenceSpec{
				Frequency: domain.FreqWeekly,
				Interval:  1,
				EndDate:   &end,
			},
		})
		assert.NoError(t, err)

		err = svc.Delete(context.Background(), first.ID, "user_A", "user")
		assert.NoError(t, err)

		rows, err := svc.GetSeries(context.Background(), *first.SeriesID)
		assert.NoError(t, err)
		assert.Len(t, rows, 2)

		// The sync adapter decides suppression; the service always hands
		// the deleted row over.
		assert.Len(t, sync.deleted, 1)
		assert.True(t, sync.deleted[0].IsSeriesMember())
	})

	t.Run("deleting_deleted_row_is_not_found", func(t *testing.T) {
		repo := newMemRepo()
		svc := newTestService(repo, &recordingSync{}, now)

		o, err := domain.NewOccurrence("user_A", validTemplate(),
			mustTime(t, "2026-02-01T10:00:00Z"),
			mustTime(t, "2026-02-01T11:00:00Z"), now)
		assert.NoError(t, err)
		d := now
		o.DeletedAt = &d
		repo.byID[o.ID] = o

		err = svc.Delete(context.Background(), o.ID, "user_A", "user")
		var appErr *domain.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeNotFound, appErr.Code)
	})
}
