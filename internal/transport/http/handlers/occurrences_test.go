package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/communityos/occurrence-service/internal/application/occurrence"
	"github.com/communityos/occurrence-service/internal/domain"
	"github.com/communityos/occurrence-service/internal/recurrence"
)

// mockClock for stable testing
type mockClock struct{ t time.Time }

func (m mockClock) Now() time.Time { return m.t }

// Minimal mock repo for handler testing. Multi-row paths go through the
// service tests; handlers only need GetByID and ListBySeriesID here.
type mockRepo struct {
	byID map[string]*domain.Occurrence
}

func (m *mockRepo) Insert(ctx context.Context, o *domain.Occurrence) error { return nil }
func (m *mockRepo) GetByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	if o, ok := m.byID[id]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound("occurrence not found")
}
func (m *mockRepo) ListBySeriesID(ctx context.Context, seriesID string) ([]*domain.Occurrence, error) {
	var out []*domain.Occurrence
	for _, o := range m.byID {
		if o.SeriesID != nil && *o.SeriesID == seriesID {
			out = append(out, o)
		}
	}
	return out, nil
}
func (m *mockRepo) Update(ctx context.Context, o *domain.Occurrence) error { return nil }
func (m *mockRepo) WithTx(ctx context.Context, fn func(tr occurrence.TxOccurrenceRepo) error) error {
	return nil
}

func newHandler(repo *mockRepo, now time.Time) *OccurrencesHandler {
	gen := recurrence.NewGenerator(recurrence.DefaultBounds())
	svc := occurrence.New(repo, gen, mockClock{t: now}, nil, nil, 0)
	return NewOccurrencesHandler(svc, mockClock{t: now})
}

func withURLParam(req *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestOccurrencesHandler_Get(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.NewString()
	repo := &mockRepo{byID: map[string]*domain.Occurrence{
		id: {
			ID:         id,
			Title:      "Book club",
			Visibility: domain.VisibilityPublic,
			EventType:  domain.EventTypeInternal,
			CreatedBy:  "user_1",
			StartTime:  now.Add(time.Hour),
			EndTime:    now.Add(2 * time.Hour),
		},
	}}
	h := newHandler(repo, now)

	t.Run("return_400_on_invalid_uuid", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/occurrences/invalid-uuid", nil)
		req = withURLParam(req, "occurrence_id", "invalid-uuid")

		rr := httptest.NewRecorder()
		h.Get(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "validation_error")
	})

	t.Run("return_200_with_body", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/occurrences/"+id, nil)
		req = withURLParam(req, "occurrence_id", id)

		rr := httptest.NewRecorder()
		h.Get(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Book club")
		assert.Contains(t, rr.Body.String(), `"recurring":false`)
	})

	t.Run("return_404_on_unknown_id", func(t *testing.T) {
		missing := uuid.NewString()
		req := httptest.NewRequest("GET", "/occurrences/"+missing, nil)
		req = withURLParam(req, "occurrence_id", missing)

		rr := httptest.NewRecorder()
		h.Get(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestOccurrencesHandler_GetSeries(t *testing.T) {
	now := time.Now().UTC()
	seriesID := uuid.NewString()
	a, b := uuid.NewString(), uuid.NewString()
	repo := &mockRepo{byID: map[string]*domain.Occurrence{
		a: {ID: a, SeriesID: &seriesID, Title: "Standup", StartTime: now, EndTime: now.Add(time.Hour)},
		b: {ID: b, SeriesID: &seriesID, Title: "Standup", StartTime: now.Add(24 * time.Hour), EndTime: now.Add(25 * time.Hour)},
	}}
	h := newHandler(repo, now)

	t.Run("return_all_members", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/series/"+seriesID, nil)
		req = withURLParam(req, "series_id", seriesID)

		rr := httptest.NewRecorder()
		h.GetSeries(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2, strings.Count(rr.Body.String(), `"title":"Standup"`))
	})

	t.Run("return_404_on_empty_series", func(t *testing.T) {
		other := uuid.NewString()
		req := httptest.NewRequest("GET", "/series/"+other, nil)
		req = withURLParam(req, "series_id", other)

		rr := httptest.NewRecorder()
		h.GetSeries(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestOccurrencesHandler_Create_InvalidBody(t *testing.T) {
	now := time.Now().UTC()
	h := newHandler(&mockRepo{byID: map[string]*domain.Occurrence{}}, now)

	req := httptest.NewRequest("POST", "/occurrences", strings.NewReader(`{"title": }`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid json body")
}
