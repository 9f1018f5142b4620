package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Insert(ctx context.Context, o *domain.Occurrence) error {
	_, err := r.db.ExecContext(ctx, insertOccurrenceSQL, occurrenceArgs(o)...)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	row := r.db.QueryRowContext(ctx, getOccurrenceSQL, id)
	o, err := scanOccurrence(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound("occurrence not found")
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repo) ListBySeriesID(ctx context.Context, seriesID string) ([]*domain.Occurrence, error) {
	rows, err := r.db.QueryContext(ctx, listBySeriesSQL, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, o *domain.Occurrence) error {
	_, err := r.db.ExecContext(ctx, updateOccurrenceSQL,
		o.ID,
		o.SeriesID, o.Title, o.Description, o.Location, string(o.Visibility),
		string(o.EventType), o.ExternalRegistrationURL, o.ImageURL,
		o.StartTime, o.EndTime, o.ExternalCalendarID, o.UpdatedAt,
	)
	return err
}

// SetExternalCalendarID writes the remote calendar id back onto one row.
// Rows of a series are updated individually; they are independent
// storage records that happen to share the same remote event.
func (r *Repo) SetExternalCalendarID(ctx context.Context, id, remoteID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, setExternalCalendarIDSQL, id, remoteID, now.UTC())
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func occurrenceArgs(o *domain.Occurrence) []any {
	return []any{
		o.ID, o.SeriesID, o.Title, o.Description, o.Location,
		string(o.Visibility), string(o.EventType),
		o.ExternalRegistrationURL, o.ImageURL, o.CreatedBy,
		o.StartTime, o.EndTime, o.ExternalCalendarID,
		o.CreatedAt, o.UpdatedAt, o.DeletedAt,
	}
}

func scanOccurrence(row rowScanner) (*domain.Occurrence, error) {
	var o domain.Occurrence
	var visibility, eventType string
	err := row.Scan(
		&o.ID, &o.SeriesID, &o.Title, &o.Description, &o.Location,
		&visibility, &eventType,
		&o.ExternalRegistrationURL, &o.ImageURL, &o.CreatedBy,
		&o.StartTime, &o.EndTime, &o.ExternalCalendarID,
		&o.CreatedAt, &o.UpdatedAt, &o.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Visibility = domain.Visibility(visibility)
	o.EventType = domain.EventType(eventType)
	return &o, nil
}
