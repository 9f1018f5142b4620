package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/communityos/occurrence-service/internal/application/occurrence"
	"github.com/communityos/occurrence-service/internal/domain"
)

type txRepo struct {
	tx *sql.Tx
}

const insertOutboxSQL = `
INSERT INTO occurrence_outbox (
  message_id, routing_key, body, created_at, status, next_retry_at
) VALUES ($1, $2, $3::jsonb, $4, 'pending', $4)
`

const getOccurrenceForUpdateSQL = getOccurrenceSQL + `
FOR UPDATE
`

func (r *txRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Occurrence, error) {
	row := r.tx.QueryRowContext(ctx, getOccurrenceForUpdateSQL, id)
	o, err := scanOccurrence(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound("occurrence not found")
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// InsertBatch writes a whole series in one multi-row INSERT so readers
// never observe a partially persisted series.
func (r *txRepo) InsertBatch(ctx context.Context, rows []*domain.Occurrence) error {
	if len(rows) == 0 {
		return nil
	}

	const cols = 16
	var sb strings.Builder
	sb.WriteString(`
INSERT INTO occurrences (
  id, series_id, title, description, location, visibility, event_type,
  external_registration_url, image_url, created_by,
  start_time, end_time, external_calendar_id,
  created_at, updated_at, deleted_at
) VALUES `)

	args := make([]any, 0, len(rows)*cols)
	for i, o := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+j+1)
		}
		sb.WriteString(")")
		args = append(args, occurrenceArgs(o)...)
	}

	_, err := r.tx.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *txRepo) Update(ctx context.Context, o *domain.Occurrence) error {
	_, err := r.tx.ExecContext(ctx, updateOccurrenceSQL,
		o.ID,
		o.SeriesID, o.Title, o.Description, o.Location, string(o.Visibility),
		string(o.EventType), o.ExternalRegistrationURL, o.ImageURL,
		o.StartTime, o.EndTime, o.ExternalCalendarID, o.UpdatedAt,
	)
	return err
}

func (r *txRepo) SoftDelete(ctx context.Context, id string, now time.Time) (bool, error) {
	res, err := r.tx.ExecContext(ctx, softDeleteOccurrenceSQL, id, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *txRepo) InsertOutbox(ctx context.Context, msg occurrence.OutboxMessage) error {
	// Store JSON as text cast to jsonb for lib/pq compatibility.
	// next_retry_at = created_at so the row is immediately eligible.
	_, err := r.tx.ExecContext(ctx, insertOutboxSQL,
		msg.MessageID,
		msg.RoutingKey,
		string(msg.Body),
		msg.CreatedAt.UTC(),
	)
	return err
}

// --- outbox worker helpers (non-tx) ---

type outboxRow struct {
	ID         int64
	MessageID  string
	RoutingKey string
	Body       []byte
	Attempts   int
}

// Select pending messages that are due for retry.
// SKIP LOCKED allows multiple workers.
const selectOutboxClaimsSQL = `
SELECT id, message_id, routing_key, body, attempts
FROM occurrence_outbox
WHERE status = 'pending'
  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY next_retry_at ASC, created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`

const updateOutboxClaimSQL = `
UPDATE occurrence_outbox
SET next_retry_at = $2,
    status = 'processing'
WHERE id = $1
`

const markOutboxSentSQL = `
UPDATE occurrence_outbox
SET status = 'sent',
    sent_at = $2,
    last_error = NULL
WHERE id = $1
`

const markOutboxFailedSQL = `
UPDATE occurrence_outbox
SET status = 'pending', -- retryable
    attempts = attempts + 1,
    next_retry_at = $2,
    last_error = $3
WHERE id = $1
`

const markOutboxDeadSQL = `
UPDATE occurrence_outbox
SET status = 'dead',
    attempts = attempts + 1,
    last_error = $2
WHERE id = $1
`

const maxAttempts = 10

// StartOutboxWorker starts a polling worker that publishes pending
// outbox rows to RabbitMQ:
// 1. Claim rows in a short DB tx
// 2. Publish (network, potentially slow)
// 3. Update status in a short DB tx
func (r *Repo) StartOutboxWorker(ctx context.Context, pub occurrence.EventPublisher) {
	go func() {
		// Jitter startup to prevent thundering herd when multiple
		// instances start together.
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = r.processOutboxBatch(ctx, pub, 20)
			}
		}
	}()
}

func (r *Repo) processOutboxBatch(ctx context.Context, pub occurrence.EventPublisher, limit int) error {
	if limit <= 0 {
		limit = 50
	}

	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(claimCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(claimCtx, selectOutboxClaimsSQL, limit)
	if err != nil {
		return err
	}
	defer rows.Close()

	var batch []outboxRow
	for rows.Next() {
		var item outboxRow
		if err := rows.Scan(&item.ID, &item.MessageID, &item.RoutingKey, &item.Body, &item.Attempts); err != nil {
			return err
		}
		batch = append(batch, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if len(batch) == 0 {
		return tx.Commit() // nothing to do
	}

	// Mark as 'processing' and push retry into the future (reservation)
	// so another worker does not pick the row up if this one crashes.
	reservation := time.Now().UTC().Add(30 * time.Second)
	for _, item := range batch {
		if _, err := tx.ExecContext(claimCtx, updateOutboxClaimSQL, item.ID, reservation); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	for _, item := range batch {
		r.processSingleItem(ctx, pub, item)
	}

	return nil
}

func (r *Repo) processSingleItem(ctx context.Context, pub occurrence.EventPublisher, item outboxRow) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := pub.PublishEvent(pubCtx, item.RoutingKey, item.MessageID, item.Body)

	resCtx, cancelRes := context.WithTimeout(ctx, 3*time.Second)
	defer cancelRes()

	if err != nil {
		errMsg := err.Error()
		if item.Attempts >= maxAttempts {
			_, _ = r.db.ExecContext(resCtx, markOutboxDeadSQL, item.ID, errMsg)
		} else {
			// Exponential backoff with jitter
			backoff := time.Duration(math.Pow(2, float64(item.Attempts))) * time.Second
			backoff += time.Duration(rand.Intn(1000)) * time.Millisecond
			nextRetry := time.Now().UTC().Add(backoff)
			_, _ = r.db.ExecContext(resCtx, markOutboxFailedSQL, item.ID, nextRetry, errMsg)
		}
		return
	}

	_, _ = r.db.ExecContext(resCtx, markOutboxSentSQL, item.ID, time.Now().UTC())
}
