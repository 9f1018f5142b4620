package postgres

import (
	"context"
	"database/sql"

	"github.com/communityos/occurrence-service/internal/domain"
)

// RegistrationRepo persists RSVP rows, unique per (occurrence, user).
type RegistrationRepo struct {
	db *sql.DB
}

func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

func (r *RegistrationRepo) Upsert(ctx context.Context, reg *domain.Registration) error {
	_, err := r.db.ExecContext(ctx, upsertRegistrationSQL,
		reg.OccurrenceID, reg.UserID, string(reg.Status), reg.GuestCount, reg.UpdatedAt,
	)
	return err
}

func (r *RegistrationRepo) Delete(ctx context.Context, occurrenceID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteRegistrationSQL, occurrenceID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RegistrationRepo) Get(ctx context.Context, occurrenceID, userID string) (*domain.Registration, error) {
	row := r.db.QueryRowContext(ctx, getRegistrationSQL, occurrenceID, userID)

	var reg domain.Registration
	var status string
	err := row.Scan(&reg.OccurrenceID, &reg.UserID, &status, &reg.GuestCount, &reg.CreatedAt, &reg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound("registration not found")
	}
	if err != nil {
		return nil, err
	}
	reg.Status = domain.RegistrationStatus(status)
	return &reg, nil
}

// DeleteAllForUser drops every RSVP a user holds, used when membership
// revocation arrives over the broker.
func (r *RegistrationRepo) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	res, err := r.db.ExecContext(ctx, deleteRegistrationsByUserSQL, userID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *RegistrationRepo) Count(ctx context.Context, occurrenceID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countRegistrationsSQL, occurrenceID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
