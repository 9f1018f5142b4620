package domain

import "time"

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
)

// Registration is one RSVP row, unique per (occurrence, user).
type Registration struct {
	OccurrenceID string
	UserID       string
	Status       RegistrationStatus
	GuestCount   int

	CreatedAt time.Time
	UpdatedAt time.Time
}
