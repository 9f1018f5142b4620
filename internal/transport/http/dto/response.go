package dto

import "time"

// OccurrenceResp is the stable API response model.
// NOTE: derived fields (ended/recurring) are computed at runtime (not stored in DB).
type OccurrenceResp struct {
	ID       string  `json:"id"`
	SeriesID *string `json:"series_id,omitempty"`

	Title                   string `json:"title"`
	Description             string `json:"description"`
	Location                string `json:"location"`
	Visibility              string `json:"visibility"`
	EventType               string `json:"event_type"`
	ExternalRegistrationURL string `json:"external_registration_url,omitempty"`
	ImageURL                string `json:"image_url,omitempty"`
	CreatedBy               string `json:"created_by"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	ExternalCalendarID *string `json:"external_calendar_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Derived
	Ended     bool `json:"ended"`
	Recurring bool `json:"recurring"`
}

type SeriesResp struct {
	SeriesID    string           `json:"series_id"`
	Occurrences []OccurrenceResp `json:"occurrences"`
}

type RsvpStatusResp struct {
	Registered bool       `json:"registered"`
	GuestCount int        `json:"guest_count"`
	Count      int        `json:"count"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}
