package dto

import "time"

type CreateOccurrenceReq struct {
	Title                   string    `json:"title"`
	Description             string    `json:"description"`
	Location                string    `json:"location"`
	Visibility              string    `json:"visibility"`
	EventType               string    `json:"event_type"`
	ExternalRegistrationURL string    `json:"external_registration_url"`
	ImageURL                string    `json:"image_url"`
	StartTime               time.Time `json:"start_time"`
	EndTime                 time.Time `json:"end_time"`
}

// RecurrenceReq carries the expansion rule for series endpoints.
// days_of_week takes lowercase weekday names ("monday", "friday").
type RecurrenceReq struct {
	Frequency      string     `json:"frequency"`
	Interval       int        `json:"interval"`
	DaysOfWeek     []string   `json:"days_of_week,omitempty"`
	MonthlyPattern string     `json:"monthly_pattern,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
}

type CreateSeriesReq struct {
	CreateOccurrenceReq
	Recurrence RecurrenceReq `json:"recurrence"`
}

// ConvertToSeriesReq converts an existing occurrence into the first
// member of a new series. Nil template fields keep the original values.
type ConvertToSeriesReq struct {
	Title                   *string `json:"title,omitempty"`
	Description             *string `json:"description,omitempty"`
	Location                *string `json:"location,omitempty"`
	Visibility              *string `json:"visibility,omitempty"`
	EventType               *string `json:"event_type,omitempty"`
	ExternalRegistrationURL *string `json:"external_registration_url,omitempty"`
	ImageURL                *string `json:"image_url,omitempty"`

	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Recurrence RecurrenceReq `json:"recurrence"`
}

type UpdateOccurrenceReq struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Visibility  *string    `json:"visibility,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

type RsvpReq struct {
	GuestCount int `json:"guest_count"`
}
