package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Template holds the fields every member of a series shares at creation
// time. Per-occurrence edits after creation do not touch siblings.
type Template struct {
	Title                   string
	Description             string
	Location                string
	Visibility              Visibility
	EventType               EventType
	ExternalRegistrationURL string
	ImageURL                string
}

// Occurrence is one calendar-displayable event instance. Rows that belong
// to a recurring series share a SeriesID and, once remote sync succeeds,
// an ExternalCalendarID.
type Occurrence struct {
	ID       string
	SeriesID *string

	Title                   string
	Description             string
	Location                string
	Visibility              Visibility
	EventType               EventType
	ExternalRegistrationURL string
	ImageURL                string
	CreatedBy               string

	StartTime time.Time
	EndTime   time.Time

	ExternalCalendarID *string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

func (t Template) normalized() (Template, error) {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Location = strings.TrimSpace(t.Location)
	t.ExternalRegistrationURL = strings.TrimSpace(t.ExternalRegistrationURL)
	t.ImageURL = strings.TrimSpace(t.ImageURL)

	if t.Visibility == "" {
		t.Visibility = VisibilityPublic
	}
	if t.EventType == "" {
		t.EventType = EventTypeInternal
	}

	if t.Title == "" || len(t.Title) > 120 {
		return t, ErrValidation("title is required and must be <= 120 chars")
	}
	if len(t.Description) > 4000 {
		return t, ErrValidation("description must be <= 4000 chars")
	}
	if len(t.Location) > 255 {
		return t, ErrValidation("location must be <= 255 chars")
	}
	if !t.Visibility.Valid() {
		return t, ErrValidation("visibility must be public or member_only")
	}
	if !t.EventType.Valid() {
		return t, ErrValidation("event_type must be internal or external")
	}
	if t.EventType == EventTypeExternal && t.ExternalRegistrationURL == "" {
		return t, ErrValidation("external_registration_url is required for external events")
	}
	return t, nil
}

func NewOccurrence(createdBy string, tpl Template, start, end time.Time, now time.Time) (*Occurrence, error) {
	createdBy = strings.TrimSpace(createdBy)
	if createdBy == "" {
		return nil, ErrValidation("created_by is required")
	}
	tpl, err := tpl.normalized()
	if err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, ErrValidation("end_time must be after start_time")
	}

	return &Occurrence{
		ID:                      uuid.NewString(),
		Title:                   tpl.Title,
		Description:             tpl.Description,
		Location:                tpl.Location,
		Visibility:              tpl.Visibility,
		EventType:               tpl.EventType,
		ExternalRegistrationURL: tpl.ExternalRegistrationURL,
		ImageURL:                tpl.ImageURL,
		CreatedBy:               createdBy,
		StartTime:               start,
		EndTime:                 end,
		CreatedAt:               now.UTC(),
		UpdatedAt:               now.UTC(),
	}, nil
}

// TemplateFields extracts the shared template from an existing row, used
// when a standalone occurrence becomes the first member of a series.
func (o *Occurrence) TemplateFields() Template {
	return Template{
		Title:                   o.Title,
		Description:             o.Description,
		Location:                o.Location,
		Visibility:              o.Visibility,
		EventType:               o.EventType,
		ExternalRegistrationURL: o.ExternalRegistrationURL,
		ImageURL:                o.ImageURL,
	}
}

// ApplyTemplate overwrites the shared fields, keeping identity and times.
func (o *Occurrence) ApplyTemplate(tpl Template, now time.Time) error {
	tpl, err := tpl.normalized()
	if err != nil {
		return err
	}
	o.Title = tpl.Title
	o.Description = tpl.Description
	o.Location = tpl.Location
	o.Visibility = tpl.Visibility
	o.EventType = tpl.EventType
	o.ExternalRegistrationURL = tpl.ExternalRegistrationURL
	o.ImageURL = tpl.ImageURL
	o.UpdatedAt = now.UTC()
	return nil
}

// ApplyUpdate is a per-row field update. It never cascades to siblings.
func (o *Occurrence) ApplyUpdate(title, description, location, imageURL *string, visibility *Visibility, start, end *time.Time, now time.Time) error {
	if title != nil {
		v := strings.TrimSpace(*title)
		if v == "" || len(v) > 120 {
			return ErrValidation("title must be non-empty and <= 120 chars")
		}
		o.Title = v
	}
	if description != nil {
		v := strings.TrimSpace(*description)
		if len(v) > 4000 {
			return ErrValidation("description must be <= 4000 chars")
		}
		o.Description = v
	}
	if location != nil {
		v := strings.TrimSpace(*location)
		if len(v) > 255 {
			return ErrValidation("location must be <= 255 chars")
		}
		o.Location = v
	}
	if imageURL != nil {
		o.ImageURL = strings.TrimSpace(*imageURL)
	}
	if visibility != nil {
		if !visibility.Valid() {
			return ErrValidation("visibility must be public or member_only")
		}
		o.Visibility = *visibility
	}
	if start != nil {
		o.StartTime = *start
	}
	if end != nil {
		o.EndTime = *end
	}
	if (start != nil || end != nil) && !o.EndTime.After(o.StartTime) {
		return ErrValidation("end_time must be after start_time")
	}
	o.UpdatedAt = now.UTC()
	return nil
}

func (o *Occurrence) IsSeriesMember() bool { return o.SeriesID != nil && *o.SeriesID != "" }

func (o *Occurrence) IsDeleted() bool { return o.DeletedAt != nil }
