package google

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/communityos/occurrence-service/internal/infrastructure/calendar"
)

// Client implements the calendar provider against the Google Calendar
// API. One local series maps to one remote recurring event identified by
// the returned event id.
type Client struct {
	svc        *gcal.Service
	calendarID string
}

func New(ctx context.Context, credentialsFile, calendarID string) (*Client, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("google calendar: credentials file is required")
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("google calendar: init service: %w", err)
	}
	return &Client{svc: svc, calendarID: calendarID}, nil
}

func toEvent(p calendar.EventPayload) *gcal.Event {
	ev := &gcal.Event{
		Summary:     p.Title,
		Description: p.Description,
		Location:    p.Location,
		Start:       &gcal.EventDateTime{DateTime: p.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: p.End.Format(time.RFC3339)},
	}
	if p.Recurrence != "" {
		ev.Recurrence = []string{"RRULE:" + p.Recurrence}
	}
	return ev
}

func (c *Client) Create(ctx context.Context, p calendar.EventPayload) (string, error) {
	ev, err := c.svc.Events.Insert(c.calendarID, toEvent(p)).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return ev.Id, nil
}

func (c *Client) Update(ctx context.Context, remoteID string, p calendar.EventPayload) (bool, error) {
	_, err := c.svc.Events.Patch(c.calendarID, remoteID, toEvent(p)).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Delete(ctx context.Context, remoteID string) (bool, error) {
	if err := c.svc.Events.Delete(c.calendarID, remoteID).Context(ctx).Do(); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) AddAttendee(ctx context.Context, remoteID, email, name string) (bool, error) {
	ev, err := c.svc.Events.Get(c.calendarID, remoteID).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	for _, a := range ev.Attendees {
		if a.Email == email {
			return false, nil
		}
	}
	attendees := append(ev.Attendees, &gcal.EventAttendee{Email: email, DisplayName: name})
	_, err = c.svc.Events.Patch(c.calendarID, remoteID, &gcal.Event{Attendees: attendees}).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) RemoveAttendee(ctx context.Context, remoteID, email string) (bool, error) {
	ev, err := c.svc.Events.Get(c.calendarID, remoteID).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	kept := make([]*gcal.EventAttendee, 0, len(ev.Attendees))
	removed := false
	for _, a := range ev.Attendees {
		if a.Email == email {
			removed = true
			continue
		}
		kept = append(kept, a)
	}
	if !removed {
		return false, nil
	}
	_, err = c.svc.Events.Patch(c.calendarID, remoteID, &gcal.Event{Attendees: kept}).Context(ctx).Do()
	if err != nil {
		return false, err
	}
	return true, nil
}
