package dto

import (
	"strings"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
)

func ToOccurrenceResp(o *domain.Occurrence, now time.Time) OccurrenceResp {
	return OccurrenceResp{
		ID:                      o.ID,
		SeriesID:                o.SeriesID,
		Title:                   o.Title,
		Description:             o.Description,
		Location:                o.Location,
		Visibility:              string(o.Visibility),
		EventType:               string(o.EventType),
		ExternalRegistrationURL: o.ExternalRegistrationURL,
		ImageURL:                o.ImageURL,
		CreatedBy:               o.CreatedBy,
		StartTime:               o.StartTime,
		EndTime:                 o.EndTime,
		ExternalCalendarID:      o.ExternalCalendarID,
		CreatedAt:               o.CreatedAt,
		UpdatedAt:               o.UpdatedAt,

		Ended:     o.EndTime.Before(now),
		Recurring: o.IsSeriesMember(),
	}
}

func ToSeriesResp(seriesID string, rows []*domain.Occurrence, now time.Time) SeriesResp {
	items := make([]OccurrenceResp, 0, len(rows))
	for _, o := range rows {
		items = append(items, ToOccurrenceResp(o, now))
	}
	return SeriesResp{SeriesID: seriesID, Occurrences: items}
}

func (r CreateOccurrenceReq) Template() domain.Template {
	return domain.Template{
		Title:                   r.Title,
		Description:             r.Description,
		Location:                r.Location,
		Visibility:              domain.Visibility(r.Visibility),
		EventType:               domain.EventType(r.EventType),
		ExternalRegistrationURL: r.ExternalRegistrationURL,
		ImageURL:                r.ImageURL,
	}
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ToRecurrenceSpec maps the wire rule to the domain spec. Weekday names
// are case-insensitive; duplicates collapse.
func ToRecurrenceSpec(r RecurrenceReq) (domain.RecurrenceSpec, error) {
	spec := domain.RecurrenceSpec{
		Frequency:      domain.Frequency(strings.ToLower(strings.TrimSpace(r.Frequency))),
		Interval:       r.Interval,
		MonthlyPattern: domain.MonthlyPattern(strings.ToLower(strings.TrimSpace(r.MonthlyPattern))),
		EndDate:        r.EndDate,
	}

	seen := make(map[time.Weekday]bool, len(r.DaysOfWeek))
	for _, name := range r.DaysOfWeek {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return domain.RecurrenceSpec{}, domain.ErrValidation("days_of_week contains an unknown weekday: " + name)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		spec.DaysOfWeek = append(spec.DaysOfWeek, d)
	}
	return spec, nil
}
