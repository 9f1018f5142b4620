package dto

import (
	"testing"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestToOccurrenceResp(t *testing.T) {
	now := time.Now().UTC()
	futureStart := now.Add(2 * time.Hour)
	futureEnd := now.Add(4 * time.Hour)
	pastEnd := now.Add(-2 * time.Hour)

	t.Run("successfully_maps_all_fields", func(t *testing.T) {
		sid := "series_1"
		cal := "cal_remote_9"
		o := &domain.Occurrence{
			ID:                 "occ_1",
			SeriesID:           &sid,
			Title:              "Weekly standup",
			Description:        "Short sync",
			Location:           "Room 2",
			Visibility:         domain.VisibilityMemberOnly,
			EventType:          domain.EventTypeInternal,
			CreatedBy:          "user_1",
			StartTime:          futureStart,
			EndTime:            futureEnd,
			ExternalCalendarID: &cal,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		resp := ToOccurrenceResp(o, now)

		assert.Equal(t, o.ID, resp.ID)
		assert.Equal(t, &sid, resp.SeriesID)
		assert.Equal(t, "member_only", resp.Visibility)
		assert.Equal(t, "internal", resp.EventType)
		assert.Equal(t, &cal, resp.ExternalCalendarID)
		assert.False(t, resp.Ended)
		assert.True(t, resp.Recurring)
	})

	t.Run("derived_flags", func(t *testing.T) {
		o := &domain.Occurrence{EndTime: pastEnd}
		resp := ToOccurrenceResp(o, now)
		assert.True(t, resp.Ended)
		assert.False(t, resp.Recurring)

		o.EndTime = futureEnd
		resp = ToOccurrenceResp(o, now)
		assert.False(t, resp.Ended)
	})
}

func TestToRecurrenceSpec(t *testing.T) {
	t.Run("maps_weekdays_case_insensitively", func(t *testing.T) {
		spec, err := ToRecurrenceSpec(RecurrenceReq{
			Frequency:  "WEEKLY",
			Interval:   2,
			DaysOfWeek: []string{"Monday", "friday", " monday "},
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.FreqWeekly, spec.Frequency)
		assert.Equal(t, 2, spec.Interval)
		assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, spec.DaysOfWeek)
	})

	t.Run("unknown_weekday_is_rejected", func(t *testing.T) {
		_, err := ToRecurrenceSpec(RecurrenceReq{
			Frequency:  "weekly",
			DaysOfWeek: []string{"funday"},
		})
		var appErr *domain.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, domain.CodeValidation, appErr.Code)
	})

	t.Run("monthly_pattern_passes_through", func(t *testing.T) {
		end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
		spec, err := ToRecurrenceSpec(RecurrenceReq{
			Frequency:      "monthly",
			Interval:       1,
			MonthlyPattern: "nth_weekday",
			EndDate:        &end,
		})
		assert.NoError(t, err)
		assert.Equal(t, domain.MonthlyNthWeekday, spec.MonthlyPattern)
		assert.Equal(t, &end, spec.EndDate)
	})
}
