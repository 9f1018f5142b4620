package domain

import (
	"time"
)

type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	return f == FreqDaily || f == FreqWeekly || f == FreqMonthly
}

type MonthlyPattern string

const (
	MonthlyDayOfMonth MonthlyPattern = "day_of_month"
	MonthlyNthWeekday MonthlyPattern = "nth_weekday"
)

func (p MonthlyPattern) Valid() bool {
	return p == MonthlyDayOfMonth || p == MonthlyNthWeekday
}

// RecurrenceSpec describes how a series expands. It is request input,
// never persisted on its own.
type RecurrenceSpec struct {
	Frequency Frequency

	// Interval is the step multiplier (every N days/weeks/months), >= 1.
	Interval int

	// DaysOfWeek only applies to weekly; empty falls back to the
	// template start's weekday.
	DaysOfWeek []time.Weekday

	// MonthlyPattern only applies to monthly; empty means day_of_month.
	MonthlyPattern MonthlyPattern

	// EndDate is inclusive of its whole calendar day. Nil means the
	// default span applies.
	EndDate *time.Time
}

// Normalized fills defaults without mutating the receiver.
func (s RecurrenceSpec) Normalized() RecurrenceSpec {
	if s.Interval < 1 {
		s.Interval = 1
	}
	if s.Frequency == FreqMonthly && s.MonthlyPattern == "" {
		s.MonthlyPattern = MonthlyDayOfMonth
	}
	return s
}

func (s RecurrenceSpec) Validate() error {
	if !s.Frequency.Valid() {
		return ErrValidation("frequency must be daily, weekly or monthly")
	}
	if s.Interval < 0 {
		return ErrValidation("interval must be >= 1")
	}
	if s.Frequency == FreqMonthly && s.MonthlyPattern != "" && !s.MonthlyPattern.Valid() {
		return ErrValidation("monthly_pattern must be day_of_month or nth_weekday")
	}
	for _, d := range s.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return ErrValidation("days_of_week contains an invalid weekday")
		}
	}
	return nil
}
