package recurrence

import (
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
)

// Bounds caps expansion so a pathological spec can never produce an
// unbounded series.
type Bounds struct {
	// DefaultSpanMonths is the span used when the spec has no end date.
	DefaultSpanMonths int
	// MaxOccurrences is a hard cap regardless of span.
	MaxOccurrences int
}

func DefaultBounds() Bounds {
	return Bounds{DefaultSpanMonths: 6, MaxOccurrences: 365}
}

// Window is one concrete (start, end) pair. Every window spans the same
// duration as the template interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Generator expands a recurrence spec into windows. It is pure
// computation: no clock, no I/O.
type Generator struct {
	bounds Bounds
}

func NewGenerator(b Bounds) *Generator {
	if b.DefaultSpanMonths <= 0 {
		b.DefaultSpanMonths = 6
	}
	if b.MaxOccurrences <= 0 {
		b.MaxOccurrences = 365
	}
	return &Generator{bounds: b}
}

// Generate returns the ordered occurrence windows for the spec. An empty
// result means the spec yields no valid occurrence; callers must treat
// that as a rejectable condition, not an empty-but-valid series.
func (g *Generator) Generate(templateStart, templateEnd time.Time, spec domain.RecurrenceSpec) []Window {
	spec = spec.Normalized()
	if templateStart.IsZero() || !templateEnd.After(templateStart) {
		return nil
	}

	duration := templateEnd.Sub(templateStart)
	until := g.until(templateStart, spec)

	switch spec.Frequency {
	case domain.FreqDaily:
		return g.daily(templateStart, duration, spec.Interval, until)
	case domain.FreqWeekly:
		return g.weekly(templateStart, duration, spec, until)
	case domain.FreqMonthly:
		if spec.MonthlyPattern == domain.MonthlyNthWeekday {
			return g.monthlyNthWeekday(templateStart, duration, spec.Interval, until)
		}
		return g.monthlyDayOfMonth(templateStart, duration, spec.Interval, until)
	}
	return nil
}

// until resolves the inclusive scan end. An explicit end date is forced
// to the last instant of its calendar day; the default span keeps the
// template start's clock.
func (g *Generator) until(templateStart time.Time, spec domain.RecurrenceSpec) time.Time {
	if spec.EndDate == nil {
		return templateStart.AddDate(0, g.bounds.DefaultSpanMonths, 0)
	}
	e := spec.EndDate.In(templateStart.Location())
	return time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, 0, templateStart.Location())
}

func (g *Generator) daily(start time.Time, d time.Duration, interval int, until time.Time) []Window {
	var out []Window
	for t := start; !t.After(until) && len(out) < g.bounds.MaxOccurrences; t = t.AddDate(0, 0, interval) {
		out = append(out, Window{Start: t, End: t.Add(d)})
	}
	return out
}

// weekly scans calendar weeks starting at the Sunday of the week holding
// the template start. Target weekdays earlier than the start within that
// first week fall before templateStart and are excluded; later weekdays
// of the same week are included. That asymmetry is part of the contract.
func (g *Generator) weekly(start time.Time, d time.Duration, spec domain.RecurrenceSpec, until time.Time) []Window {
	var targets [7]bool
	if len(spec.DaysOfWeek) == 0 {
		targets[start.Weekday()] = true
	} else {
		for _, wd := range spec.DaysOfWeek {
			targets[wd] = true
		}
	}

	loc := start.Location()
	hh, mm, ss := start.Clock()
	y, m, day := start.Date()
	weekStart := time.Date(y, m, day, 0, 0, 0, 0, loc).AddDate(0, 0, -int(start.Weekday()))

	var out []Window
	for ws := weekStart; !ws.After(until); ws = ws.AddDate(0, 0, 7*spec.Interval) {
		for wd := 0; wd < 7; wd++ {
			if !targets[wd] {
				continue
			}
			day := ws.AddDate(0, 0, wd)
			candidate := time.Date(day.Year(), day.Month(), day.Day(), hh, mm, ss, 0, loc)
			if candidate.Before(start) || candidate.After(until) {
				continue
			}
			out = append(out, Window{Start: candidate, End: candidate.Add(d)})
			if len(out) >= g.bounds.MaxOccurrences {
				return out
			}
		}
	}
	return out
}

// monthlyDayOfMonth steps from the previous occurrence's date and clamps
// the day to the target month's length. Because each step clamps the
// previous (possibly already clamped) day, passing through a short month
// drifts the anchor day downward for the rest of the series. That is the
// documented behavior, kept as-is.
func (g *Generator) monthlyDayOfMonth(start time.Time, d time.Duration, interval int, until time.Time) []Window {
	loc := start.Location()
	hh, mm, ss := start.Clock()

	var out []Window
	cur := start
	for !cur.After(until) && len(out) < g.bounds.MaxOccurrences {
		out = append(out, Window{Start: cur, End: cur.Add(d)})

		anchor := time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, interval, 0)
		day := cur.Day()
		if last := daysInMonth(anchor.Year(), anchor.Month()); day > last {
			day = last
		}
		cur = time.Date(anchor.Year(), anchor.Month(), day, hh, mm, ss, 0, loc)
	}
	return out
}

// monthlyNthWeekday resolves "the Nth <weekday> of the month" from the
// template start. Months that lack that ordinal are skipped without
// counting, but the month pointer always advances, so the scan ends once
// the first of the next candidate month passes the end date even if no
// occurrence was ever found.
func (g *Generator) monthlyNthWeekday(start time.Time, d time.Duration, interval int, until time.Time) []Window {
	loc := start.Location()
	hh, mm, ss := start.Clock()
	targetWeekday := start.Weekday()
	ordinal := (start.Day() + 6) / 7

	var out []Window
	monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, loc)
	for !monthStart.After(until) && len(out) < g.bounds.MaxOccurrences {
		offset := (int(targetWeekday) - int(monthStart.Weekday()) + 7) % 7
		day := 1 + offset + (ordinal-1)*7
		if day <= daysInMonth(monthStart.Year(), monthStart.Month()) {
			candidate := time.Date(monthStart.Year(), monthStart.Month(), day, hh, mm, ss, 0, loc)
			if !candidate.Before(start) && !candidate.After(until) {
				out = append(out, Window{Start: candidate, End: candidate.Add(d)})
			}
		}
		monthStart = monthStart.AddDate(0, interval, 0)
	}
	return out
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
