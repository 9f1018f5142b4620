package calendar

import (
	"strings"
	"time"

	"github.com/communityos/occurrence-service/internal/domain"
)

var weekdayCodes = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// BuildRule renders the recurrence rule string sent to the remote
// calendar. It is a display approximation: local generation is
// authoritative, and the monthly clamping/skip semantics are deliberately
// not encoded here.
func BuildRule(spec domain.RecurrenceSpec) string {
	var sb strings.Builder
	sb.WriteString("FREQ=")
	sb.WriteString(strings.ToUpper(string(spec.Frequency)))

	if spec.Frequency == domain.FreqWeekly && len(spec.DaysOfWeek) > 0 {
		codes := make([]string, 0, len(spec.DaysOfWeek))
		for _, d := range spec.DaysOfWeek {
			codes = append(codes, weekdayCodes[d])
		}
		sb.WriteString(";BYDAY=")
		sb.WriteString(strings.Join(codes, ","))
	}

	if spec.EndDate != nil {
		sb.WriteString(";UNTIL=")
		sb.WriteString(spec.EndDate.UTC().Format("20060102T150405Z"))
	}

	return sb.String()
}
