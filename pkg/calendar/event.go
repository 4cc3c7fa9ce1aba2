package calendar

import (
	"time"

	"github.com/clubcal/clubcal/pkg/datekey"
)

type Event struct {
	ID      string
	Date    datekey.Key
	EndDate datekey.Key // empty for single-day events
	Title   string
	Time    string // HH:MM, empty when IsAllDay
	Color   Color
	// IsAllDay events are listed before timed ones and carry no Time.
	IsAllDay  bool
	IsHoliday bool
}

// End returns the last day of the event, which is Date for single-day events.
func (e Event) End() datekey.Key {
	if e.EndDate == "" {
		return e.Date
	}
	return e.EndDate
}

// OccursOn reports whether day falls within the event's inclusive date range.
// The comparison is done on date keys.
func (e Event) OccursOn(day time.Time) bool {
	return e.OccursOnKey(datekey.ToKey(day))
}

func (e Event) OccursOnKey(d datekey.Key) bool {
	return e.Date <= d && d <= e.End()
}

// OverlapsRange reports whether the event touches any moment of the days between
// rangeStart and rangeEnd. Both the range end and the event end are stretched to
// 23:59:59.999 so the last day counts in full. Event dates are read in rangeStart's location.
func (e Event) OverlapsRange(rangeStart, rangeEnd time.Time) bool {
	loc := rangeStart.Location()
	eventStart, err := datekey.FromKey(e.Date, loc)
	if err != nil {
		return false
	}
	eventEndDay, err := datekey.FromKey(e.End(), loc)
	if err != nil {
		return false
	}
	eventEnd := datekey.EndOfDay(eventEndDay)

	return !eventStart.After(datekey.EndOfDay(rangeEnd)) && !eventEnd.Before(datekey.StartOfDay(rangeStart))
}

// SpanDays is the number of calendar days the event covers, 1 for single-day events.
func (e Event) SpanDays() (int, error) {
	n, err := e.Date.DaysUntil(e.End())
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}
