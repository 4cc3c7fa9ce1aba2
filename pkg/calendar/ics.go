package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/clubcal/clubcal/pkg/datekey"
)

const icsProductId = "-//clubcal//Club Calendar//ES"

// UID is the iCalendar identity of an event, shared by the ICS feed and Google publishing.
func UID(e Event) string {
	return e.ID + "@clubcal"
}

// StartAt returns the moment a timed event starts on its first day in loc.
func StartAt(e Event, loc *time.Location) (time.Time, error) {
	day, err := datekey.FromKey(e.Date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return atClock(day, e.Time)
}

// TimedRange is the interval a timed event is published as: from its start time on
// the first day to one hour after that time on the last day.
func TimedRange(e Event, loc *time.Location) (time.Time, time.Time, error) {
	start, err := StartAt(e, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last, err := datekey.FromKey(e.End(), loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := atClock(last, e.Time)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end.Add(time.Hour), nil
}

func atClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

// WriteICS renders events as an iCalendar feed. All-day events become date-only
// entries with an exclusive end; timed events last one hour from their start time
// on the last day they cover.
func WriteICS(w io.Writer, events []Event, name string, loc *time.Location, now time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductId)
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())

	for _, e := range events {
		first, err := datekey.FromKey(e.Date, loc)
		if err != nil {
			return err
		}
		last, err := datekey.FromKey(e.End(), loc)
		if err != nil {
			return err
		}

		vevent := cal.AddEvent(UID(e))
		vevent.SetDtStampTime(now)
		vevent.SetSummary(e.Title)
		if e.IsAllDay {
			vevent.SetAllDayStartAt(first)
			vevent.SetAllDayEndAt(last.AddDate(0, 0, 1))
		} else {
			start, end, err := TimedRange(e, loc)
			if err != nil {
				return err
			}
			vevent.SetStartAt(start)
			vevent.SetEndAt(end)
		}
		categories := []string{strings.ToUpper(string(e.Color))}
		if e.IsHoliday {
			categories = append(categories, "HOLIDAY")
		}
		vevent.SetProperty(ics.ComponentPropertyCategories, strings.Join(categories, ","))
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}
