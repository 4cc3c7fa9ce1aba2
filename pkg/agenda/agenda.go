package agenda

import (
	"sort"
	"strings"
	"time"

	"github.com/clubcal/clubcal/pkg/calendar"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/clubcal/clubcal/pkg/locale"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Day is one agenda entry: a date and its events in display order.
type Day struct {
	Key    datekey.Key
	Date   time.Time
	Events []calendar.Event
}

// Period is the agenda of a date range. Empty is set when no event overlaps the
// range, which renderers show as a placeholder rather than an empty list.
type Period struct {
	Start time.Time
	End   time.Time
	Days  []Day
	Empty bool
}

type MonthGroup struct {
	Label string
	Month time.Time
	Days  []Day
}

// MultiMonth groups an N-month window by month. Months without events are left out.
type MultiMonth struct {
	Months []MonthGroup
	Empty  bool
}

// Grouper expands and orders events. The zero value sorts titles with Spanish
// collation and caps expansion at calendar.DefaultMaxSpanDays.
type Grouper struct {
	Language    language.Tag
	MaxSpanDays int
}

func NewGrouper(l locale.Locale, maxSpanDays int) Grouper {
	return Grouper{Language: l.Tag, MaxSpanDays: maxSpanDays}
}

func (g Grouper) maxSpan() int {
	if g.MaxSpanDays <= 0 {
		return calendar.DefaultMaxSpanDays
	}
	return g.MaxSpanDays
}

func (g Grouper) language() language.Tag {
	if g.Language == language.Und {
		return language.Spanish
	}
	return g.Language
}

// SortDay returns the events of one day ordered all-day first, all-day events by
// title, timed events by time, with id as the last tie-break. The input is not modified.
func (g Grouper) SortDay(events []calendar.Event) []calendar.Event {
	sorted := append([]calendar.Event(nil), events...)
	collator := collate.New(g.language())
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsAllDay != b.IsAllDay {
			return a.IsAllDay
		}
		if a.IsAllDay {
			if c := collator.CompareString(a.Title, b.Title); c != 0 {
				return c < 0
			}
		} else {
			if c := strings.Compare(a.Time, b.Time); c != 0 {
				return c < 0
			}
			if c := collator.CompareString(a.Title, b.Title); c != 0 {
				return c < 0
			}
		}
		return a.ID < b.ID
	})
	return sorted
}

// GroupByDay registers every event under each day it covers, start to end inclusive.
// An event is listed at most once per day even if it appears several times in events.
func (g Grouper) GroupByDay(events []calendar.Event) map[datekey.Key][]calendar.Event {
	byDay := make(map[datekey.Key][]calendar.Event)
	seen := make(map[datekey.Key]map[string]struct{})
	maxSpan := g.maxSpan()

	for _, event := range events {
		if !event.Date.Valid() {
			log.Warnf("skipping event %s with malformed date %q", event.ID, event.Date)
			continue
		}
		day := event.Date
		end := event.End()
		if !end.Valid() {
			end = day
		}
		for n := 0; day <= end; n++ {
			if n == maxSpan {
				log.Warnf("event %s spans more than %d days, truncated at %s", event.ID, maxSpan, day)
				break
			}
			if seen[day] == nil {
				seen[day] = make(map[string]struct{})
			}
			if _, dup := seen[day][event.ID]; !dup {
				seen[day][event.ID] = struct{}{}
				byDay[day] = append(byDay[day], event)
			}
			next, err := day.AddDays(1)
			if err != nil {
				log.Warnf("skipping event %s with malformed date %q", event.ID, day)
				break
			}
			day = next
		}
	}

	for day, dayEvents := range byDay {
		byDay[day] = g.SortDay(dayEvents)
	}
	return byDay
}

// Days flattens a grouping into ascending day order.
func Days(byDay map[datekey.Key][]calendar.Event, loc *time.Location) []Day {
	keys := lo.Keys(byDay)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	days := make([]Day, 0, len(keys))
	for _, key := range keys {
		date, err := datekey.FromKey(key, loc)
		if err != nil {
			continue
		}
		days = append(days, Day{Key: key, Date: date, Events: byDay[key]})
	}
	return days
}

// OccurringOn returns the events covering day, sorted for display.
func (g Grouper) OccurringOn(events []calendar.Event, day time.Time) []calendar.Event {
	return g.SortDay(lo.Filter(events, func(e calendar.Event, _ int) bool {
		return e.OccursOn(day)
	}))
}

// FilterRange keeps the events overlapping [start, end], both days included.
func FilterRange(events []calendar.Event, start, end time.Time) []calendar.Event {
	return lo.Filter(events, func(e calendar.Event, _ int) bool {
		return e.OverlapsRange(start, end)
	})
}

// ForRange builds the agenda of [start, end]. Multi-day events are listed on every
// day they cover, including days outside the range.
func (g Grouper) ForRange(events []calendar.Event, start, end time.Time) Period {
	matching := FilterRange(events, start, end)
	return Period{
		Start: start,
		End:   end,
		Days:  Days(g.GroupByDay(matching), start.Location()),
		Empty: len(matching) == 0,
	}
}

// ForMonth builds the agenda of the month containing ref.
func (g Grouper) ForMonth(events []calendar.Event, ref time.Time) Period {
	first := datekey.FirstOfMonth(ref)
	return g.ForRange(events, first, LastOfMonth(first))
}

// ByMonth builds the agenda of the months consecutive months starting at ref's month.
func (g Grouper) ByMonth(events []calendar.Event, ref time.Time, months int, l locale.Locale) MultiMonth {
	first := datekey.FirstOfMonth(ref)
	result := MultiMonth{Months: make([]MonthGroup, 0, months)}
	for i := 0; i < months; i++ {
		month := first.AddDate(0, i, 0)
		period := g.ForRange(events, month, LastOfMonth(month))
		if period.Empty {
			continue
		}
		result.Months = append(result.Months, MonthGroup{
			Label: l.MonthYear(month),
			Month: month,
			Days:  period.Days,
		})
	}
	result.Empty = len(result.Months) == 0
	return result
}

// LastOfMonth returns midnight of the last day of t's month.
func LastOfMonth(t time.Time) time.Time {
	return datekey.FirstOfMonth(t).AddDate(0, 1, -1)
}
