package view

import (
	"time"

	"github.com/clubcal/clubcal/internal/utils"
	"github.com/clubcal/clubcal/pkg/agenda"
	"github.com/clubcal/clubcal/pkg/calendar"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/clubcal/clubcal/pkg/grid"
	"github.com/clubcal/clubcal/pkg/locale"
	"github.com/clubcal/clubcal/pkg/period"
	"github.com/samber/lo"
)

// Source is the live event set the views are built from.
type Source interface {
	Snapshot() []calendar.Event
}

type Options struct {
	Locale      locale.Locale
	Location    *time.Location
	WeekStart   time.Weekday
	MaxSpanDays int
	Windows     []int
}

type EventView struct {
	calendar.EventDTO
	// Label is the start time, or the all-day text.
	Label    string `json:"label"`
	MultiDay bool   `json:"multiDay"`
}

type Cell struct {
	Date    datekey.Key `json:"date"`
	Day     int         `json:"day"`
	InMonth bool        `json:"inMonth"`
	Weekend bool        `json:"weekend"`
	Today   bool        `json:"today"`
	Events  []EventView `json:"events"`
}

type Month struct {
	Label    string   `json:"label"`
	Year     int      `json:"year"`
	Month    int      `json:"month"`
	Weekdays []string `json:"weekdays"`
	Weeks    [][]Cell `json:"weeks"`
}

type Day struct {
	Date   datekey.Key `json:"date"`
	Header string      `json:"header"`
	Today  bool        `json:"today"`
	Events []EventView `json:"events"`
}

type Agenda struct {
	Label        string      `json:"label"`
	Start        datekey.Key `json:"start"`
	End          datekey.Key `json:"end"`
	Days         []Day       `json:"days"`
	Empty        bool        `json:"empty"`
	EmptyMessage string      `json:"emptyMessage,omitempty"`
}

type MonthAgenda struct {
	Label string `json:"label"`
	Days  []Day  `json:"days"`
}

type Period struct {
	Label        string        `json:"label"`
	Months       int           `json:"months"`
	Start        datekey.Key   `json:"start"`
	End          datekey.Key   `json:"end"`
	Groups       []MonthAgenda `json:"groups"`
	Empty        bool          `json:"empty"`
	EmptyMessage string        `json:"emptyMessage,omitempty"`
}

type Navigation struct {
	Date   datekey.Key `json:"date"`
	Months int         `json:"months"`
	Label  string      `json:"label"`
	Prev   datekey.Key `json:"prev"`
	Next   datekey.Key `json:"next"`
}

// Builder turns the event snapshot into renderer-ready structures. Every label, flag
// and ordering is decided here.
type Builder struct {
	source  Source
	clock   utils.Clock
	opts    Options
	grouper agenda.Grouper
}

func NewBuilder(source Source, clock utils.Clock, opts Options) *Builder {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(opts.Windows) == 0 {
		opts.Windows = period.DefaultWindows
	}
	return &Builder{
		source:  source,
		clock:   clock,
		opts:    opts,
		grouper: agenda.NewGrouper(opts.Locale, opts.MaxSpanDays),
	}
}

func (b *Builder) Locale() locale.Locale {
	return b.opts.Locale
}

func (b *Builder) Location() *time.Location {
	return b.opts.Location
}

func (b *Builder) Windows() []int {
	return b.opts.Windows
}

// Today is midnight of the current day in the club timezone.
func (b *Builder) Today() time.Time {
	return utils.Today(b.clock, b.opts.Location)
}

func (b *Builder) Month(ref time.Time) Month {
	g := grid.Build(ref.In(b.opts.Location), b.opts.WeekStart)
	today := datekey.ToKey(b.Today())
	events := b.source.Snapshot()

	byDay := b.grouper.GroupByDay(agenda.FilterRange(events, g.Cells[0].Date, g.Cells[grid.Size-1].Date))
	weeks := make([][]Cell, 0, grid.Weeks)
	for _, row := range g.Rows() {
		week := make([]Cell, 0, grid.DaysPerWeek)
		for _, c := range row {
			week = append(week, Cell{
				Date:    c.Key,
				Day:     c.Date.Day(),
				InMonth: c.InMonth,
				Weekend: c.Weekend,
				Today:   c.Key == today,
				Events:  b.eventViews(byDay[c.Key]),
			})
		}
		weeks = append(weeks, week)
	}

	return Month{
		Label:    b.opts.Locale.MonthYear(datekey.FirstOfMonth(ref.In(b.opts.Location))),
		Year:     g.Year,
		Month:    int(g.Month),
		Weekdays: lo.Map(g.Weekdays(), func(d time.Weekday, _ int) string { return b.opts.Locale.WeekdayShort(d) }),
		Weeks:    weeks,
	}
}

// Agenda is the list view of the month containing ref.
func (b *Builder) Agenda(ref time.Time) Agenda {
	p := b.grouper.ForMonth(b.source.Snapshot(), ref.In(b.opts.Location))
	view := Agenda{
		Label: b.opts.Locale.MonthYear(p.Start),
		Start: datekey.ToKey(p.Start),
		End:   datekey.ToKey(p.End),
		Days:  b.days(p.Days),
		Empty: p.Empty,
	}
	if view.Empty {
		view.EmptyMessage = b.opts.Locale.Messages.NoEventsMonth
	}
	return view
}

// Period is the agenda of a multi-month window grouped by month.
func (b *Builder) Period(nav period.Navigator) Period {
	start, end := nav.Range()
	multi := b.grouper.ByMonth(b.source.Snapshot(), start, nav.Months, b.opts.Locale)
	view := Period{
		Label:  nav.Label(b.opts.Locale),
		Months: nav.Months,
		Start:  datekey.ToKey(start),
		End:    datekey.ToKey(end),
		Groups: lo.Map(multi.Months, func(m agenda.MonthGroup, _ int) MonthAgenda {
			return MonthAgenda{Label: m.Label, Days: b.days(m.Days)}
		}),
		Empty: multi.Empty,
	}
	if view.Empty {
		view.EmptyMessage = b.opts.Locale.Messages.NoEventsFor(nav.Months)
	}
	return view
}

// Day lists the events occurring on a single day, as shown in the day dialog.
func (b *Builder) Day(key datekey.Key) (Day, error) {
	date, err := datekey.FromKey(key, b.opts.Location)
	if err != nil {
		return Day{}, err
	}
	return Day{
		Date:   key,
		Header: b.opts.Locale.LongDate(date),
		Today:  key == datekey.ToKey(b.Today()),
		Events: b.eventViews(b.grouper.OccurringOn(b.source.Snapshot(), date)),
	}, nil
}

func (b *Builder) Navigation(nav period.Navigator) Navigation {
	return Navigation{
		Date:   datekey.ToKey(nav.Ref),
		Months: nav.Months,
		Label:  nav.Label(b.opts.Locale),
		Prev:   datekey.ToKey(nav.Prev().Ref),
		Next:   datekey.ToKey(nav.Next().Ref),
	}
}

func (b *Builder) days(days []agenda.Day) []Day {
	today := datekey.ToKey(b.Today())
	return lo.Map(days, func(d agenda.Day, _ int) Day {
		return Day{
			Date:   d.Key,
			Header: b.opts.Locale.LongDate(d.Date),
			Today:  d.Key == today,
			Events: b.eventViews(d.Events),
		}
	})
}

func (b *Builder) eventViews(events []calendar.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		label := e.Time
		if e.IsAllDay {
			label = b.opts.Locale.Messages.AllDay
		}
		views = append(views, EventView{
			EventDTO: calendar.EventToDTO(e),
			Label:    label,
			MultiDay: e.EndDate != "" && e.EndDate != e.Date,
		})
	}
	return views
}
