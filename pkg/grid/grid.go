package grid

import (
	"strings"
	"time"

	"github.com/clubcal/clubcal/pkg/datekey"
)

const (
	DaysPerWeek = 7
	Weeks       = 6
	Size        = DaysPerWeek * Weeks
)

type Cell struct {
	Date    time.Time
	Key     datekey.Key
	InMonth bool
	Weekend bool
}

// Grid is a fixed 6x7 month layout. Cells run in ascending day order without gaps.
type Grid struct {
	Year      int
	Month     time.Month
	WeekStart time.Weekday
	Cells     [Size]Cell
}

// ParseWeekStart maps "monday" or "sunday" to a weekday. Anything else means Monday.
func ParseWeekStart(s string) time.Weekday {
	if strings.EqualFold(strings.TrimSpace(s), "sunday") {
		return time.Sunday
	}
	return time.Monday
}

// LeadingDays is how many days of the previous month precede the 1st of ref's month.
func LeadingDays(ref time.Time, weekStart time.Weekday) int {
	first := datekey.FirstOfMonth(ref)
	return (int(first.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
}

// Build lays out the month containing ref. Days are generated with calendar
// arithmetic in ref's location, so DST changes never skip or repeat a cell.
func Build(ref time.Time, weekStart time.Weekday) Grid {
	if weekStart < time.Sunday || weekStart > time.Saturday {
		weekStart = time.Monday
	}
	first := datekey.FirstOfMonth(ref)
	g := Grid{
		Year:      first.Year(),
		Month:     first.Month(),
		WeekStart: weekStart,
	}

	y, m, _ := first.Date()
	startDay := 1 - LeadingDays(first, weekStart)
	for i := range g.Cells {
		date := time.Date(y, m, startDay+i, 0, 0, 0, 0, first.Location())
		g.Cells[i] = Cell{
			Date:    date,
			Key:     datekey.ToKey(date),
			InMonth: date.Month() == m && date.Year() == y,
			Weekend: date.Weekday() == time.Saturday || date.Weekday() == time.Sunday,
		}
	}
	return g
}

// Rows splits the grid into its 6 weeks.
func (g Grid) Rows() [][]Cell {
	rows := make([][]Cell, 0, Weeks)
	for w := 0; w < Weeks; w++ {
		rows = append(rows, g.Cells[w*DaysPerWeek:(w+1)*DaysPerWeek])
	}
	return rows
}

// Weekdays lists the column headers in display order.
func (g Grid) Weekdays() []time.Weekday {
	days := make([]time.Weekday, DaysPerWeek)
	for i := range days {
		days[i] = time.Weekday((int(g.WeekStart) + i) % DaysPerWeek)
	}
	return days
}

func (g Grid) First() datekey.Key {
	return g.Cells[0].Key
}

func (g Grid) Last() datekey.Key {
	return g.Cells[Size-1].Key
}
