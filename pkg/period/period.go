package period

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/clubcal/clubcal/pkg/locale"
)

// Month is the single-month granularity; Quarter is the fixed 3-month window starting
// at the current month.
const (
	Month   = 1
	Quarter = 3
)

var DefaultWindows = []int{3, 4, 6}

var ErrUnsupportedWindow = errors.New("unsupported period window")

type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "next":
		return Next, nil
	case "prev", "previous":
		return Prev, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Navigator is a period of Months consecutive months starting at Ref.
// Ref is always the 1st of a month at midnight.
type Navigator struct {
	Ref    time.Time
	Months int
}

// New normalises ref to the 1st of its month.
func New(ref time.Time, months int) Navigator {
	if months < 1 {
		months = Month
	}
	return Navigator{Ref: datekey.FirstOfMonth(ref), Months: months}
}

// NewWindow is New restricted to single months and the allowed windows.
func NewWindow(ref time.Time, months int, allowed []int) (Navigator, error) {
	if months != Month && !slices.Contains(allowed, months) {
		return Navigator{}, fmt.Errorf("%w: %d months", ErrUnsupportedWindow, months)
	}
	return New(ref, months), nil
}

func (n Navigator) Next() Navigator {
	return n.Step(Next)
}

func (n Navigator) Prev() Navigator {
	return n.Step(Prev)
}

// Step moves by a whole period. Starting from the 1st, AddDate never overflows into
// a following month.
func (n Navigator) Step(dir Direction) Navigator {
	return Navigator{Ref: datekey.FirstOfMonth(n.Ref).AddDate(0, int(dir)*n.Months, 0), Months: n.Months}
}

// Range returns midnight of the first and the last day of the period.
func (n Navigator) Range() (time.Time, time.Time) {
	start := datekey.FirstOfMonth(n.Ref)
	return start, start.AddDate(0, n.Months, -1)
}

// MonthStarts lists the 1st of every month in the period.
func (n Navigator) MonthStarts() []time.Time {
	start := datekey.FirstOfMonth(n.Ref)
	months := make([]time.Time, n.Months)
	for i := range months {
		months[i] = start.AddDate(0, i, 0)
	}
	return months
}

// Label is "marzo 2025" for a single month, "enero - marzo 2025" for a window inside
// one year and "diciembre - febrero 2025 - 2026" when the window crosses a year.
func (n Navigator) Label(l locale.Locale) string {
	first, last := n.Range()
	if n.Months == Month {
		return l.MonthYear(first)
	}
	years := fmt.Sprintf("%d", first.Year())
	if last.Year() != first.Year() {
		years = fmt.Sprintf("%d - %d", first.Year(), last.Year())
	}
	return fmt.Sprintf("%s - %s %s", l.Month(first.Month()), l.Month(last.Month()), years)
}
