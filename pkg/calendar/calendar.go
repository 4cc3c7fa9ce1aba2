package calendar

import "errors"

var (
	ErrInvalidEvent    = errors.New("invalid event")
	ErrHolidayReadOnly = errors.New("holiday events cannot be modified or deleted")
	ErrEventNotFound   = errors.New("event not found")
)

// Color is one of the fixed palette tags an event can be painted with.
type Color string

const (
	ColorRed    Color = "red"
	ColorOrange Color = "orange"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorTeal   Color = "teal"
	ColorBlue   Color = "blue"
	ColorIndigo Color = "indigo"
	ColorPurple Color = "purple"
	ColorPink   Color = "pink"
)

var Palette = []Color{
	ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorTeal,
	ColorBlue, ColorIndigo, ColorPurple, ColorPink,
}

// DefaultColor is preselected for new events.
const DefaultColor = ColorBlue

// HolidayColor paints every holiday fixture entry.
const HolidayColor = ColorGreen
