package holiday

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/clubcal/clubcal/pkg/calendar"
	"github.com/clubcal/clubcal/pkg/datekey"
	"gopkg.in/yaml.v3"
)

//go:embed holidays.yaml
var embedded []byte

var ErrInvalidFixture = errors.New("invalid holiday fixture")

type Strategy string

const (
	// StrategyEphemeral materialises holidays in memory on every start, never persisted.
	StrategyEphemeral Strategy = "ephemeral"
	// StrategySeeded stores holidays once, guarded by the holidaysSeeded setting.
	StrategySeeded Strategy = "seeded"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyEphemeral, "":
		return StrategyEphemeral, nil
	case StrategySeeded:
		return StrategySeeded, nil
	}
	return "", fmt.Errorf("unknown holiday strategy %q", s)
}

type Holiday struct {
	Date  datekey.Key `yaml:"date"`
	Title string      `yaml:"title"`
}

type Fixture struct {
	Version  string    `yaml:"version"`
	Holidays []Holiday `yaml:"holidays"`
}

// Load parses the fixture compiled into the binary.
func Load() (Fixture, error) {
	return Parse(embedded)
}

func Parse(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if f.Version == "" {
		return Fixture{}, fmt.Errorf("%w: missing version", ErrInvalidFixture)
	}
	seen := make(map[datekey.Key]bool, len(f.Holidays))
	for _, h := range f.Holidays {
		if !h.Date.Valid() {
			return Fixture{}, fmt.Errorf("%w: bad date %q", ErrInvalidFixture, h.Date)
		}
		if strings.TrimSpace(h.Title) == "" {
			return Fixture{}, fmt.Errorf("%w: %s has no title", ErrInvalidFixture, h.Date)
		}
		if seen[h.Date] {
			return Fixture{}, fmt.Errorf("%w: %s listed twice", ErrInvalidFixture, h.Date)
		}
		seen[h.Date] = true
	}
	return f, nil
}

// ID is derived from the date alone, so materialising the fixture twice yields the same ids.
func ID(date datekey.Key) string {
	return "holiday-" + string(date)
}

// Events materialises the fixture as read-only all-day events.
func (f Fixture) Events() []calendar.Event {
	events := make([]calendar.Event, 0, len(f.Holidays))
	for _, h := range f.Holidays {
		events = append(events, calendar.Event{
			ID:        ID(h.Date),
			Date:      h.Date,
			Title:     h.Title,
			Color:     calendar.HolidayColor,
			IsAllDay:  true,
			IsHoliday: true,
		})
	}
	return events
}
