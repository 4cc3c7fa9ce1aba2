package calendar

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_OccursOn_InclusiveBoundaries(t *testing.T) {
	event := Event{ID: "camp", Date: "2025-03-10", EndDate: "2025-03-12", IsAllDay: true}

	tests := []struct {
		day      time.Time
		expected bool
	}{
		{time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC), false},
		{time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC), true},
		{time.Date(2025, 3, 12, 23, 59, 59, 0, time.UTC), true},
		{time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.day.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, event.OccursOn(tt.day))
		})
	}
}

func TestEvent_OccursOn_SingleDay(t *testing.T) {
	event := Event{ID: "x", Date: "2025-03-10", Time: "10:00"}

	assert.True(t, event.OccursOnKey("2025-03-10"))
	assert.False(t, event.OccursOnKey("2025-03-11"))
	assert.Equal(t, event.Date, event.End())
}

func TestEvent_OccursOn_UsesLocalDay(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	event := Event{ID: "x", Date: "2025-03-10", IsAllDay: true}

	// 00:30 in Madrid is still the 9th in UTC
	assert.True(t, event.OccursOn(time.Date(2025, 3, 10, 0, 30, 0, 0, madrid)))
}

func TestEvent_OverlapsRange(t *testing.T) {
	marchStart := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	marchEnd := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		event    Event
		expected bool
	}{
		{"inside", Event{Date: "2025-03-15"}, true},
		{"on the last day", Event{Date: "2025-03-31"}, true},
		{"on the first day", Event{Date: "2025-03-01"}, true},
		{"ends on the first day", Event{Date: "2025-02-20", EndDate: "2025-03-01"}, true},
		{"spans the whole range", Event{Date: "2025-02-01", EndDate: "2025-04-30"}, true},
		{"ends the day before", Event{Date: "2025-02-20", EndDate: "2025-02-28"}, false},
		{"starts the day after", Event{Date: "2025-04-01"}, false},
		{"malformed", Event{Date: "2025-3-15"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.OverlapsRange(marchStart, marchEnd))
		})
	}
}

func TestEvent_SpanDays(t *testing.T) {
	n, err := Event{Date: "2024-02-28", EndDate: "2024-03-01"}.SpanDays()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = Event{Date: "2024-02-28"}.SpanDays()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
