package holiday

import (
	"context"
	"errors"
	"testing"

	"github.com/clubcal/clubcal/internal/event_bus"
	"github.com/clubcal/clubcal/pkg/calendar"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedFixture(t *testing.T) {
	f, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, f.Version)
	require.Len(t, f.Holidays, 30)
	perYear := map[string]int{}
	for _, h := range f.Holidays {
		perYear[string(h.Date)[:4]]++
	}
	assert.Equal(t, map[string]int{"2024": 10, "2025": 10, "2026": 10}, perYear)
}

func TestFixture_Events(t *testing.T) {
	f, err := Load()
	require.NoError(t, err)

	events := f.Events()

	require.Len(t, events, len(f.Holidays))
	for _, e := range events {
		assert.Equal(t, "holiday-"+string(e.Date), e.ID)
		assert.True(t, e.IsAllDay)
		assert.True(t, e.IsHoliday)
		assert.Empty(t, e.Time)
		assert.Empty(t, e.EndDate)
		assert.Equal(t, calendar.ColorGreen, e.Color)
		assert.NoError(t, calendar.Validate(e, 0))
	}
	assert.Equal(t, events, f.Events(), "materialisation must be stable")
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing version", `holidays: [{date: "2025-01-01", title: "Año Nuevo"}]`},
		{"bad date", "version: v1\nholidays: [{date: \"2025-1-1\", title: \"Año Nuevo\"}]"},
		{"empty title", "version: v1\nholidays: [{date: \"2025-01-01\", title: \" \"}]"},
		{"duplicate date", "version: v1\nholidays: [{date: \"2025-01-01\", title: \"A\"}, {date: \"2025-01-01\", title: \"B\"}]"},
		{"not yaml", "version: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyEphemeral, s)

	s, err = ParseStrategy("Seeded")
	require.NoError(t, err)
	assert.Equal(t, StrategySeeded, s)

	_, err = ParseStrategy("both")
	assert.Error(t, err)
}

type flagStub struct {
	seeded  bool
	version string
	readErr error
	markErr error
}

func (f *flagStub) HolidaysSeeded(context.Context) (bool, error) {
	return f.seeded, f.readErr
}

func (f *flagStub) MarkHolidaysSeeded(_ context.Context, version string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.seeded = true
	f.version = version
	return nil
}

func testFixture() Fixture {
	return Fixture{Version: "test", Holidays: []Holiday{
		{Date: datekey.MustParse("2025-01-01"), Title: "Año Nuevo"},
		{Date: datekey.MustParse("2025-12-25"), Title: "Navidad"},
	}}
}

func TestSeeder_SeedOnce(t *testing.T) {
	ctx := context.Background()
	repo := calendar.NewRepositoryStub()
	flag := &flagStub{}
	bus := event_bus.NewEventBus()
	var published []event_bus.HolidaysSeeded
	event_bus.SubscribeTyped(bus, event_bus.HolidaysSeededType, func(e event_bus.EventT[event_bus.HolidaysSeeded]) error {
		published = append(published, e.Data)
		return nil
	})
	seeder := NewSeeder(testFixture(), repo, flag, bus)

	// when seeding twice
	first, err := seeder.SeedOnce(ctx)
	require.NoError(t, err)
	second, err := seeder.SeedOnce(ctx)
	require.NoError(t, err)

	// then only the first run stores anything
	assert.Equal(t, 2, first)
	assert.Equal(t, 0, second)
	assert.True(t, flag.seeded)
	assert.Equal(t, "test", flag.version)
	events, err := repo.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, []event_bus.HolidaysSeeded{{Inserted: 2, Version: "test"}}, published)
}

func TestSeeder_RepeatAfterInterruptedRun(t *testing.T) {
	ctx := context.Background()
	repo := calendar.NewRepositoryStub()
	flag := &flagStub{markErr: errors.New("settings unavailable")}
	seeder := NewSeeder(testFixture(), repo, flag, nil)

	// given a run that stored the holidays but failed to set the flag
	_, err := seeder.SeedOnce(ctx)
	require.Error(t, err)

	// when it is repeated
	flag.markErr = nil
	inserted, err := seeder.SeedOnce(ctx)

	// then no duplicates are created
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	events, err := repo.ListEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.True(t, flag.seeded)
}

func TestSeeder_FlagReadFailure(t *testing.T) {
	repo := calendar.NewRepositoryStub()
	seeder := NewSeeder(testFixture(), repo, &flagStub{readErr: errors.New("down")}, nil)

	_, err := seeder.SeedOnce(context.Background())

	assert.Error(t, err)
	assert.Zero(t, repo.Calls())
}
