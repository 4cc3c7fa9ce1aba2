package holiday

import (
	"context"
	"fmt"

	"github.com/clubcal/clubcal/internal/event_bus"
	"github.com/clubcal/clubcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

type EventStore interface {
	StoreEvents(ctx context.Context, events []calendar.Event) (int, error)
}

// SeedFlag is the one-time marker kept in the settings document.
type SeedFlag interface {
	HolidaysSeeded(ctx context.Context) (bool, error)
	MarkHolidaysSeeded(ctx context.Context, version string) error
}

type Seeder struct {
	fixture Fixture
	events  EventStore
	flag    SeedFlag
	bus     *event_bus.EventBus
}

func NewSeeder(fixture Fixture, events EventStore, flag SeedFlag, bus *event_bus.EventBus) *Seeder {
	return &Seeder{fixture: fixture, events: events, flag: flag, bus: bus}
}

// SeedOnce stores the fixture unless the seeded flag is already set. Holiday ids are
// stable and inserts skip existing ids, so a run interrupted before the flag is
// written can be repeated safely.
func (s *Seeder) SeedOnce(ctx context.Context) (int, error) {
	seeded, err := s.flag.HolidaysSeeded(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read holiday seed flag: %w", err)
	}
	if seeded {
		log.Debug("holidays already seeded")
		return 0, nil
	}

	log.Infof("seeding %d holidays (fixture %s)", len(s.fixture.Holidays), s.fixture.Version)
	inserted, err := s.events.StoreEvents(ctx, s.fixture.Events())
	if err != nil {
		return 0, fmt.Errorf("failed to store holidays: %w", err)
	}
	if err := s.flag.MarkHolidaysSeeded(ctx, s.fixture.Version); err != nil {
		return inserted, fmt.Errorf("failed to set holiday seed flag: %w", err)
	}

	if s.bus != nil {
		err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.HolidaysSeededType, event_bus.HolidaysSeeded{
			Inserted: inserted,
			Version:  s.fixture.Version,
		}))
		if err != nil {
			log.Warnf("holidays seeded listeners failed: %v", err)
		}
	}
	log.Infof("holidays seeded, %d inserted", inserted)
	return inserted, nil
}
