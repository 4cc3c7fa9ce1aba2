package calendar

import (
	"context"
	"sync"

	"github.com/clubcal/clubcal/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

// Feed keeps the latest full set of events in memory. Each delivered snapshot
// replaces the previous one wholesale; static events are appended to every snapshot.
type Feed struct {
	source SnapshotSource
	bus    *event_bus.EventBus
	static []Event

	mu          sync.RWMutex
	events      []Event
	index       map[string]int
	version     uint64
	unsubscribe func()
}

func NewFeed(source SnapshotSource, bus *event_bus.EventBus, static []Event) *Feed {
	return &Feed{
		source: source,
		bus:    bus,
		static: append([]Event(nil), static...),
		index:  make(map[string]int),
	}
}

// Start subscribes to the source. The first snapshot is in place when Start returns.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.unsubscribe != nil {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	unsubscribe, err := f.source.Subscribe(ctx, f.replace)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.unsubscribe = unsubscribe
	f.mu.Unlock()
	log.Infof("event feed started with %d events", len(f.Snapshot()))
	return nil
}

// Close stops receiving snapshots. The last one stays readable.
func (f *Feed) Close() {
	f.mu.Lock()
	unsubscribe := f.unsubscribe
	f.unsubscribe = nil
	f.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (f *Feed) replace(snapshot []Event) {
	events := make([]Event, 0, len(snapshot)+len(f.static))
	index := make(map[string]int, len(snapshot)+len(f.static))
	add := func(e Event) {
		if i, seen := index[e.ID]; seen {
			events[i] = e
			return
		}
		index[e.ID] = len(events)
		events = append(events, e)
	}
	for _, e := range snapshot {
		add(e)
	}
	for _, e := range f.static {
		add(e)
	}

	f.mu.Lock()
	f.events = events
	f.index = index
	f.version++
	version := f.version
	f.mu.Unlock()

	if f.bus == nil {
		return
	}
	err := f.bus.Publish(event_bus.NewEvent(context.Background(), event_bus.EventsSnapshotReplacedType, event_bus.EventsSnapshotReplaced{
		Version: version,
		Count:   len(events),
	}))
	if err != nil {
		log.Warnf("snapshot %d listeners failed: %v", version, err)
	}
}

// Snapshot returns a copy of the current events.
func (f *Feed) Snapshot() []Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Event(nil), f.events...)
}

func (f *Feed) Version() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

func (f *Feed) Find(id string) (Event, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	i, ok := f.index[id]
	if !ok {
		return Event{}, false
	}
	return f.events[i], true
}
