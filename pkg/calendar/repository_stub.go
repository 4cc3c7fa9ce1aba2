package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type RepositoryStub struct {
	mu          sync.RWMutex
	items       map[string]Event // id -> event
	nextId      int
	calls       int
	failWith    error
	subscribers map[int]func([]Event)
	nextSubId   int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		items:       make(map[string]Event),
		nextId:      1,
		subscribers: make(map[int]func([]Event)),
	}
}

// FailWith makes every following call return err until it is reset with nil.
func (r *RepositoryStub) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// Calls counts the persistence calls made so far, subscriptions excluded.
func (r *RepositoryStub) Calls() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls
}

func (r *RepositoryStub) enter() error {
	r.calls++
	return r.failWith
}

func (r *RepositoryStub) snapshotLocked() []Event {
	events := make([]Event, 0, len(r.items))
	for _, e := range r.items {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].ID < events[j].ID
	})
	return events
}

// notify must be called without holding the lock.
func (r *RepositoryStub) notify() {
	r.mu.RLock()
	snapshot := r.snapshotLocked()
	subscribers := make([]func([]Event), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subscribers = append(subscribers, fn)
	}
	r.mu.RUnlock()

	for _, fn := range subscribers {
		fn(append([]Event(nil), snapshot...))
	}
}

func (r *RepositoryStub) ListEvents(ctx context.Context) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(); err != nil {
		return nil, err
	}
	return r.snapshotLocked(), nil
}

func (r *RepositoryStub) GetEvent(ctx context.Context, id string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.enter(); err != nil {
		return Event{}, err
	}
	event, ok := r.items[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *RepositoryStub) StoreEvent(ctx context.Context, event Event) (string, error) {
	r.mu.Lock()
	if err := r.enter(); err != nil {
		r.mu.Unlock()
		return "", err
	}
	event.ID = fmt.Sprintf("event-%d", r.nextId)
	r.nextId++
	r.items[event.ID] = event
	r.mu.Unlock()

	r.notify()
	return event.ID, nil
}

func (r *RepositoryStub) StoreEvents(ctx context.Context, events []Event) (int, error) {
	r.mu.Lock()
	if err := r.enter(); err != nil {
		r.mu.Unlock()
		return 0, err
	}
	inserted := 0
	for _, event := range events {
		if _, exists := r.items[event.ID]; exists {
			continue
		}
		r.items[event.ID] = event
		inserted++
	}
	r.mu.Unlock()

	if inserted > 0 {
		r.notify()
	}
	return inserted, nil
}

func (r *RepositoryStub) UpdateEvent(ctx context.Context, event Event) error {
	r.mu.Lock()
	if err := r.enter(); err != nil {
		r.mu.Unlock()
		return err
	}
	existing, ok := r.items[event.ID]
	if !ok || existing.IsHoliday {
		r.mu.Unlock()
		return ErrEventNotFound
	}
	event.IsHoliday = false
	r.items[event.ID] = event
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *RepositoryStub) DeleteEvent(ctx context.Context, id string) error {
	r.mu.Lock()
	if err := r.enter(); err != nil {
		r.mu.Unlock()
		return err
	}
	existing, ok := r.items[id]
	if !ok || existing.IsHoliday {
		r.mu.Unlock()
		return ErrEventNotFound
	}
	delete(r.items, id)
	r.mu.Unlock()

	r.notify()
	return nil
}

func (r *RepositoryStub) Subscribe(ctx context.Context, onSnapshot func([]Event)) (func(), error) {
	r.mu.Lock()
	if r.failWith != nil {
		err := r.failWith
		r.mu.Unlock()
		return nil, err
	}
	id := r.nextSubId
	r.nextSubId++
	r.subscribers[id] = onSnapshot
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	onSnapshot(snapshot)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, id)
	}, nil
}
