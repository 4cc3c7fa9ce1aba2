package calendar

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Service interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, event Event) (Event, error)
	// Update replaces every editable field of an existing user event.
	Update(ctx context.Context, event Event) (Event, error)
	// Delete removes a user event. Holidays are rejected before anything is persisted.
	Delete(ctx context.Context, event Event) error
}

type ServiceImpl struct {
	repo        Repository
	maxSpanDays int
}

func NewService(repo Repository, maxSpanDays int) *ServiceImpl {
	if maxSpanDays <= 0 {
		maxSpanDays = DefaultMaxSpanDays
	}
	return &ServiceImpl{
		repo:        repo,
		maxSpanDays: maxSpanDays,
	}
}

func (s *ServiceImpl) List(ctx context.Context) ([]Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *ServiceImpl) Create(ctx context.Context, event Event) (Event, error) {
	event = Normalize(event)
	event.ID = ""
	event.IsHoliday = false
	if err := Validate(event, s.maxSpanDays); err != nil {
		return Event{}, err
	}

	id, err := s.repo.StoreEvent(ctx, event)
	if err != nil {
		return Event{}, fmt.Errorf("failed to store event: %w", err)
	}
	event.ID = id
	log.Debugf("created event %s on %s", event.ID, event.Date)
	return event, nil
}

func (s *ServiceImpl) Update(ctx context.Context, event Event) (Event, error) {
	if event.IsHoliday {
		return Event{}, ErrHolidayReadOnly
	}
	if event.ID == "" {
		return Event{}, ErrEventNotFound
	}
	event = Normalize(event)
	if err := Validate(event, s.maxSpanDays); err != nil {
		return Event{}, err
	}

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	log.Debugf("updated event %s", event.ID)
	return event, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, event Event) error {
	if event.IsHoliday {
		return ErrHolidayReadOnly
	}
	if err := s.repo.DeleteEvent(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	log.Debugf("deleted event %s", event.ID)
	return nil
}
