package google

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

var ErrUnauthenticated = errors.New("google account is not connected, authentication is required")

type CalendarItem struct {
	ID      string
	Summary string
}

// EventImporter writes one event into a Google calendar, matching existing copies by
// their iCalUID.
type EventImporter interface {
	Import(ctx context.Context, calendarId string, event *gcal.Event) error
}

type Service interface {
	ListCalendars(ctx context.Context) ([]CalendarItem, error)
	Importer(ctx context.Context) (EventImporter, error)
}

type ServiceImpl struct {
	auth *GoogleAuth
}

func NewService(auth *GoogleAuth) *ServiceImpl {
	return &ServiceImpl{
		auth: auth,
	}
}

func (s *ServiceImpl) ListCalendars(ctx context.Context) ([]CalendarItem, error) {
	googleService, err := s.prepareGoogleService(ctx)
	if err != nil {
		return nil, err
	}
	calendars, err := googleService.CalendarList.List().Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve calendars from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}
	googleCalendars := make([]CalendarItem, 0, len(calendars.Items))
	for _, cal := range calendars.Items {
		googleCalendars = append(googleCalendars, CalendarItem{
			ID:      cal.Id,
			Summary: cal.Summary,
		})
	}
	return googleCalendars, nil
}

func (s *ServiceImpl) Importer(ctx context.Context) (EventImporter, error) {
	googleService, err := s.prepareGoogleService(ctx)
	if err != nil {
		return nil, err
	}
	return &eventImporter{service: googleService}, nil
}

func (s *ServiceImpl) prepareGoogleService(ctx context.Context) (*gcal.Service, error) {
	client, err := s.auth.getClient(ctx)
	if err != nil {
		err := fmt.Errorf("unable to retrieve Google auth client: %w", err)
		log.Error(err)
		return nil, err
	}
	if client == nil {
		log.Debug("google account is not connected, authentication is required")
		return nil, ErrUnauthenticated
	}
	service, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		err := fmt.Errorf("unable to retrieve Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}

	return service, nil
}

type eventImporter struct {
	service *gcal.Service
}

func (i *eventImporter) Import(ctx context.Context, calendarId string, event *gcal.Event) error {
	_, err := i.service.Events.Import(calendarId, event).Context(ctx).Do()
	return err
}
