package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubcal/clubcal/pkg/agenda"
	"github.com/clubcal/clubcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
)

var ErrNoCalendar = errors.New("no Google calendar configured")

// colorIds maps the palette onto Google's fixed event colors.
var colorIds = map[calendar.Color]string{
	calendar.ColorRed:    "11",
	calendar.ColorOrange: "6",
	calendar.ColorYellow: "5",
	calendar.ColorGreen:  "10",
	calendar.ColorTeal:   "7",
	calendar.ColorBlue:   "9",
	calendar.ColorIndigo: "1",
	calendar.ColorPurple: "3",
	calendar.ColorPink:   "4",
}

// Events is the live event set to publish from.
type Events interface {
	Snapshot() []calendar.Event
}

type PublishResult struct {
	CalendarId string
	Imported   int
	Failed     []string
}

// Publisher copies club events into a Google calendar. Publishing the same period
// twice updates the existing copies instead of duplicating them.
type Publisher struct {
	service    Service
	events     Events
	loc        *time.Location
	calendarId string
}

func NewPublisher(service Service, events Events, loc *time.Location, calendarId string) *Publisher {
	return &Publisher{service: service, events: events, loc: loc, calendarId: calendarId}
}

// Publish imports every event overlapping [from, to]. Failures of single events are
// collected; the call only fails when nothing can be sent.
func (p *Publisher) Publish(ctx context.Context, from, to time.Time) (PublishResult, error) {
	if p.calendarId == "" {
		return PublishResult{}, ErrNoCalendar
	}
	importer, err := p.service.Importer(ctx)
	if err != nil {
		return PublishResult{}, err
	}

	result := PublishResult{CalendarId: p.calendarId}
	for _, e := range agenda.FilterRange(p.events.Snapshot(), from, to) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		event, err := toGoogleEvent(e, p.loc)
		if err == nil {
			err = importer.Import(ctx, p.calendarId, event)
		}
		if err != nil {
			log.Errorf("unable to publish event %s to Google Calendar: %v", e.ID, err)
			result.Failed = append(result.Failed, e.ID)
			continue
		}
		result.Imported++
	}
	log.Infof("published %d events to Google calendar %s (%d failed)", result.Imported, p.calendarId, len(result.Failed))
	return result, nil
}

func toGoogleEvent(e calendar.Event, loc *time.Location) (*gcal.Event, error) {
	event := &gcal.Event{
		ICalUID: calendar.UID(e),
		Summary: e.Title,
		ColorId: colorIds[e.Color],
	}
	if e.IsHoliday {
		event.Transparency = "transparent"
	}

	if e.IsAllDay {
		end, err := e.End().AddDays(1)
		if err != nil {
			return nil, err
		}
		event.Start = &gcal.EventDateTime{Date: e.Date.String()}
		event.End = &gcal.EventDateTime{Date: end.String()}
		return event, nil
	}

	start, end, err := calendar.TimedRange(e, loc)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", e.ID, err)
	}
	event.Start = &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: loc.String()}
	event.End = &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: loc.String()}
	return event, nil
}
