package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clubcal/clubcal/internal/utils"
	"github.com/clubcal/clubcal/pkg/calendar"
	"github.com/clubcal/clubcal/pkg/locale"
	"github.com/clubcal/clubcal/pkg/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
)

var madrid, _ = time.LoadLocation("Europe/Madrid")

type staticEvents []calendar.Event

func (s staticEvents) Snapshot() []calendar.Event {
	return s
}

type importerStub struct {
	imported []*gcal.Event
	failOn   string
}

func (i *importerStub) Import(_ context.Context, calendarId string, event *gcal.Event) error {
	if event.ICalUID == i.failOn {
		return assert.AnError
	}
	i.imported = append(i.imported, event)
	return nil
}

type serviceStub struct {
	importer  *importerStub
	calendars []CalendarItem
	err       error
}

func (s *serviceStub) ListCalendars(context.Context) ([]CalendarItem, error) {
	return s.calendars, s.err
}

func (s *serviceStub) Importer(context.Context) (EventImporter, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.importer, nil
}

var (
	campus  = calendar.Event{ID: "campus", Date: "2025-03-10", EndDate: "2025-03-12", Title: "Campus", Color: calendar.ColorTeal, IsAllDay: true}
	torneo  = calendar.Event{ID: "torneo", Date: "2025-03-29", Title: "Torneo", Time: "10:00", Color: calendar.ColorRed}
	abril   = calendar.Event{ID: "abril", Date: "2025-04-02", Title: "Clase", Time: "18:30", Color: calendar.ColorBlue}
	holiday = calendar.Event{ID: "holiday-2025-03-19", Date: "2025-03-19", Title: "San José", Color: calendar.ColorGreen, IsAllDay: true, IsHoliday: true}
)

func TestToGoogleEvent(t *testing.T) {
	t.Run("all day events use exclusive date-only ends", func(t *testing.T) {
		event, err := toGoogleEvent(campus, madrid)

		require.NoError(t, err)
		assert.Equal(t, "campus@clubcal", event.ICalUID)
		assert.Equal(t, "Campus", event.Summary)
		assert.Equal(t, "7", event.ColorId)
		assert.Equal(t, &gcal.EventDateTime{Date: "2025-03-10"}, event.Start)
		assert.Equal(t, &gcal.EventDateTime{Date: "2025-03-13"}, event.End)
		assert.Empty(t, event.Transparency)
	})

	t.Run("timed events last one hour in the club timezone", func(t *testing.T) {
		// Spain switches to summer time on 2025-03-30.
		event, err := toGoogleEvent(torneo, madrid)

		require.NoError(t, err)
		assert.Equal(t, &gcal.EventDateTime{DateTime: "2025-03-29T10:00:00+01:00", TimeZone: "Europe/Madrid"}, event.Start)
		assert.Equal(t, &gcal.EventDateTime{DateTime: "2025-03-29T11:00:00+01:00", TimeZone: "Europe/Madrid"}, event.End)
	})

	t.Run("holidays do not block time", func(t *testing.T) {
		event, err := toGoogleEvent(holiday, madrid)

		require.NoError(t, err)
		assert.Equal(t, "transparent", event.Transparency)
	})
}

func TestPublisher_Publish(t *testing.T) {
	march := time.Date(2025, 3, 1, 0, 0, 0, 0, madrid)
	endOfMarch := time.Date(2025, 3, 31, 0, 0, 0, 0, madrid)

	t.Run("imports the events of the period and collects failures", func(t *testing.T) {
		importer := &importerStub{failOn: "torneo@clubcal"}
		publisher := NewPublisher(&serviceStub{importer: importer}, staticEvents{campus, torneo, abril, holiday}, madrid, "club@group.calendar.google.com")

		result, err := publisher.Publish(context.Background(), march, endOfMarch)

		require.NoError(t, err)
		assert.Equal(t, PublishResult{CalendarId: "club@group.calendar.google.com", Imported: 2, Failed: []string{"torneo"}}, result)
		require.Len(t, importer.imported, 2)
		assert.Equal(t, "campus@clubcal", importer.imported[0].ICalUID)
		assert.Equal(t, "holiday-2025-03-19@clubcal", importer.imported[1].ICalUID)
	})

	t.Run("requires a calendar", func(t *testing.T) {
		publisher := NewPublisher(&serviceStub{importer: &importerStub{}}, staticEvents{campus}, madrid, "")

		_, err := publisher.Publish(context.Background(), march, endOfMarch)

		assert.ErrorIs(t, err, ErrNoCalendar)
	})

	t.Run("requires a connected account", func(t *testing.T) {
		publisher := NewPublisher(&serviceStub{err: ErrUnauthenticated}, staticEvents{campus}, madrid, "primary")

		_, err := publisher.Publish(context.Background(), march, endOfMarch)

		assert.ErrorIs(t, err, ErrUnauthenticated)
	})
}

func TestHandler(t *testing.T) {
	importer := &importerStub{}
	service := &serviceStub{importer: importer, calendars: []CalendarItem{{ID: "primary", Summary: "Club"}}}
	publisher := NewPublisher(service, staticEvents{campus, torneo, abril}, madrid, "primary")
	clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 5, 9, 0, 0, 0, madrid)}
	handler := NewHandler(service, publisher, clock, period.DefaultWindows, locale.Spanish)

	t.Run("list calendars", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ListCalendars(rr, httptest.NewRequest(http.MethodGet, "/api/integrations/google/calendars", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var items []CalendarItemDto
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&items))
		assert.Equal(t, []CalendarItemDto{{Id: "primary", Summary: "Club"}}, items)
	})

	t.Run("publish a quarter", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Publish(rr, httptest.NewRequest(http.MethodPost, "/api/integrations/google/publish?months=3", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var dto PublishResultDto
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&dto))
		assert.Equal(t, PublishResultDto{CalendarId: "primary", Label: "marzo - mayo 2025", Imported: 3, Failed: []string{}}, dto)
	})

	t.Run("unsupported window", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.Publish(rr, httptest.NewRequest(http.MethodPost, "/api/integrations/google/publish?months=2", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not connected", func(t *testing.T) {
		disconnected := NewHandler(&serviceStub{err: ErrUnauthenticated}, NewPublisher(&serviceStub{err: ErrUnauthenticated}, staticEvents{}, madrid, "primary"), clock, nil, locale.Spanish)
		rr := httptest.NewRecorder()
		disconnected.ListCalendars(rr, httptest.NewRequest(http.MethodGet, "/api/integrations/google/calendars", nil))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
