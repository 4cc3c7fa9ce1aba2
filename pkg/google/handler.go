package google

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/clubcal/clubcal/internal/rest"
	"github.com/clubcal/clubcal/internal/utils"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/clubcal/clubcal/pkg/locale"
	"github.com/clubcal/clubcal/pkg/period"
	log "github.com/sirupsen/logrus"
)

type CalendarItemDto struct {
	Id      string `json:"id"`
	Summary string `json:"summary"`
}

type PublishResultDto struct {
	CalendarId string   `json:"calendarId"`
	Label      string   `json:"label"`
	Imported   int      `json:"imported"`
	Failed     []string `json:"failed"`
}

type Handler struct {
	service   Service
	publisher *Publisher
	clock     utils.Clock
	windows   []int
	locale    locale.Locale
}

func NewHandler(s Service, publisher *Publisher, clock utils.Clock, windows []int, l locale.Locale) *Handler {
	return &Handler{service: s, publisher: publisher, clock: clock, windows: windows, locale: l}
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.service.ListCalendars(r.Context())
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			rest.WriteError(w, http.StatusForbidden, "Google account not connected", err.Error())
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Could not list Google calendars", err.Error())
		return
	}

	calendarItems := make([]CalendarItemDto, 0, len(calendars))
	for _, c := range calendars {
		calendarItems = append(calendarItems, toCalendarItemDto(c))
	}
	rest.WriteJSON(w, http.StatusOK, calendarItems)
}

// Publish sends the period given by date and months (default: the current month) to
// the configured Google calendar.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	loc := h.publisher.loc
	ref := h.clock.Now().In(loc)
	if date := r.URL.Query().Get("date"); date != "" {
		parsed, err := datekey.FromKey(datekey.Key(date), loc)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be in YYYY-MM-DD format")
			return
		}
		ref = parsed
	}
	months := period.Month
	if value := r.URL.Query().Get("months"); value != "" {
		var err error
		if months, err = strconv.Atoi(value); err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid months", "'months' must be a number")
			return
		}
	}
	nav, err := period.NewWindow(ref, months, h.windows)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid months", err.Error())
		return
	}

	from, to := nav.Range()
	result, err := h.publisher.Publish(r.Context(), from, to)
	switch {
	case errors.Is(err, ErrUnauthenticated):
		rest.WriteError(w, http.StatusForbidden, "Google account not connected", err.Error())
		return
	case errors.Is(err, ErrNoCalendar):
		rest.WriteError(w, http.StatusConflict, "No Google calendar configured", err.Error())
		return
	case err != nil:
		log.Errorf("publishing to Google Calendar failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not publish events", err.Error())
		return
	}

	failed := result.Failed
	if failed == nil {
		failed = []string{}
	}
	rest.WriteJSON(w, http.StatusOK, PublishResultDto{
		CalendarId: result.CalendarId,
		Label:      nav.Label(h.locale),
		Imported:   result.Imported,
		Failed:     failed,
	})
}

func toCalendarItemDto(ci CalendarItem) CalendarItemDto {
	return CalendarItemDto{
		Id:      ci.ID,
		Summary: ci.Summary,
	}
}
