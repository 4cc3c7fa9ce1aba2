package calendar

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clubcal/clubcal/internal/rest"
	"github.com/clubcal/clubcal/internal/utils"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Snapshotter exposes the live event set kept by Feed.
type Snapshotter interface {
	Snapshot() []Event
	Find(id string) (Event, bool)
}

type Handler struct {
	service      Service
	events       Snapshotter
	loc          *time.Location
	calendarName func() string
	clock        utils.Clock
}

type EventDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	EndDate   string `json:"endDate,omitempty"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	Color     string `json:"color"`
	IsAllDay  bool   `json:"isAllDay"`
	IsHoliday bool   `json:"isHoliday,omitempty"`
}

func NewHandler(service Service, events Snapshotter, loc *time.Location, calendarName func() string, clock utils.Clock) *Handler {
	return &Handler{
		service:      service,
		events:       events,
		loc:          loc,
		calendarName: calendarName,
		clock:        clock,
	}
}

// ListEvents returns the current snapshot, optionally limited to the days between
// the from and to query parameters.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := h.events.Snapshot()

	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from != "" || to != "" {
		start, err := datekey.FromKey(datekey.Key(from), h.loc)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in YYYY-MM-DD format")
			return
		}
		end, err := datekey.FromKey(datekey.Key(to), h.loc)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in YYYY-MM-DD format")
			return
		}
		events = lo.Filter(events, func(e Event, _ int) bool { return e.OverlapsRange(start, end) })
	}

	rest.WriteJSON(w, http.StatusOK, lo.Map(events, func(e Event, _ int) EventDTO { return EventToDTO(e) }))
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var dto EventDTO
	if !rest.DecodeJSON(w, r, &dto) {
		return
	}
	log.Tracef("creating event: %+v", dto)

	created, err := h.service.Create(r.Context(), DTOToEvent(dto))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, EventToDTO(created))
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var dto EventDTO
	if !rest.DecodeJSON(w, r, &dto) {
		return
	}
	event := DTOToEvent(dto)
	event.ID = mux.Vars(r)["id"]
	// The stored holiday flag wins over whatever the client sent.
	if existing, ok := h.events.Find(event.ID); ok {
		event.IsHoliday = existing.IsHoliday
	}

	updated, err := h.service.Update(r.Context(), event)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, EventToDTO(updated))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	event, ok := h.events.Find(id)
	if !ok {
		event = Event{ID: id}
	}

	if err := h.service.Delete(r.Context(), event); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetICS serves the whole calendar, holidays included, as an iCalendar feed.
func (h *Handler) GetICS(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	if err := WriteICS(&b, h.events.Snapshot(), h.calendarName(), h.loc, h.clock.Now()); err != nil {
		log.Errorf("could not render calendar feed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not render calendar", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="calendar.ics"`)
	_, _ = w.Write([]byte(b.String()))
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", strings.Join(validationErr.Problems, "; "))
	case errors.Is(err, ErrHolidayReadOnly):
		rest.WriteError(w, http.StatusForbidden, "Holidays cannot be modified", err.Error())
	case errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, "Event not found", err.Error())
	default:
		log.Errorf("event operation failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not save the event", err.Error())
	}
}

func EventToDTO(e Event) EventDTO {
	return EventDTO{
		ID:        e.ID,
		Date:      string(e.Date),
		EndDate:   string(e.EndDate),
		Title:     e.Title,
		Time:      e.Time,
		Color:     string(e.Color),
		IsAllDay:  e.IsAllDay,
		IsHoliday: e.IsHoliday,
	}
}

// DTOToEvent never trusts the client's holiday flag.
func DTOToEvent(dto EventDTO) Event {
	return Event{
		ID:       dto.ID,
		Date:     datekey.Key(dto.Date),
		EndDate:  datekey.Key(dto.EndDate),
		Title:    dto.Title,
		Time:     dto.Time,
		Color:    Color(dto.Color),
		IsAllDay: dto.IsAllDay,
	}
}
