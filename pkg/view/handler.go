package view

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/clubcal/clubcal/internal/rest"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/clubcal/clubcal/pkg/period"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"dayData": func(day Day, capture bool) dayData { return dayData{Day: day, Capture: capture} },
}).ParseFS(templateFS, "templates/*.html"))

type dayData struct {
	Day     Day
	Capture bool
}

// Views that can be rendered as a page.
const (
	ViewMonth  = "month"
	ViewAgenda = "agenda"
	ViewPeriod = "period"
)

var errInvalidDate = errors.New("'date' must be in YYYY-MM-DD format")

type Handler struct {
	builder  *Builder
	clubName func() string
}

func NewHandler(builder *Builder, clubName func() string) *Handler {
	return &Handler{builder: builder, clubName: clubName}
}

func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	ref, err := h.refDate(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.builder.Month(ref))
}

func (h *Handler) GetAgenda(w http.ResponseWriter, r *http.Request) {
	ref, err := h.refDate(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.builder.Agenda(ref))
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	nav, ok := h.navigator(w, r, period.Quarter)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.builder.Period(nav))
}

// GetNavigation answers where the previous and next period start. With dir set the
// returned period is already moved one step in that direction.
func (h *Handler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	nav, ok := h.navigator(w, r, period.Month)
	if !ok {
		return
	}
	if d := r.URL.Query().Get("dir"); d != "" {
		dir, err := period.ParseDirection(d)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid direction", err.Error())
			return
		}
		nav = nav.Step(dir)
	}
	rest.WriteJSON(w, http.StatusOK, h.builder.Navigation(nav))
}

func (h *Handler) GetDayEvents(w http.ResponseWriter, r *http.Request) {
	day, err := h.builder.Day(datekey.Key(mux.Vars(r)["date"]))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", errInvalidDate.Error())
		return
	}
	rest.WriteJSON(w, http.StatusOK, day)
}

type page struct {
	View    string
	Lang    string
	Capture bool
	Club    string
	Label   string
	Empty   string
	Month   *Month
	Agenda  *Agenda
	Period  *Period
}

// Render serves a view as a standalone HTML page for the rasterizer. The body carries
// data-ready="true" once everything is laid out. capture=1 drops the today highlight
// and adds the club header.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	p := page{
		View:    mux.Vars(r)["view"],
		Lang:    h.builder.Locale().Tag.String(),
		Capture: r.URL.Query().Get("capture") == "1",
		Club:    h.clubName(),
	}

	switch p.View {
	case ViewMonth, ViewAgenda:
		ref, err := h.refDate(r)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid date format", err.Error())
			return
		}
		if p.View == ViewMonth {
			month := h.builder.Month(ref)
			p.Month, p.Label = &month, month.Label
		} else {
			a := h.builder.Agenda(ref)
			p.Agenda, p.Label, p.Empty = &a, a.Label, a.EmptyMessage
		}
	case ViewPeriod:
		nav, ok := h.navigator(w, r, period.Quarter)
		if !ok {
			return
		}
		pv := h.builder.Period(nav)
		p.Period, p.Label, p.Empty = &pv, pv.Label, pv.EmptyMessage
	default:
		rest.WriteError(w, http.StatusNotFound, "Unknown view", p.View)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page.html", p); err != nil {
		log.Errorf("failed to render %s view: %v", p.View, err)
		rest.WriteError(w, http.StatusInternalServerError, "Could not render view", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// refDate reads the date query parameter, defaulting to today in the club timezone.
func (h *Handler) refDate(r *http.Request) (time.Time, error) {
	value := r.URL.Query().Get("date")
	if value == "" {
		return h.builder.Today(), nil
	}
	ref, err := datekey.FromKey(datekey.Key(value), h.builder.Location())
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return ref, nil
}

func (h *Handler) navigator(w http.ResponseWriter, r *http.Request, defaultMonths int) (period.Navigator, bool) {
	ref, err := h.refDate(r)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", err.Error())
		return period.Navigator{}, false
	}
	months := defaultMonths
	if value := r.URL.Query().Get("months"); value != "" {
		months, err = strconv.Atoi(value)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid months", "'months' must be a number")
			return period.Navigator{}, false
		}
	}
	nav, err := period.NewWindow(ref, months, h.builder.Windows())
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid months", err.Error())
		return period.Navigator{}, false
	}
	return nav, true
}
