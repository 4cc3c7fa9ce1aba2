package locale

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// Locale holds the calendar vocabulary used for labels and headers.
type Locale struct {
	Tag           language.Tag
	months        [12]string
	weekdays      [7]string // indexed by time.Weekday
	weekdaysShort [7]string
	longDate      func(l Locale, t time.Time) string
	Messages      Messages
}

// Messages are the fixed texts the renderer shows next to computed data.
type Messages struct {
	AllDay         string
	NoEventsMonth  string
	NoEventsPeriod string
	NoEventsDay    string
	ShareTitle     string // club, period label
	ShareText      string // club, period label

	// NoEventsByMonths overrides NoEventsPeriod for windows of a given length.
	NoEventsByMonths map[int]string
}

var Spanish = Locale{
	Tag: language.Spanish,
	months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
	weekdays:      [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
	weekdaysShort: [7]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"},
	longDate: func(l Locale, t time.Time) string {
		return fmt.Sprintf("%s, %d de %s de %d", l.Weekday(t.Weekday()), t.Day(), l.Month(t.Month()), t.Year())
	},
	Messages: Messages{
		AllDay:         "Todo el día",
		NoEventsMonth:  "No hay eventos para este mes.",
		NoEventsPeriod: "No hay eventos para este período.",
		NoEventsDay:    "No hay eventos para este día.",
		ShareTitle:     "Calendario %s - %s",
		ShareText:      "Aquí está el calendario de %s para %s.",
		NoEventsByMonths: map[int]string{
			3: "No hay eventos para este trimestre.",
			4: "No hay eventos para este cuatrimestre.",
			6: "No hay eventos para este semestre.",
		},
	},
}

var English = Locale{
	Tag: language.English,
	months: [12]string{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
	weekdays:      [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	weekdaysShort: [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
	longDate: func(l Locale, t time.Time) string {
		return fmt.Sprintf("%s, %s %d, %d", l.Weekday(t.Weekday()), l.Month(t.Month()), t.Day(), t.Year())
	},
	Messages: Messages{
		AllDay:         "All day",
		NoEventsMonth:  "No events this month.",
		NoEventsPeriod: "No events this period.",
		NoEventsDay:    "No events this day.",
		ShareTitle:     "%s calendar - %s",
		ShareText:      "Here is the %s calendar for %s.",
		NoEventsByMonths: map[int]string{
			3: "No events this quarter.",
			6: "No events this half-year.",
		},
	},
}

// NoEventsFor is the empty placeholder of a months long period.
func (m Messages) NoEventsFor(months int) string {
	if msg, ok := m.NoEventsByMonths[months]; ok {
		return msg
	}
	return m.NoEventsPeriod
}

var supported = []Locale{Spanish, English}

var matcher = language.NewMatcher([]language.Tag{Spanish.Tag, English.Tag})

// Match picks the supported locale closest to the BCP 47 tag s ("es-ES", "en-GB", ...).
// Unknown or empty tags fall back to Spanish.
func Match(s string) Locale {
	if s == "" {
		return Spanish
	}
	tag, err := language.Parse(s)
	if err != nil {
		log.Warnf("unknown locale %q, falling back to %s", s, Spanish.Tag)
		return Spanish
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return Spanish
	}
	return supported[idx]
}

func (l Locale) Month(m time.Month) string {
	return l.months[m-1]
}

func (l Locale) Weekday(d time.Weekday) string {
	return l.weekdays[d]
}

func (l Locale) WeekdayShort(d time.Weekday) string {
	return l.weekdaysShort[d]
}

// MonthYear formats "marzo 2025".
func (l Locale) MonthYear(t time.Time) string {
	return fmt.Sprintf("%s %d", l.Month(t.Month()), t.Year())
}

// LongDate formats the agenda day header, e.g. "lunes, 3 de marzo de 2025".
func (l Locale) LongDate(t time.Time) string {
	return l.longDate(l, t)
}

func (l Locale) ShareTitle(club, label string) string {
	return fmt.Sprintf(l.Messages.ShareTitle, club, label)
}

func (l Locale) ShareText(club, label string) string {
	return fmt.Sprintf(l.Messages.ShareText, club, label)
}
