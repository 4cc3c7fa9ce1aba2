package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/clubcal/clubcal/internal/event_bus"
	"github.com/clubcal/clubcal/internal/utils"
	"github.com/clubcal/clubcal/pkg/datekey"
	"github.com/clubcal/clubcal/pkg/locale"
	"github.com/clubcal/clubcal/pkg/period"
	"github.com/clubcal/clubcal/pkg/view"
	log "github.com/sirupsen/logrus"
)

var (
	ErrExportInProgress = errors.New("an export is already in progress")
	ErrShareCancelled   = errors.New("share cancelled")
	ErrUnknownView      = errors.New("unknown view")
	ErrUnknownAction    = errors.New("unknown action")
)

type Action string

const (
	ActionDownload Action = "download"
	ActionShare    Action = "share"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case "", ActionDownload:
		return ActionDownload, nil
	case ActionShare:
		return ActionShare, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// PhoneLayout is the portrait viewport the agenda is captured in.
var PhoneLayout = Layout{Width: 375, Height: 667, Scale: 3}

// Layout is the viewport a Surface renders at.
type Layout struct {
	Width  int
	Height int
	Scale  float64
}

// Target names the page a Surface captures.
type Target struct {
	View   string
	Date   datekey.Key
	Months int
}

// Surface renders a view into a PNG. Its layout is shared state: an export changes it
// for the duration of one capture only.
type Surface interface {
	Layout() Layout
	SetLayout(Layout)
	Capture(ctx context.Context, target Target) ([]byte, error)
}

type Request struct {
	View   string
	Ref    time.Time
	Months int
	Action Action
}

type File struct {
	Filename string
	Data     []byte
	Label    string
	// Title and Text are filled for shares.
	Title string
	Text  string
}

// Options configure an Exporter. Layout applies to every view except the agenda,
// which is captured at PhoneLayout.
type Options struct {
	Layout   Layout
	Locale   locale.Locale
	Location *time.Location
	Windows  []int
}

type Exporter struct {
	surface  Surface
	opts     Options
	clubName func() string
	clock    utils.Clock
	bus      *event_bus.EventBus

	busy atomic.Bool
}

func NewExporter(surface Surface, opts Options, clubName func() string, clock utils.Clock, bus *event_bus.EventBus) *Exporter {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(opts.Windows) == 0 {
		opts.Windows = period.DefaultWindows
	}
	return &Exporter{
		surface:  surface,
		opts:     opts,
		clubName: clubName,
		clock:    clock,
		bus:      bus,
	}
}

// Busy reports whether an export is running.
func (e *Exporter) Busy() bool {
	return e.busy.Load()
}

// Export captures one view. Only one export runs at a time; a concurrent call fails
// with ErrExportInProgress. The surface layout is restored on every exit path.
func (e *Exporter) Export(ctx context.Context, req Request) (File, error) {
	if req.Action == "" {
		req.Action = ActionDownload
	}
	target, label, err := e.resolve(req)
	if err != nil {
		return File{}, err
	}

	if !e.busy.CompareAndSwap(false, true) {
		return File{}, ErrExportInProgress
	}
	defer e.busy.Store(false)

	previous := e.surface.Layout()
	defer e.surface.SetLayout(previous)
	if target.View == view.ViewAgenda {
		e.surface.SetLayout(PhoneLayout)
	} else {
		e.surface.SetLayout(e.opts.Layout)
	}

	log.Debugf("exporting %s %s (%s)", target.View, target.Date, req.Action)
	data, err := e.surface.Capture(ctx, target)
	if err != nil {
		if req.Action == ActionShare && errors.Is(ctx.Err(), context.Canceled) {
			return File{}, ErrShareCancelled
		}
		return File{}, fmt.Errorf("failed to capture %s view: %w", target.View, err)
	}

	file := File{
		Filename: Filename(target.View, label),
		Data:     data,
		Label:    label,
	}
	if req.Action == ActionShare {
		club := e.clubName()
		file.Title = e.opts.Locale.ShareTitle(club, label)
		file.Text = e.opts.Locale.ShareText(club, label)
	}

	if e.bus != nil {
		completed := event_bus.ExportCompleted{View: target.View, Filename: file.Filename, Action: string(req.Action), Size: len(data)}
		if err := e.bus.Publish(event_bus.NewEvent(ctx, event_bus.ExportCompletedType, completed)); err != nil {
			log.Warnf("export listeners failed: %v", err)
		}
	}
	return file, nil
}

func (e *Exporter) resolve(req Request) (Target, string, error) {
	ref := req.Ref
	if ref.IsZero() {
		ref = e.clock.Now()
	}
	ref = datekey.FirstOfMonth(ref.In(e.opts.Location))

	switch req.View {
	case view.ViewMonth, view.ViewAgenda:
		return Target{View: req.View, Date: datekey.ToKey(ref), Months: period.Month}, e.opts.Locale.MonthYear(ref), nil
	case view.ViewPeriod:
		months := req.Months
		if months == 0 {
			months = period.Quarter
		}
		nav, err := period.NewWindow(ref, months, e.opts.Windows)
		if err != nil {
			return Target{}, "", err
		}
		return Target{View: req.View, Date: datekey.ToKey(nav.Ref), Months: nav.Months}, nav.Label(e.opts.Locale), nil
	}
	return Target{}, "", fmt.Errorf("%w: %q", ErrUnknownView, req.View)
}

// Filename is "<view>-<label>.png" with the label lowercased and every whitespace
// character replaced by '-'.
func Filename(viewName, label string) string {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, strings.ToLower(label))
	return viewName + "-" + slug + ".png"
}
