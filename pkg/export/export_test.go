package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/clubcal/clubcal/internal/event_bus"
	"github.com/clubcal/clubcal/internal/utils"
	"github.com/clubcal/clubcal/pkg/locale"
	"github.com/clubcal/clubcal/pkg/period"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

var desktop = Layout{Width: 1280, Height: 900, Scale: 3}

// fakeSurface records the layout seen by each capture. When block is set, Capture
// waits for it to be closed or for the context to end.
type fakeSurface struct {
	mu       sync.Mutex
	layout   Layout
	captured []Layout
	targets  []Target
	block    chan struct{}
	started  chan struct{}
	err      error
}

func (f *fakeSurface) Layout() Layout {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.layout
}

func (f *fakeSurface) SetLayout(l Layout) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.layout = l
}

func (f *fakeSurface) Capture(ctx context.Context, target Target) ([]byte, error) {
	f.mu.Lock()
	f.captured = append(f.captured, f.layout)
	f.targets = append(f.targets, target)
	block, started, err := f.block, f.started, f.err
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return []byte("png:" + target.View), nil
}

func setupExporter(surface *fakeSurface, bus *event_bus.EventBus) *Exporter {
	clock := &utils.MockClock{FixedNow: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	opts := Options{Layout: desktop, Locale: locale.Spanish, Location: time.UTC}
	return NewExporter(surface, opts, func() string { return "Los Monteros Racket Club" }, clock, bus)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		view, label, expected string
	}{
		{"month", "marzo 2025", "month-marzo-2025.png"},
		{"agenda", "Marzo 2025", "agenda-marzo-2025.png"},
		{"period", "enero - marzo 2025", "period-enero---marzo-2025.png"},
		{"period", "diciembre - febrero 2025 - 2026", "period-diciembre---febrero-2025---2026.png"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Filename(tt.view, tt.label))
		})
	}
}

func TestExporter_Export(t *testing.T) {
	t.Run("month download uses the configured layout and restores the previous one", func(t *testing.T) {
		surface := &fakeSurface{layout: Layout{Width: 800, Height: 600, Scale: 1}}
		bus := event_bus.NewEventBus()
		var completed []event_bus.ExportCompleted
		event_bus.SubscribeTyped(bus, event_bus.ExportCompletedType, func(e event_bus.EventT[event_bus.ExportCompleted]) error {
			completed = append(completed, e.Data)
			return nil
		})

		file, err := setupExporter(surface, bus).Export(ctx, Request{View: "month", Ref: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)})

		require.NoError(t, err)
		assert.Equal(t, "month-marzo-2025.png", file.Filename)
		assert.Equal(t, []byte("png:month"), file.Data)
		assert.Empty(t, file.Title)
		assert.Equal(t, []Layout{desktop}, surface.captured)
		assert.Equal(t, []Target{{View: "month", Date: "2025-03-01", Months: 1}}, surface.targets)
		assert.Equal(t, Layout{Width: 800, Height: 600, Scale: 1}, surface.Layout())
		assert.Equal(t, []event_bus.ExportCompleted{{View: "month", Filename: "month-marzo-2025.png", Action: "download", Size: 9}}, completed)
	})

	t.Run("agenda is captured on the phone layout", func(t *testing.T) {
		surface := &fakeSurface{layout: desktop}

		_, err := setupExporter(surface, nil).Export(ctx, Request{View: "agenda"})

		require.NoError(t, err)
		assert.Equal(t, []Layout{PhoneLayout}, surface.captured)
		assert.Equal(t, desktop, surface.Layout())
	})

	t.Run("share carries title and text", func(t *testing.T) {
		surface := &fakeSurface{}

		file, err := setupExporter(surface, nil).Export(ctx, Request{View: "period", Months: 3, Action: ActionShare})

		require.NoError(t, err)
		assert.Equal(t, "period-marzo---mayo-2025.png", file.Filename)
		assert.Equal(t, "Calendario Los Monteros Racket Club - marzo - mayo 2025", file.Title)
		assert.Equal(t, "Aquí está el calendario de Los Monteros Racket Club para marzo - mayo 2025.", file.Text)
	})

	t.Run("capture failure still restores the layout", func(t *testing.T) {
		surface := &fakeSurface{layout: Layout{Width: 1}, err: assert.AnError}
		exporter := setupExporter(surface, nil)

		_, err := exporter.Export(ctx, Request{View: "agenda"})

		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, Layout{Width: 1}, surface.Layout())
		assert.False(t, exporter.Busy())
	})

	t.Run("invalid requests never touch the surface", func(t *testing.T) {
		surface := &fakeSurface{}
		exporter := setupExporter(surface, nil)

		_, err := exporter.Export(ctx, Request{View: "week"})
		assert.ErrorIs(t, err, ErrUnknownView)
		_, err = exporter.Export(ctx, Request{View: "period", Months: 5})
		assert.ErrorIs(t, err, period.ErrUnsupportedWindow)
		assert.Empty(t, surface.targets)
	})
}

func TestExporter_SingleFlight(t *testing.T) {
	surface := &fakeSurface{block: make(chan struct{}), started: make(chan struct{})}
	exporter := setupExporter(surface, nil)

	done := make(chan error, 1)
	go func() {
		_, err := exporter.Export(ctx, Request{View: "month"})
		done <- err
	}()
	<-surface.started

	_, err := exporter.Export(ctx, Request{View: "agenda"})
	assert.ErrorIs(t, err, ErrExportInProgress)
	assert.True(t, exporter.Busy())

	close(surface.block)
	require.NoError(t, <-done)
	assert.False(t, exporter.Busy())
}

func TestExporter_ShareCancelled(t *testing.T) {
	surface := &fakeSurface{layout: desktop, block: make(chan struct{}), started: make(chan struct{})}
	exporter := setupExporter(surface, nil)
	cancelCtx, cancel := context.WithCancel(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := exporter.Export(cancelCtx, Request{View: "agenda", Action: ActionShare})
		done <- err
	}()
	<-surface.started
	cancel()

	err := <-done
	assert.True(t, errors.Is(err, ErrShareCancelled))
	assert.Equal(t, desktop, surface.Layout())
}

func TestScheduler_Run(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "posters")
	scheduler, err := NewScheduler(setupExporter(&fakeSurface{}, nil), "0 6 * * *", dir, time.UTC)
	require.NoError(t, err)

	path, err := scheduler.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "month-marzo-2025.png"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png:month"), data)
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler(setupExporter(&fakeSurface{}, nil), "every day", t.TempDir(), time.UTC)
	assert.Error(t, err)
}
