package app

import (
	"fmt"
	"time"

	"github.com/clubcal/clubcal/internal/config"
	"github.com/clubcal/clubcal/internal/event_bus"
	"github.com/clubcal/clubcal/internal/utils"
	"github.com/clubcal/clubcal/pkg/calendar"
	"github.com/clubcal/clubcal/pkg/export"
	"github.com/clubcal/clubcal/pkg/google"
	"github.com/clubcal/clubcal/pkg/grid"
	"github.com/clubcal/clubcal/pkg/holiday"
	"github.com/clubcal/clubcal/pkg/locale"
	"github.com/clubcal/clubcal/pkg/settings"
	"github.com/clubcal/clubcal/pkg/view"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus
	Location *time.Location
	Locale   locale.Locale

	SettingsRepository *settings.RepositoryImpl
	SettingsService    *settings.ServiceImpl
	SettingsHandler    *settings.Handler

	EventRepository *calendar.RepositoryImpl
	EventService    *calendar.ServiceImpl
	EventFeed       *calendar.Feed
	EventHandler    *calendar.Handler

	HolidayFixture holiday.Fixture
	// HolidaySeeder is nil unless holidays are stored in the database.
	HolidaySeeder *holiday.Seeder

	ViewBuilder *view.Builder
	ViewHandler *view.Handler

	ExportSurface   *export.ChromiumSurface
	Exporter        *export.Exporter
	ExportHandler   *export.Handler
	ExportScheduler *export.Scheduler

	GoogleAuth      *google.GoogleAuth
	GoogleService   google.Service
	GooglePublisher *google.Publisher
	GoogleHandler   *google.Handler

	StreamHandler *StreamHandler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) (*Dependencies, error) {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()
	deps.Location = cfg.Location()
	deps.Locale = locale.Match(cfg.Club.Locale)

	deps.SettingsRepository = settings.NewRepository(db)
	deps.SettingsService = settings.NewService(deps.SettingsRepository, deps.EventBus, cfg.Club.Name)
	deps.SettingsHandler = settings.NewHandler(deps.SettingsService, cfg)

	fixture, err := holiday.Load()
	if err != nil {
		return nil, err
	}
	strategy, err := holiday.ParseStrategy(cfg.Holidays.Strategy)
	if err != nil {
		return nil, err
	}
	deps.HolidayFixture = fixture

	deps.EventRepository = calendar.NewRepository(db)
	deps.EventService = calendar.NewService(deps.EventRepository, cfg.Agenda.MaxSpanDays)
	var static []calendar.Event
	switch strategy {
	case holiday.StrategyEphemeral:
		static = fixture.Events()
	case holiday.StrategySeeded:
		deps.HolidaySeeder = holiday.NewSeeder(fixture, deps.EventRepository, deps.SettingsService, deps.EventBus)
	}
	deps.EventFeed = calendar.NewFeed(deps.EventRepository, deps.EventBus, static)
	deps.EventHandler = calendar.NewHandler(deps.EventService, deps.EventFeed, deps.Location, deps.SettingsService.ClubName, deps.Clock)

	deps.ViewBuilder = view.NewBuilder(deps.EventFeed, deps.Clock, view.Options{
		Locale:      deps.Locale,
		Location:    deps.Location,
		WeekStart:   grid.ParseWeekStart(cfg.Club.WeekStart),
		MaxSpanDays: cfg.Agenda.MaxSpanDays,
		Windows:     cfg.Agenda.Windows,
	})
	deps.ViewHandler = view.NewHandler(deps.ViewBuilder, deps.SettingsService.ClubName)

	layout := export.Layout{Width: cfg.Export.Width, Height: cfg.Export.Height, Scale: cfg.Export.Scale}
	deps.ExportSurface = export.NewChromiumSurface(cfg.Export.BaseURL, layout, cfg.Export.Timeout)
	deps.Exporter = export.NewExporter(deps.ExportSurface, export.Options{
		Layout:   layout,
		Locale:   deps.Locale,
		Location: deps.Location,
		Windows:  cfg.Agenda.Windows,
	}, deps.SettingsService.ClubName, deps.Clock, deps.EventBus)
	deps.ExportHandler = export.NewHandler(deps.Exporter, deps.Location)
	if cfg.Export.Schedule != "" {
		deps.ExportScheduler, err = export.NewScheduler(deps.Exporter, cfg.Export.Schedule, cfg.Export.OutputDir, deps.Location)
		if err != nil {
			return nil, fmt.Errorf("failed to set up scheduled exports: %w", err)
		}
	}

	deps.GoogleAuth = google.NewGoogleAuth(deps.SettingsService, cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth)
	deps.GooglePublisher = google.NewPublisher(deps.GoogleService, deps.EventFeed, deps.Location, cfg.Google.CalendarId)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService, deps.GooglePublisher, deps.Clock, cfg.Agenda.Windows, deps.Locale)

	deps.StreamHandler = NewStreamHandler(deps.EventBus)

	return deps, nil
}
