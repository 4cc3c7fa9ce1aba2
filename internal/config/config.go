package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "CLUBCAL_"

type Application struct {
	Host     string   `koanf:"host"`
	Listen   string   `koanf:"listen"`
	Frontend Frontend `koanf:"frontend"`
	Club     Club     `koanf:"club"`
	Holidays Holidays `koanf:"holidays"`
	Agenda   Agenda   `koanf:"agenda"`
	Export   Export   `koanf:"export"`
	Google   Google   `koanf:"google"`
	Database Database `koanf:"db"`
}

type Frontend struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir"`
}

// Club holds the startup values of the club settings. The club name is only a
// default: once edited it lives in the settings document.
type Club struct {
	Name      string `koanf:"name"`
	Locale    string `koanf:"locale"`
	Timezone  string `koanf:"timezone"`
	WeekStart string `koanf:"weekstart"`
}

type Holidays struct {
	// Strategy is "ephemeral" or "seeded".
	Strategy string `koanf:"strategy"`
}

type Agenda struct {
	MaxSpanDays int   `koanf:"maxspandays"`
	Windows     []int `koanf:"windows"`
}

type Export struct {
	// BaseURL is where the headless browser reaches the render pages.
	BaseURL   string        `koanf:"baseurl"`
	Width     int           `koanf:"width"`
	Height    int           `koanf:"height"`
	Scale     float64       `koanf:"scale"`
	Timeout   time.Duration `koanf:"timeout"`
	Schedule  string        `koanf:"schedule"`
	OutputDir string        `koanf:"outputdir"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
	CalendarId   string `koanf:"calendarid"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func Defaults() Application {
	return Application{
		Host:   "http://localhost:8181",
		Listen: ":8181",
		Frontend: Frontend{
			Enabled: true,
			Dir:     "frontend",
		},
		Club: Club{
			Name:      "Los Monteros Racket Club",
			Locale:    "es-ES",
			Timezone:  "Europe/Madrid",
			WeekStart: "monday",
		},
		Holidays: Holidays{Strategy: "ephemeral"},
		Agenda: Agenda{
			MaxSpanDays: 366,
			Windows:     []int{3, 4, 6},
		},
		Export: Export{
			BaseURL: "http://localhost:8181",
			Width:   1280,
			Height:  900,
			Scale:   3,
			Timeout: 60 * time.Second,
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "clubcal",
			Pass:   "",
			Name:   "clubcal",
			Schema: "clubcal",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			if k == "agenda.windows" {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if err := app.Normalize(); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Normalize replaces empty or unsupported values with defaults and rejects the ones
// that cannot be guessed.
func (a *Application) Normalize() error {
	defaults := Defaults()

	switch strings.ToLower(strings.TrimSpace(a.Club.WeekStart)) {
	case "monday", "sunday":
		a.Club.WeekStart = strings.ToLower(strings.TrimSpace(a.Club.WeekStart))
	default:
		if a.Club.WeekStart != "" {
			log.Warnf("unsupported week start %q, using monday", a.Club.WeekStart)
		}
		a.Club.WeekStart = "monday"
	}
	if strings.TrimSpace(a.Club.Name) == "" {
		a.Club.Name = defaults.Club.Name
	}
	if a.Club.Timezone == "" {
		a.Club.Timezone = defaults.Club.Timezone
	}
	if _, err := time.LoadLocation(a.Club.Timezone); err != nil {
		return fmt.Errorf("invalid club timezone %q: %w", a.Club.Timezone, err)
	}
	switch a.Holidays.Strategy {
	case "":
		a.Holidays.Strategy = defaults.Holidays.Strategy
	case "ephemeral", "seeded":
	default:
		return fmt.Errorf("invalid holidays strategy %q", a.Holidays.Strategy)
	}
	if a.Agenda.MaxSpanDays <= 0 {
		a.Agenda.MaxSpanDays = defaults.Agenda.MaxSpanDays
	}
	if len(a.Agenda.Windows) == 0 {
		a.Agenda.Windows = defaults.Agenda.Windows
	}
	if a.Export.Scale <= 0 {
		a.Export.Scale = defaults.Export.Scale
	}
	if a.Export.Width <= 0 || a.Export.Height <= 0 {
		a.Export.Width, a.Export.Height = defaults.Export.Width, defaults.Export.Height
	}
	if a.Export.Timeout <= 0 {
		a.Export.Timeout = defaults.Export.Timeout
	}
	return nil
}

// Location is the club timezone. Normalize has already validated it.
func (a Application) Location() *time.Location {
	loc, err := time.LoadLocation(a.Club.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
