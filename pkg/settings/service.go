package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/clubcal/clubcal/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

const (
	KeyClubName        = "clubName"
	KeyHolidaysSeeded  = "holidaysSeeded"
	KeyHolidaysVersion = "holidaysVersion"
	KeyGoogleToken     = "googleToken"
)

const maxClubNameLength = 120

var ErrInvalidClubName = errors.New("club name must not be empty")

// Club is the in-memory copy of the editable club settings.
type Club struct {
	Name            string
	HolidaysSeeded  bool
	HolidaysVersion string
}

type Service interface {
	Club() Club
	ClubName() string
	SetClubName(ctx context.Context, name string) error
	HolidaysSeeded(ctx context.Context) (bool, error)
	MarkHolidaysSeeded(ctx context.Context, version string) error
	// Load decodes the value stored under key into dst and reports whether it existed.
	Load(ctx context.Context, key string, dst any) (bool, error)
	Store(ctx context.Context, key string, value any) error
}

// ServiceImpl keeps Club in memory. It is filled once by Init and afterwards only
// changed through the setters, which persist before updating memory.
type ServiceImpl struct {
	repo        Repository
	bus         *event_bus.EventBus
	defaultName string

	mu   sync.RWMutex
	club Club
}

func NewService(repo Repository, bus *event_bus.EventBus, defaultName string) *ServiceImpl {
	return &ServiceImpl{
		repo:        repo,
		bus:         bus,
		defaultName: defaultName,
		club:        Club{Name: defaultName},
	}
}

// Init reads the settings document once at startup.
func (s *ServiceImpl) Init(ctx context.Context) error {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	club := Club{Name: s.defaultName}
	if name, ok := doc[KeyClubName].(string); ok && strings.TrimSpace(name) != "" {
		club.Name = name
	}
	club.HolidaysSeeded, _ = doc[KeyHolidaysSeeded].(bool)
	club.HolidaysVersion, _ = doc[KeyHolidaysVersion].(string)

	s.mu.Lock()
	s.club = club
	s.mu.Unlock()
	log.Infof("club settings loaded: %q", club.Name)
	return nil
}

func (s *ServiceImpl) Club() Club {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.club
}

func (s *ServiceImpl) ClubName() string {
	return s.Club().Name
}

func (s *ServiceImpl) SetClubName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidClubName
	}
	if len([]rune(name)) > maxClubNameLength {
		return fmt.Errorf("club name must be at most %d characters", maxClubNameLength)
	}

	if _, err := s.repo.Merge(ctx, map[string]any{KeyClubName: name}); err != nil {
		return fmt.Errorf("failed to store club name: %w", err)
	}
	s.mu.Lock()
	s.club.Name = name
	s.mu.Unlock()

	s.publish(ctx, KeyClubName, name)
	return nil
}

func (s *ServiceImpl) HolidaysSeeded(ctx context.Context) (bool, error) {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	seeded, _ := doc[KeyHolidaysSeeded].(bool)
	return seeded, nil
}

func (s *ServiceImpl) MarkHolidaysSeeded(ctx context.Context, version string) error {
	_, err := s.repo.Merge(ctx, map[string]any{
		KeyHolidaysSeeded:  true,
		KeyHolidaysVersion: version,
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.club.HolidaysSeeded = true
	s.club.HolidaysVersion = version
	s.mu.Unlock()

	s.publish(ctx, KeyHolidaysSeeded, true)
	return nil
}

func (s *ServiceImpl) Load(ctx context.Context, key string, dst any) (bool, error) {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return false, err
	}
	value, ok := doc[key]
	if !ok || value == nil {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}
	return true, nil
}

// Store writes a single key. A nil value clears it.
func (s *ServiceImpl) Store(ctx context.Context, key string, value any) error {
	if _, err := s.repo.Merge(ctx, map[string]any{key: value}); err != nil {
		return err
	}
	s.publish(ctx, key, nil)
	return nil
}

func (s *ServiceImpl) publish(ctx context.Context, key string, value any) {
	if s.bus == nil {
		return
	}
	err := s.bus.Publish(event_bus.NewEvent(ctx, event_bus.SettingsUpdatedType, event_bus.SettingsUpdated{Key: key, Value: value}))
	if err != nil {
		log.Warnf("settings listeners failed for %s: %v", key, err)
	}
}
