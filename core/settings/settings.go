// Package settings owns the persisted connection settings and tells the
// scheduler when the sync interval changes.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"worklog/core/remote"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultIntervalHours is used when no valid interval is stored.
const DefaultIntervalHours = 24

const (
	keyAppID     = "app_id"
	keyAppSecret = "app_secret"
	keyAppToken  = "app_token"
	keyTableID   = "table_id"
	keyInterval  = "sync_interval"
)

// Settings is the connection configuration passed explicitly to each pass.
type Settings struct {
	AppID             string `json:"appId" yaml:"appId"`
	AppSecret         string `json:"appSecret" yaml:"appSecret"`
	AppToken          string `json:"appToken" yaml:"appToken"`
	TableID           string `json:"tableId" yaml:"tableId"`
	SyncIntervalHours int    `json:"syncInterval" yaml:"syncInterval" validate:"min=1,max=8760"`
}

// Credentials returns the remote identifiers.
func (s Settings) Credentials() remote.Credentials {
	return remote.Credentials{
		AppID:     s.AppID,
		AppSecret: s.AppSecret,
		AppToken:  s.AppToken,
		TableID:   s.TableID,
	}
}

// Complete reports whether every identifier needed for a pass is set.
func (s Settings) Complete() bool {
	return s.Credentials().Complete()
}

// Interval returns the periodic sync interval.
func (s Settings) Interval() time.Duration {
	hours := s.SyncIntervalHours
	if hours <= 0 {
		hours = DefaultIntervalHours
	}
	return time.Duration(hours) * time.Hour
}

// TableKey identifies the remote table for caches.
func (s Settings) TableKey() string {
	return s.AppToken + "/" + s.TableID
}

// Redacted returns a copy safe to display.
func (s Settings) Redacted() Settings {
	if s.AppSecret != "" {
		s.AppSecret = "******"
	}
	return s
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	AppID             *string `json:"appId"`
	AppSecret         *string `json:"appSecret"`
	AppToken          *string `json:"appToken"`
	TableID           *string `json:"tableId"`
	SyncIntervalHours *int    `json:"syncInterval"`
}

// ErrInvalidSettings wraps validation failures of an update.
var ErrInvalidSettings = errors.New("invalid settings")

// Store persists settings as key/value pairs.
type Store interface {
	LoadSettings(ctx context.Context) (map[string]string, error)
	SaveSettings(ctx context.Context, values map[string]string) error
}

// Manager is the single owner of the settings.
type Manager struct {
	store    Store
	log      *zap.Logger
	validate *validator.Validate

	mu        sync.RWMutex
	current   Settings
	listeners []func(time.Duration)
}

// NewManager loads the stored settings. When nothing is stored yet, defaults
// are persisted and become the current settings.
func NewManager(ctx context.Context, store Store, defaults Settings, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:    store,
		log:      log,
		validate: validator.New(),
	}

	values, err := store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		if defaults.SyncIntervalHours <= 0 {
			defaults.SyncIntervalHours = DefaultIntervalHours
		}
		if err := store.SaveSettings(ctx, encode(defaults)); err != nil {
			return nil, err
		}
		m.current = defaults
		log.Info("Settings initialized from configuration", zap.Bool("complete", defaults.Complete()))
		return m, nil
	}

	m.current = decode(values)
	return m, nil
}

// Current returns the current settings.
func (m *Manager) Current() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Update applies patch, persists it and notifies interval listeners when the
// interval changed.
func (m *Manager) Update(ctx context.Context, patch Patch) (Settings, error) {
	m.mu.Lock()
	next := m.current
	if patch.AppID != nil {
		next.AppID = strings.TrimSpace(*patch.AppID)
	}
	if patch.AppSecret != nil {
		next.AppSecret = strings.TrimSpace(*patch.AppSecret)
	}
	if patch.AppToken != nil {
		next.AppToken = strings.TrimSpace(*patch.AppToken)
	}
	if patch.TableID != nil {
		next.TableID = strings.TrimSpace(*patch.TableID)
	}
	if patch.SyncIntervalHours != nil {
		next.SyncIntervalHours = *patch.SyncIntervalHours
	}

	if err := m.validate.Struct(next); err != nil {
		m.mu.Unlock()
		return Settings{}, fmt.Errorf("%w: sync interval must be between 1 and 8760 hours", ErrInvalidSettings)
	}

	if err := m.store.SaveSettings(ctx, encode(next)); err != nil {
		m.mu.Unlock()
		return Settings{}, err
	}

	changed := next.SyncIntervalHours != m.current.SyncIntervalHours
	m.current = next
	listeners := append([]func(time.Duration){}, m.listeners...)
	m.mu.Unlock()

	if changed {
		m.log.Info("Sync interval changed", zap.Int("hours", next.SyncIntervalHours))
		for _, fn := range listeners {
			fn(next.Interval())
		}
	}
	return next, nil
}

// OnIntervalChange registers fn to be called with the new interval.
func (m *Manager) OnIntervalChange(fn func(time.Duration)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func encode(s Settings) map[string]string {
	return map[string]string{
		keyAppID:     s.AppID,
		keyAppSecret: s.AppSecret,
		keyAppToken:  s.AppToken,
		keyTableID:   s.TableID,
		keyInterval:  strconv.Itoa(s.SyncIntervalHours),
	}
}

func decode(values map[string]string) Settings {
	hours, err := strconv.Atoi(values[keyInterval])
	if err != nil || hours <= 0 {
		hours = DefaultIntervalHours
	}
	return Settings{
		AppID:             values[keyAppID],
		AppSecret:         values[keyAppSecret],
		AppToken:          values[keyAppToken],
		TableID:           values[keyTableID],
		SyncIntervalHours: hours,
	}
}
