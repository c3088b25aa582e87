package settings

import (
	"context"

	"worklog/core/catalog"
	"worklog/core/remote"
	coresettings "worklog/core/settings"

	"go.uber.org/zap"
)

// Manager owns the persisted settings.
type Manager interface {
	Current() coresettings.Settings
	Update(ctx context.Context, patch coresettings.Patch) (coresettings.Settings, error)
}

// Catalog lists category options.
type Catalog interface {
	List(ctx context.Context) []string
	Refresh()
}

// CatalogSource reads categories from the table the manager points at.
func CatalogSource(conn *remote.Connector, mgr Manager) catalog.SourceFunc {
	return func() (catalog.Source, string) {
		client, err := conn.Connect()
		if err != nil {
			return nil, ""
		}
		return client, mgr.Current().TableKey()
	}
}

// Service reads and edits settings.
type Service struct {
	manager Manager
	catalog Catalog
	logger  *zap.Logger
}

// NewService creates a service.
func NewService(manager Manager, cat Catalog, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{manager: manager, catalog: cat, logger: logger}
}

// Get returns the settings with the secret redacted.
func (s *Service) Get() coresettings.Settings {
	return s.manager.Current().Redacted()
}

// Update applies patch and returns the redacted result.
func (s *Service) Update(ctx context.Context, patch coresettings.Patch) (coresettings.Settings, error) {
	before := s.manager.Current()
	next, err := s.manager.Update(ctx, patch)
	if err != nil {
		return coresettings.Settings{}, err
	}
	if next.Credentials() != before.Credentials() {
		s.catalog.Refresh()
	}
	s.logger.Info("Settings updated", zap.Bool("complete", next.Complete()), zap.Int("interval_hours", next.SyncIntervalHours))
	return next.Redacted(), nil
}

// Types returns the category options, reloading them when refresh is set.
func (s *Service) Types(ctx context.Context, refresh bool) []string {
	if refresh {
		s.catalog.Refresh()
	}
	return s.catalog.List(ctx)
}
