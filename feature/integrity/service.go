package integrity

import (
	"context"
	"errors"

	"worklog/core/remote"
	"worklog/core/storage"
	"worklog/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrArchiveDisabled is returned by the archive checks when no storage is configured.
var ErrArchiveDisabled = errors.New("snapshot archive is not enabled")

// Connector provides the current credentials and clients built from them.
type Connector interface {
	Credentials() remote.Credentials
	Connect() (*remote.Client, error)
}

// Service handles integrity checks.
type Service struct {
	db        *gorm.DB
	models    []interface{}
	connector Connector
	client    storage.Client
	storage   storage.Config
	logger    *zap.Logger
}

// NewService creates a new integrity service. client may be nil when the
// archive is disabled.
func NewService(db *gorm.DB, models []interface{}, connector Connector, client storage.Client, cfg storage.Config, logger *zap.Logger) *Service {
	return &Service{
		db:        db,
		models:    models,
		connector: connector,
		client:    client,
		storage:   cfg,
		logger:    logger,
	}
}

// CheckConfig reports which connection settings are missing.
func (s *Service) CheckConfig() checks.ConfigReport {
	return checks.CheckConfig(s.connector.Credentials())
}

// CheckRemote verifies the remote accepts the current credentials.
func (s *Service) CheckRemote(ctx context.Context) checks.RemoteReport {
	return checks.CheckRemote(ctx, func() (checks.TokenSource, error) {
		client, err := s.connector.Connect()
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}

// CheckSchema compares the local tables against the store models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, s.models...)
}

// CheckArchive inspects the snapshot bucket.
func (s *Service) CheckArchive(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.client == nil {
		return nil, ErrArchiveDisabled
	}
	return checks.CheckArchive(ctx, s.client, s.storage.Bucket, s.storage.Prefix)
}

// FixArchive creates the snapshot bucket.
func (s *Service) FixArchive(ctx context.Context) error {
	if s.client == nil {
		return ErrArchiveDisabled
	}
	return checks.FixArchive(ctx, s.client, s.storage.Bucket, s.logger)
}
