package mocks

import (
	"context"

	"worklog/core/models"

	"github.com/stretchr/testify/mock"
)

// Remote is a mock implementation of the remote table client.
type Remote struct {
	mock.Mock
}

func (m *Remote) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *Remote) ListRecords(ctx context.Context) ([]models.LogRecord, error) {
	args := m.Called(ctx)
	if records, ok := args.Get(0).([]models.LogRecord); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Remote) CreateRecord(ctx context.Context, r models.LogRecord) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

func (m *Remote) UpdateRecord(ctx context.Context, r models.LogRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *Remote) BatchUpdateStatus(ctx context.Context, updates []models.StatusUpdate) error {
	args := m.Called(ctx, updates)
	return args.Error(0)
}

func (m *Remote) DeleteRecord(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Remote) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if options, ok := args.Get(0).([]string); ok {
		return options, args.Error(1)
	}
	return nil, args.Error(1)
}
