package reconcile

import (
	"context"

	"worklog/core/models"
)

// Remote is the remote table capability set a pass needs.
type Remote interface {
	// ListRecords returns the full remote snapshot in remote order.
	ListRecords(ctx context.Context) ([]models.LogRecord, error)

	// CreateRecord inserts a record and returns its permanent id.
	CreateRecord(ctx context.Context, r models.LogRecord) (string, error)

	// UpdateRecord overwrites every tracked field of the record with r.ID.
	UpdateRecord(ctx context.Context, r models.LogRecord) error
}

// StatusBatcher is implemented by remotes that update many statuses in one call.
// Remotes without it receive one UpdateRecord per tombstone.
type StatusBatcher interface {
	BatchUpdateStatus(ctx context.Context, updates []models.StatusUpdate) error
}
