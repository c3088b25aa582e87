package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"worklog/core/models"
)

// fakeTable is an in-memory remote table that records every call.
type fakeTable struct {
	mu        sync.Mutex
	records   []models.LogRecord
	nextID    int
	calls     []string
	listCalls int

	// failListOn fails the nth ListRecords call (1-based).
	failListOn int
	failBatch  error
	failCreate error
	failUpdate error
}

func newFakeTable(records ...models.LogRecord) *fakeTable {
	return &fakeTable{records: append([]models.LogRecord{}, records...), nextID: 100}
}

func (f *fakeTable) ListRecords(context.Context) ([]models.LogRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.calls = append(f.calls, "list")
	if f.failListOn == f.listCalls {
		return nil, errors.New("connection reset")
	}
	return append([]models.LogRecord{}, f.records...), nil
}

func (f *fakeTable) CreateRecord(_ context.Context, r models.LogRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create:"+r.ID)
	if f.failCreate != nil {
		return "", f.failCreate
	}
	id := fmt.Sprintf("rec-%d", f.nextID)
	f.nextID++
	f.records = append(f.records, r.WithID(id))
	return id, nil
}

func (f *fakeTable) UpdateRecord(_ context.Context, r models.LogRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update:"+r.ID)
	if f.failUpdate != nil {
		return f.failUpdate
	}
	for i := range f.records {
		if f.records[i].ID == r.ID {
			f.records[i] = r
			return nil
		}
	}
	return fmt.Errorf("record %s not found", r.ID)
}

func (f *fakeTable) BatchUpdateStatus(_ context.Context, updates []models.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("batch:%d", len(updates)))
	if f.failBatch != nil {
		return f.failBatch
	}
	for _, u := range updates {
		for i := range f.records {
			if f.records[i].ID == u.ID {
				f.records[i].Status = u.Status
			}
		}
	}
	return nil
}

// mutatingCalls returns every call except reads.
func (f *fakeTable) mutatingCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c != "list" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeTable) resetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

// singleOnly hides BatchUpdateStatus so the engine falls back to per-record updates.
type singleOnly struct {
	t *fakeTable
}

func (s singleOnly) ListRecords(ctx context.Context) ([]models.LogRecord, error) {
	return s.t.ListRecords(ctx)
}

func (s singleOnly) CreateRecord(ctx context.Context, r models.LogRecord) (string, error) {
	return s.t.CreateRecord(ctx, r)
}

func (s singleOnly) UpdateRecord(ctx context.Context, r models.LogRecord) error {
	return s.t.UpdateRecord(ctx, r)
}

func rec(id, content string, status models.Status) models.LogRecord {
	return models.LogRecord{
		ID:        id,
		Content:   content,
		Date:      "2025/06/17",
		Time:      "09:00",
		Category:  "开发部",
		Status:    status,
		CreatedAt: "2025-06-17T01:00:00Z",
	}
}
