package reconcile

import (
	"fmt"

	"worklog/core/models"
)

// index is the working snapshot of a pass: records keyed by id, kept in order.
type index struct {
	order []string
	byID  map[string]models.LogRecord
}

func newIndex(records []models.LogRecord) *index {
	idx := &index{
		order: make([]string, 0, len(records)),
		byID:  make(map[string]models.LogRecord, len(records)),
	}
	for _, r := range records {
		idx.put(r)
	}
	return idx
}

func (idx *index) get(id string) (models.LogRecord, bool) {
	r, ok := idx.byID[id]
	return r, ok
}

// put inserts r at the end or replaces the record with the same id in place.
func (idx *index) put(r models.LogRecord) {
	if _, ok := idx.byID[r.ID]; !ok {
		idx.order = append(idx.order, r.ID)
	}
	idx.byID[r.ID] = r
}

func (idx *index) remove(id string) {
	if _, ok := idx.byID[id]; !ok {
		return
	}
	delete(idx.byID, id)
	for i, v := range idx.order {
		if v == id {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			return
		}
	}
}

// remap moves the record under oldID to newID, keeping its position.
// The old id is unreachable afterwards.
func (idx *index) remap(oldID, newID string) error {
	r, ok := idx.byID[oldID]
	if !ok {
		return fmt.Errorf("remap %s: record not indexed", oldID)
	}
	if _, taken := idx.byID[newID]; taken {
		return fmt.Errorf("remap %s to %s: %w", oldID, newID, ErrDuplicateID)
	}

	delete(idx.byID, oldID)
	r.ID = newID
	idx.byID[newID] = r
	for i, v := range idx.order {
		if v == oldID {
			idx.order[i] = newID
			break
		}
	}
	return nil
}

func (idx *index) ids() []string {
	out := make([]string, len(idx.order))
	copy(out, idx.order)
	return out
}

func (idx *index) records() []models.LogRecord {
	out := make([]models.LogRecord, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.byID[id])
	}
	return out
}

func (idx *index) len() int {
	return len(idx.order)
}
