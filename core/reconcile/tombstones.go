package reconcile

import (
	"context"
	"errors"

	"worklog/core/models"

	"go.uber.org/zap"
)

// propagateTombstones marks local deletions on the remote table and drops them
// locally. The drop happens even when the remote call fails: a failed batch
// leaves the remote row alive while the local copy is gone.
func (p *pass) propagateTombstones(ctx context.Context) error {
	var (
		tombstones []models.LogRecord
		updates    []models.StatusUpdate
	)
	for _, r := range p.idx.records() {
		if !r.IsTombstone() {
			continue
		}
		tombstones = append(tombstones, r)
		// Temporary ids were never created remotely.
		if !models.IsTemporaryID(r.ID) {
			updates = append(updates, models.StatusUpdate{ID: r.ID, Status: models.StatusPendingDelete})
		}
	}

	if len(updates) > 0 {
		p.mutated = true
		err := p.sendTombstones(ctx, tombstones, updates)
		m := Mutation{Phase: PhaseTombstones, Kind: MutationBatchStatus, Detail: joinIDs(updates)}
		if err != nil {
			m.Error = err.Error()
			p.result.Summary.TombstoneBatchFailed = true
			p.engine.log.Warn("Tombstone batch failed; local tombstones dropped anyway",
				zap.Int("count", len(updates)),
				zap.Error(err),
			)
		}
		p.record(m)
	}

	for _, r := range tombstones {
		p.idx.remove(r.ID)
		p.dropped[r.ID] = struct{}{}
		p.record(Mutation{Phase: PhaseTombstones, Kind: MutationDropTombstone, RecordID: r.ID})
		p.result.Summary.TombstonesPurged++
	}
	return nil
}

func (p *pass) sendTombstones(ctx context.Context, tombstones []models.LogRecord, updates []models.StatusUpdate) error {
	if batcher, ok := p.engine.remote.(StatusBatcher); ok {
		p.result.Summary.RemoteCalls++
		return batcher.BatchUpdateStatus(ctx, updates)
	}

	// Fallback to one-at-a-time
	var errs []error
	for _, r := range tombstones {
		if models.IsTemporaryID(r.ID) {
			continue
		}
		p.result.Summary.RemoteCalls++
		if err := p.engine.remote.UpdateRecord(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func joinIDs(updates []models.StatusUpdate) string {
	out := ""
	for i, u := range updates {
		if i > 0 {
			out += ","
		}
		out += u.ID
	}
	return out
}
