package reconcile

import (
	"context"
	"fmt"
	"strings"

	"worklog/core/models"
)

// download merges the remote snapshot into the working snapshot.
func (p *pass) download(ctx context.Context) error {
	if p.mutated {
		remote, err := p.engine.remote.ListRecords(ctx)
		p.result.Summary.RemoteCalls++
		if err != nil {
			return fmt.Errorf("refetch remote snapshot: %w", err)
		}
		p.remote = remote
	}

	for _, rr := range p.remote {
		if rr.IsTombstone() {
			continue
		}
		if _, ok := p.dropped[rr.ID]; ok {
			continue
		}

		local, ok := p.idx.get(rr.ID)
		if !ok {
			if err := p.insertRemote(ctx, rr); err != nil {
				return err
			}
			continue
		}

		merged := p.engine.resolver.Resolve(local, rr)
		merged.ID = rr.ID
		merged.Status = models.StatusSynced
		if !local.SameFields(merged) {
			p.record(Mutation{
				Phase:    PhaseDownload,
				Kind:     MutationOverwrite,
				RecordID: rr.ID,
				Detail:   strings.Join(local.Diff(merged), ","),
			})
			p.result.Summary.Overwritten++
		}
		p.idx.put(merged)
	}
	return nil
}

// insertRemote downloads a remote-only record, flipping it to Synced remotely
// when the remote table still marks it Unsynced.
func (p *pass) insertRemote(ctx context.Context, rr models.LogRecord) error {
	synced := rr.WithStatus(models.StatusSynced)

	if rr.Status == models.StatusUnsynced {
		p.result.Summary.RemoteCalls++
		if err := p.markSynced(ctx, synced); err != nil {
			p.record(Mutation{Phase: PhaseDownload, Kind: MutationMarkSynced, RecordID: rr.ID, Error: err.Error()})
			return fmt.Errorf("mark record %s synced: %w", rr.ID, err)
		}
		p.record(Mutation{Phase: PhaseDownload, Kind: MutationMarkSynced, RecordID: rr.ID})
		p.result.Summary.MarkedSynced++
	}

	p.idx.put(synced)
	p.record(Mutation{Phase: PhaseDownload, Kind: MutationDownload, RecordID: rr.ID})
	p.result.Summary.Downloaded++
	return nil
}

// markSynced flips the remote status only, leaving the other fields as the
// remote table holds them.
func (p *pass) markSynced(ctx context.Context, r models.LogRecord) error {
	if batcher, ok := p.engine.remote.(StatusBatcher); ok {
		return batcher.BatchUpdateStatus(ctx, []models.StatusUpdate{{ID: r.ID, Status: models.StatusSynced}})
	}
	return p.engine.remote.UpdateRecord(ctx, r)
}
