package reconcile

import (
	"context"

	"go.uber.org/zap"
)

// purgeOrphans drops local records whose id is absent from the visible remote
// snapshot. Records created in this pass are kept even if the re-fetched
// snapshot does not list them yet.
func (p *pass) purgeOrphans(_ context.Context) error {
	visible := make(map[string]struct{}, len(p.remote))
	for _, r := range p.remote {
		if !r.IsTombstone() {
			visible[r.ID] = struct{}{}
		}
	}

	for _, id := range p.idx.ids() {
		if _, ok := visible[id]; ok {
			continue
		}
		if _, ok := p.created[id]; ok {
			continue
		}
		p.idx.remove(id)
		p.record(Mutation{Phase: PhaseOrphans, Kind: MutationPurgeOrphan, RecordID: id})
		p.result.Summary.OrphansPurged++
		p.engine.log.Debug("Orphan purged", zap.String("id", id))
	}
	return nil
}
