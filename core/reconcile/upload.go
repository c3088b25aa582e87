package reconcile

import (
	"context"
	"fmt"

	"worklog/core/models"

	"go.uber.org/zap"
)

// upload pushes every Unsynced record. The first failing call aborts the pass;
// the failing record keeps its status and id for the next pass.
func (p *pass) upload(ctx context.Context) error {
	onRemote := make(map[string]struct{}, len(p.remote))
	for _, r := range p.remote {
		onRemote[r.ID] = struct{}{}
	}

	for _, id := range p.idx.ids() {
		r, _ := p.idx.get(id)
		if r.Status != models.StatusUnsynced {
			continue
		}
		synced := r.WithStatus(models.StatusSynced)

		if _, exists := onRemote[id]; exists && !models.IsTemporaryID(id) {
			p.mutated = true
			p.result.Summary.RemoteCalls++
			if err := p.engine.remote.UpdateRecord(ctx, synced); err != nil {
				p.record(Mutation{Phase: PhaseUpload, Kind: MutationUpdate, RecordID: id, Error: err.Error()})
				return fmt.Errorf("update record %s: %w", id, err)
			}
			p.idx.put(synced)
			p.record(Mutation{Phase: PhaseUpload, Kind: MutationUpdate, RecordID: id})
			p.result.Summary.Updated++
			continue
		}

		p.mutated = true
		p.result.Summary.RemoteCalls++
		newID, err := p.engine.remote.CreateRecord(ctx, synced)
		if err != nil {
			p.record(Mutation{Phase: PhaseUpload, Kind: MutationCreate, RecordID: id, Error: err.Error()})
			return fmt.Errorf("create record %s: %w", id, err)
		}
		p.record(Mutation{Phase: PhaseUpload, Kind: MutationCreate, RecordID: newID})

		if newID != id {
			if err := p.idx.remap(id, newID); err != nil {
				return err
			}
			p.record(Mutation{Phase: PhaseUpload, Kind: MutationRemap, RecordID: newID, Detail: id})
			p.engine.log.Debug("Record id remapped", zap.String("from", id), zap.String("to", newID))
		}
		p.idx.put(synced.WithID(newID))
		p.created[newID] = struct{}{}
		p.result.Summary.Created++
	}
	return nil
}
