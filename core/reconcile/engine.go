package reconcile

import (
	"context"
	"fmt"
	"strings"

	"worklog/core/models"

	"go.uber.org/zap"
)

// Engine runs reconciliation passes against one remote table.
// An Engine is not re-entrant; callers serialize passes.
type Engine struct {
	remote   Remote
	log      *zap.Logger
	resolver ConflictResolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver replaces the default remote-wins conflict policy.
func WithResolver(r ConflictResolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// NewEngine creates an engine using remote for every call.
func NewEngine(remote Remote, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		remote:   remote,
		log:      log,
		resolver: RemoteWins{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pass holds the state of one Reconcile call.
type pass struct {
	engine *Engine
	idx    *index
	remote []models.LogRecord
	// created holds ids assigned by creates in this pass.
	created map[string]struct{}
	// dropped holds tombstone ids removed in this pass; download must not revive them.
	dropped map[string]struct{}
	// mutated is set once phases 1 or 2 issue a remote call.
	mutated bool
	result  *Result
}

// Reconcile runs one pass over local and returns the reconciled snapshot.
// On failure the returned Result is still populated and err is a *PassError.
func (e *Engine) Reconcile(ctx context.Context, local []models.LogRecord) (*Result, error) {
	p := &pass{
		engine:  e,
		idx:     newIndex(local),
		created: make(map[string]struct{}),
		dropped: make(map[string]struct{}),
		result:  &Result{Mutations: []Mutation{}},
	}

	remote, err := e.remote.ListRecords(ctx)
	p.result.Summary.RemoteCalls++
	if err != nil {
		// Nothing was mutated; hand back the input untouched.
		return p.abort(transportError(PhaseFetch, fmt.Errorf("fetch remote snapshot: %w", err)), copyRecords(local))
	}
	p.remote = remote

	if len(local) == 0 || models.IsSeed(local) {
		return p.firstSync(), nil
	}

	steps := []struct {
		phase Phase
		run   func(context.Context) error
	}{
		{PhaseTombstones, p.propagateTombstones},
		{PhaseUpload, p.upload},
		{PhaseDownload, p.download},
		{PhaseOrphans, p.purgeOrphans},
	}

	for _, step := range steps {
		e.log.Debug("Reconcile phase", zap.String("phase", string(step.phase)), zap.Int("records", p.idx.len()))
		if err := step.run(ctx); err != nil {
			return p.abort(transportError(step.phase, err), p.idx.records())
		}
	}

	p.result.Snapshot = p.ordered()
	p.result.Message = summaryMessage(p.result.Summary)
	e.log.Info("Reconcile pass complete",
		zap.Int("records", len(p.result.Snapshot)),
		zap.Int("created", p.result.Summary.Created),
		zap.Int("updated", p.result.Summary.Updated),
		zap.Int("downloaded", p.result.Summary.Downloaded),
		zap.Int("tombstones", p.result.Summary.TombstonesPurged),
		zap.Int("orphans", p.result.Summary.OrphansPurged),
	)
	return p.result, nil
}

// firstSync adopts the visible remote snapshot without uploading anything.
func (p *pass) firstSync() *Result {
	snapshot := make([]models.LogRecord, 0, len(p.remote))
	for _, r := range p.remote {
		if r.IsTombstone() {
			continue
		}
		snapshot = append(snapshot, r.WithStatus(models.StatusSynced))
		p.record(Mutation{Phase: PhaseDownload, Kind: MutationDownload, RecordID: r.ID})
		p.result.Summary.Downloaded++
	}

	p.result.Snapshot = snapshot
	p.result.FirstSync = true
	p.result.Message = fmt.Sprintf("first sync: adopted %d remote records", len(snapshot))
	p.engine.log.Info("Reconcile first sync", zap.Int("records", len(snapshot)))
	return p.result
}

func (p *pass) abort(perr *PassError, snapshot []models.LogRecord) (*Result, error) {
	p.result.Snapshot = snapshot
	p.result.Aborted = true
	p.result.Message = perr.Message()
	p.engine.log.Error("Reconcile pass aborted",
		zap.String("phase", string(perr.Phase)),
		zap.Error(perr.Err),
	)
	return p.result, perr
}

func (p *pass) record(m Mutation) {
	p.result.Mutations = append(p.result.Mutations, m)
}

// ordered lays the snapshot out in remote order, followed by local-only
// survivors in their local order.
func (p *pass) ordered() []models.LogRecord {
	out := make([]models.LogRecord, 0, p.idx.len())
	seen := make(map[string]struct{}, p.idx.len())
	for _, r := range p.remote {
		if local, ok := p.idx.get(r.ID); ok {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			out = append(out, local)
			seen[r.ID] = struct{}{}
		}
	}
	for _, r := range p.idx.records() {
		if _, ok := seen[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func summaryMessage(s Summary) string {
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(s.Created, "created")
	add(s.Updated, "updated")
	add(s.Downloaded, "downloaded")
	add(s.Overwritten, "overwritten")
	add(s.TombstonesPurged, "deleted")
	add(s.OrphansPurged, "removed remotely")
	if len(parts) == 0 {
		return "sync complete: already up to date"
	}
	return "sync complete: " + strings.Join(parts, ", ")
}

func copyRecords(in []models.LogRecord) []models.LogRecord {
	out := make([]models.LogRecord, len(in))
	copy(out, in)
	return out
}
