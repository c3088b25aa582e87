package reconcile

import "worklog/core/models"

// Phase names a step of a reconciliation pass.
type Phase string

const (
	// PhasePreflight covers checks made before any network call.
	PhasePreflight Phase = "preflight"
	// PhaseFetch is the initial remote snapshot read.
	PhaseFetch Phase = "fetch"
	// PhaseTombstones propagates local deletions.
	PhaseTombstones Phase = "tombstones"
	// PhaseUpload pushes unsynced local records.
	PhaseUpload Phase = "upload"
	// PhaseDownload merges the remote snapshot into the local one.
	PhaseDownload Phase = "download"
	// PhaseOrphans purges records deleted remotely.
	PhaseOrphans Phase = "orphans"
)

// MutationKind identifies one step recorded in the mutation log.
type MutationKind string

const (
	// MutationBatchStatus is the remote batch call marking tombstones deleted.
	MutationBatchStatus MutationKind = "batch_status"
	// MutationDropTombstone removes a tombstone from the local snapshot.
	MutationDropTombstone MutationKind = "drop_tombstone"
	// MutationUpdate is a remote single-record update during upload.
	MutationUpdate MutationKind = "update"
	// MutationCreate is a remote create during upload.
	MutationCreate MutationKind = "create"
	// MutationRemap replaces a temporary id with the remote one.
	MutationRemap MutationKind = "remap"
	// MutationDownload inserts a remote-only record locally.
	MutationDownload MutationKind = "download"
	// MutationMarkSynced is a remote update flipping a downloaded record to Synced.
	MutationMarkSynced MutationKind = "mark_synced"
	// MutationOverwrite replaces local values with remote ones.
	MutationOverwrite MutationKind = "overwrite"
	// MutationPurgeOrphan removes a local record missing remotely.
	MutationPurgeOrphan MutationKind = "purge_orphan"
)

// Remote reports whether the mutation is a call against the remote table.
func (k MutationKind) Remote() bool {
	switch k {
	case MutationBatchStatus, MutationUpdate, MutationCreate, MutationMarkSynced:
		return true
	default:
		return false
	}
}

// Mutation is one entry of the ordered mutation log.
type Mutation struct {
	// Phase is the phase that produced the entry.
	Phase Phase `json:"phase" yaml:"phase"`

	// Kind is what happened.
	Kind MutationKind `json:"kind" yaml:"kind"`

	// RecordID is the affected record. For remaps it is the new id.
	RecordID string `json:"record_id,omitempty" yaml:"record_id,omitempty"`

	// Detail carries kind-specific context, e.g. the temporary id of a remap
	// or the changed fields of an overwrite.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`

	// Error is set when a remote call failed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the mutation records a failed remote call.
func (m Mutation) Failed() bool {
	return m.Error != ""
}

// Summary provides aggregate counts for a pass.
type Summary struct {
	// Created counts records created remotely.
	Created int `json:"created" yaml:"created"`

	// Updated counts records updated remotely during upload.
	Updated int `json:"updated" yaml:"updated"`

	// Downloaded counts remote-only records inserted locally.
	Downloaded int `json:"downloaded" yaml:"downloaded"`

	// Overwritten counts local records replaced by differing remote values.
	Overwritten int `json:"overwritten" yaml:"overwritten"`

	// MarkedSynced counts remote records flipped from Unsynced to Synced.
	MarkedSynced int `json:"marked_synced" yaml:"marked_synced"`

	// TombstonesPurged counts tombstones dropped from the local snapshot.
	TombstonesPurged int `json:"tombstones_purged" yaml:"tombstones_purged"`

	// TombstoneBatchFailed is true when the batch status call failed.
	TombstoneBatchFailed bool `json:"tombstone_batch_failed" yaml:"tombstone_batch_failed"`

	// OrphansPurged counts local records removed because the remote lost them.
	OrphansPurged int `json:"orphans_purged" yaml:"orphans_purged"`

	// RemoteCalls counts every remote call issued, reads included.
	RemoteCalls int `json:"remote_calls" yaml:"remote_calls"`
}

// Result is the outcome of one pass.
type Result struct {
	// Snapshot is the reconciled local snapshot. On an aborted pass it holds
	// the state reached before the failure.
	Snapshot []models.LogRecord `json:"snapshot" yaml:"snapshot"`

	// Mutations is the ordered log of what the pass did.
	Mutations []Mutation `json:"mutations" yaml:"mutations"`

	// Summary provides aggregate counts.
	Summary Summary `json:"summary" yaml:"summary"`

	// FirstSync is true when the seed/empty short-circuit was taken.
	FirstSync bool `json:"first_sync" yaml:"first_sync"`

	// Aborted is true when the pass stopped before completing every phase.
	Aborted bool `json:"aborted" yaml:"aborted"`

	// Message is a human-readable outcome.
	Message string `json:"message" yaml:"message"`
}
