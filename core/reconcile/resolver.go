package reconcile

import "worklog/core/models"

// ConflictResolver decides the merged record when a local record and its
// remote counterpart differ. The engine forces the id to the remote one and
// the status to Synced on whatever is returned.
type ConflictResolver interface {
	Resolve(local, remote models.LogRecord) models.LogRecord
}

// RemoteWins overwrites the local record with the remote one, field for field.
type RemoteWins struct{}

// Resolve returns remote.
func (RemoteWins) Resolve(_, remote models.LogRecord) models.LogRecord {
	return remote
}

// ResolverFunc adapts a function to ConflictResolver.
type ResolverFunc func(local, remote models.LogRecord) models.LogRecord

// Resolve calls f.
func (f ResolverFunc) Resolve(local, remote models.LogRecord) models.LogRecord {
	return f(local, remote)
}
