// Package sync glues the scheduler to the reconciliation engine and the local store.
//
// A pass reads the local snapshot, reconciles it against the remote table and
// replaces the local snapshot in one transaction. The whole sequence holds the
// store's write lock so concurrent local edits wait for it. Successful passes
// update the last-sync time and, when enabled, archive the snapshot.
//
// # Endpoints
//
//   - POST   /sync            manual pass (optional sessionId resets the reload counter)
//   - POST   /sync/session    page load of a browsing session
//   - GET    /sync/status     last sync time, running flag and last message
//   - DELETE /sync/remote/:id administrative delete on the remote table
package sync
