// Package reconcile implements the synchronization pass between the local
// snapshot and the remote table.
//
// A pass takes the local snapshot, fetches the remote snapshot and produces a
// reconciled local snapshot plus an ordered log of the mutations it issued.
//
// # Phases
//
// When the local snapshot is empty or still holds the seed dataset, the pass
// short-circuits: the output is the visible remote snapshot, every record
// marked Synced, and no remote mutation is issued.
//
// Otherwise four phases run in order:
//
//  1. Tombstones. Local records marked PendingDelete are sent to the remote
//     table in one batch status call and then dropped from the snapshot,
//     whether or not that call succeeded.
//  2. Upload. Unsynced records are updated remotely when the remote table
//     already has their id, or created otherwise. A create replaces the
//     temporary id with the remote one exactly once.
//  3. Download. The remote snapshot is re-fetched when phases 1 or 2 issued
//     calls. Remote records missing locally are inserted; records present on
//     both sides take the remote values (remote wins).
//  4. Orphans. Local records whose id no longer appears in the remote snapshot
//     are removed, except records created during the pass.
//
// # Errors
//
// Every failure is returned as a *PassError carrying its Kind and Phase. A
// failed batch tombstone call is logged and the pass continues; any other
// remote failure aborts the remaining phases. Mutations issued before the
// failure are not rolled back.
//
// # Usage
//
//	engine := reconcile.NewEngine(client, logger)
//	result, err := engine.Reconcile(ctx, local)
//	if err != nil {
//	    // result.Snapshot still holds what the pass got to.
//	}
package reconcile
