// Package models defines the work-log domain types shared by the local store,
// the remote table client and the reconciliation engine.
//
// # LogRecord
//
// A LogRecord is a single calendar entry. Its identifier is either a temporary
// value minted locally at creation time ("new-<unix millis>") or the permanent
// record id assigned by the remote table. The engine is the only component that
// rewrites an identifier, and it does so at most once per record.
//
// # Status
//
// Every record carries exactly one Status:
//   - Unsynced: edited locally and not yet pushed.
//   - Synced: local and remote agree.
//   - PendingDelete: soft-deleted locally (a tombstone); hidden from every view
//     and removed from the local snapshot during the next reconciliation pass.
//
// # Dates and times
//
// Dates are canonical "YYYY/MM/DD" strings and times are "HH:mm" strings.
// NormalizeDate accepts dash-delimited input; DateFromMillis and DateMillis
// convert to and from the epoch-millisecond representation used on the wire.
package models
