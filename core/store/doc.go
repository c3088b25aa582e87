// Package store persists the local side of the application through GORM.
//
// Tables:
//   - log_records: the local snapshot, ordered by position
//   - sync_state: last successful sync and the seed marker
//   - sessions: per browsing session load flag and reload counter
//   - tokens: cached bearer tokens keyed by app id
//   - settings: connection settings as key/value pairs
//
// Replace swaps the whole snapshot inside one transaction so a reconciled
// snapshot is never observed half written.
package store
