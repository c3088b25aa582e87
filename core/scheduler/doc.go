// Package scheduler decides when a sync pass runs.
//
// Three triggers exist: manual (user initiated), periodic (every configured
// interval while the process runs) and session (first page load of a browsing
// session, then every third reload). Only one pass runs at a time; triggers
// arriving while a pass is in flight are dropped, never queued.
//
// A trigger fired while the connection settings are incomplete is rejected
// before any network call. Automatic triggers drop it silently; manual
// triggers return the configuration error to the caller.
package scheduler
