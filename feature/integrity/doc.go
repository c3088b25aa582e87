// Package integrity provides system health checks.
//
// Unlike the sync feature, which moves records, this package only inspects
// the infrastructure a pass depends on and never mutates records.
//
// # Checks Provided
//
//   - Config: Lists the connection settings that are still empty.
//   - Remote: Requests an access token with the current credentials.
//   - Schema: Validates that the local database tables match the store models (columns, explicit types).
//   - Archive: Checks that the snapshot bucket exists and counts its snapshots.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/config : Runs config check.
//   - GET /integrity/remote : Runs remote check.
//   - GET /integrity/schema : Runs schema check.
//   - GET /integrity/archive : Runs archive check (supports ?fix=true).
package integrity
