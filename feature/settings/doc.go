// Package settings serves the connection settings and the type catalog.
//
// Reads return the app secret redacted. Updates are validated and persisted by
// core/settings.Manager, which re-arms the periodic sync when the interval
// changes. Credential edits drop the cached category list.
//
// # Endpoints
//
//   - GET /settings
//   - PUT /settings
//   - GET /settings/types?refresh=true
package settings
