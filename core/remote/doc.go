// Package remote is the client for the remote work-log table.
//
// The remote store is a bitable-style HTTP API (Feishu/Lark "bitable" shaped):
// every response is an envelope {"code": 0, "msg": "...", "data": {...}} where a
// non-zero code is an application-level failure even on HTTP 200.
//
// # Authentication
//
// Long-lived app credentials are exchanged for a short-lived tenant token. Tokens
// are cached per app id in a TokenCache with an expiry of advertised-expiry minus
// ten minutes; an unexpired cached token is always reused. Concurrent refreshes for
// the same key are collapsed with singleflight and the result can be persisted
// through a TokenStore so restarts reuse it as well.
//
// # Decoding
//
// Record payloads are loosely typed on the wire: the date column may hold an
// epoch-millisecond number or a dash/slash-delimited string, and the time column
// may hold a bare string or a one-element list wrapping it. The decode step in
// this package normalizes both exactly once and produces fully typed
// models.LogRecord values; nothing downstream ever looks at raw payloads. A row
// whose date is missing or malformed is logged and left out of the listing.
//
// # Errors
//
// Non-2xx responses surface as *HTTPError, non-zero envelope codes as *APIError.
// Both are transport/protocol failures from the reconciliation engine's point of view.
package remote
