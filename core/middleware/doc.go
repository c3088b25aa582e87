// Package middleware groups the fiber middleware of the HTTP API.
//
//   - auth: API key validation (X-API-Key header or api_key query parameter).
//   - rayid: per-request id stored in fiber locals and echoed in X-Ray-ID.
//
// rayid is registered first so every log line of a request carries the id.
package middleware
