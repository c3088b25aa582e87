// Package logs implements local editing of work-log records and the weekly view.
//
// Edits never touch the remote table. Create mints a temporary id, Update marks
// the record unsynced and Delete turns it into a tombstone; the next sync pass
// propagates all three.
//
// # Endpoints
//
//   - GET    /logs/week?date=YYYY/MM/DD&q=&category=
//   - GET    /logs/categories
//   - GET    /logs/:id
//   - POST   /logs
//   - PUT    /logs/:id
//   - DELETE /logs/:id
package logs
