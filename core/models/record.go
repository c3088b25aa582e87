package models

import (
	"strconv"
	"strings"
	"time"
)

// Status is the synchronization state of a LogRecord.
type Status string

const (
	// StatusUnsynced marks a record edited locally and not yet pushed to the remote table.
	StatusUnsynced Status = "unsynced"
	// StatusSynced marks a record whose local and remote copies agree.
	StatusSynced Status = "synced"
	// StatusPendingDelete marks a soft-deleted record (tombstone).
	StatusPendingDelete Status = "pending_delete"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnsynced, StatusSynced, StatusPendingDelete:
		return true
	default:
		return false
	}
}

// TemporaryIDPrefix is the reserved prefix of locally minted identifiers.
const TemporaryIDPrefix = "new-"

// DefaultCategory is used when the remote schema exposes no category options.
const DefaultCategory = "其他"

// LogRecord is a single work-log entry.
type LogRecord struct {
	// ID is a temporary ("new-...") or remote-assigned identifier.
	ID string `json:"id" yaml:"id"`
	// Content is the free-text body of the entry.
	Content string `json:"content" yaml:"content" validate:"required"`
	// Date is the calendar day in canonical "YYYY/MM/DD" form.
	Date string `json:"date" yaml:"date" validate:"required,logdate"`
	// Time is the time of day in "HH:mm" form.
	Time string `json:"time" yaml:"time" validate:"required,logtime"`
	// Category is one of the Type Catalog values.
	Category string `json:"category" yaml:"category" validate:"required"`
	// Status is the synchronization state.
	Status Status `json:"status" yaml:"status"`
	// CreatedAt is the immutable ISO-8601 creation timestamp.
	CreatedAt string `json:"createdAt" yaml:"createdAt"`
}

// NewTemporaryID mints a temporary identifier from the given instant.
func NewTemporaryID(now time.Time) string {
	return TemporaryIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// IsTemporaryID reports whether id was minted locally and never assigned by the remote table.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TemporaryIDPrefix)
}

// IsTombstone reports whether the record is soft-deleted.
func (r LogRecord) IsTombstone() bool {
	return r.Status == StatusPendingDelete
}

// Visible reports whether the record should appear in user-facing views.
func (r LogRecord) Visible() bool {
	return !r.IsTombstone()
}

// SameFields compares the tracked field set {content, date, time, category, status, createdAt}.
// The identifier is deliberately not part of the comparison.
func (r LogRecord) SameFields(o LogRecord) bool {
	return r.Content == o.Content &&
		r.Date == o.Date &&
		r.Time == o.Time &&
		r.Category == o.Category &&
		r.Status == o.Status &&
		r.CreatedAt == o.CreatedAt
}

// Diff returns the names of the tracked fields that differ between r and o.
func (r LogRecord) Diff(o LogRecord) []string {
	var fields []string
	if r.Content != o.Content {
		fields = append(fields, "content")
	}
	if r.Date != o.Date {
		fields = append(fields, "date")
	}
	if r.Time != o.Time {
		fields = append(fields, "time")
	}
	if r.Category != o.Category {
		fields = append(fields, "category")
	}
	if r.Status != o.Status {
		fields = append(fields, "status")
	}
	if r.CreatedAt != o.CreatedAt {
		fields = append(fields, "createdAt")
	}
	return fields
}

// WithStatus returns a copy of r with the given status.
func (r LogRecord) WithStatus(s Status) LogRecord {
	r.Status = s
	return r
}

// WithID returns a copy of r with the given id.
func (r LogRecord) WithID(id string) LogRecord {
	r.ID = id
	return r
}

// IDs returns the identifiers of records in order.
func IDs(records []LogRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// StatusUpdate pairs a remote identifier with the status it should carry.
type StatusUpdate struct {
	ID     string
	Status Status
}
