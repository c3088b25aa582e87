package store

import (
	"time"

	"worklog/core/models"
)

type recordRow struct {
	ID       string `gorm:"primaryKey;size:64"`
	Position int    `gorm:"index;not null"`
	Content  string `gorm:"type:text;not null"`
	Date     string `gorm:"size:10;index;not null"`
	Time     string `gorm:"size:5;not null"`
	Category string `gorm:"size:64;not null"`
	Status   string `gorm:"size:16;not null"`
	Created  string `gorm:"column:created_at;size:40"`
}

func (recordRow) TableName() string { return "log_records" }

func toRow(r models.LogRecord, position int) recordRow {
	return recordRow{
		ID:       r.ID,
		Position: position,
		Content:  r.Content,
		Date:     r.Date,
		Time:     r.Time,
		Category: r.Category,
		Status:   string(r.Status),
		Created:  r.CreatedAt,
	}
}

func (row recordRow) record() models.LogRecord {
	return models.LogRecord{
		ID:        row.ID,
		Content:   row.Content,
		Date:      row.Date,
		Time:      row.Time,
		Category:  row.Category,
		Status:    models.Status(row.Status),
		CreatedAt: row.Created,
	}
}

type syncStateRow struct {
	Key         string `gorm:"primaryKey;size:32"`
	Seeded      bool
	LastSyncAt  *time.Time
	LastOutcome string `gorm:"size:32"`
	LastMessage string `gorm:"type:text"`
	UpdatedAt   time.Time
}

func (syncStateRow) TableName() string { return "sync_state" }

type sessionRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	Loaded      bool
	ReloadCount int
	UpdatedAt   time.Time
}

func (sessionRow) TableName() string { return "sessions" }

type tokenRow struct {
	Key       string `gorm:"primaryKey;size:128"`
	Token     string `gorm:"type:text"`
	ExpiresAt time.Time
}

func (tokenRow) TableName() string { return "tokens" }

type settingRow struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"type:text"`
}

func (settingRow) TableName() string { return "settings" }

// Models returns a pointer to every row type the store owns, in migration
// order. Schema checks parse them to learn the expected columns.
func Models() []interface{} {
	return []interface{}{&recordRow{}, &syncStateRow{}, &sessionRow{}, &tokenRow{}, &settingRow{}}
}
