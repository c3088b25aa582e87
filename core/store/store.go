package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"worklog/core/clock"
	"worklog/core/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

const stateKey = "default"

// Store is the GORM-backed local store.
type Store struct {
	db    *gorm.DB
	clock clock.Clock

	// writeMu serializes read-modify-write sequences on log_records.
	writeMu sync.Mutex
}

// New wraps db. Call Migrate before first use.
func New(db *gorm.DB, clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Store{db: db, clock: clk}
}

// DB exposes the underlying connection for schema inspection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Exclusive runs fn while holding the snapshot write lock. Local edits and
// sync passes both go through it so a pass never overwrites an edit made
// between its snapshot read and its replace.
func (s *Store) Exclusive(fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn()
}

// Migrate creates or updates every table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate local store: %w", err)
	}
	return nil
}

// EnsureSeed writes the demonstration dataset into a store that has never been
// initialized. It reports whether the seed was written.
func (s *Store) EnsureSeed(ctx context.Context) (bool, error) {
	seeded := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var state syncStateRow
		err := tx.Where("`key` = ?", stateKey).Take(&state).Error
		if err == nil && state.Seeded {
			return nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var count int64
		if err := tx.Model(&recordRow{}).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := insertRecords(tx, models.SeedRecords(s.clock.Now())); err != nil {
				return err
			}
			seeded = true
		}

		state.Key = stateKey
		state.Seeded = true
		state.UpdatedAt = s.clock.Now()
		return tx.Save(&state).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed local store: %w", err)
	}
	return seeded, nil
}

// Snapshot returns every record in position order, tombstones included.
func (s *Store) Snapshot(ctx context.Context) ([]models.LogRecord, error) {
	var rows []recordRow
	if err := s.db.WithContext(ctx).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	records := make([]models.LogRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

// Replace swaps the whole snapshot in one transaction.
func (s *Store) Replace(ctx context.Context, records []models.LogRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&recordRow{}).Error; err != nil {
			return err
		}
		return insertRecords(tx, records)
	})
	if err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

func insertRecords(tx *gorm.DB, records []models.LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]recordRow, len(records))
	for i, r := range records {
		rows[i] = toRow(r, i)
	}
	return tx.CreateInBatches(rows, 200).Error
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (models.LogRecord, error) {
	var row recordRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LogRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.LogRecord{}, fmt.Errorf("failed to load record %s: %w", id, err)
	}
	return row.record(), nil
}

// Put inserts r at the end of the snapshot or updates it in place.
func (s *Store) Put(ctx context.Context, r models.LogRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing recordRow
		err := tx.Where("id = ?", r.ID).Take(&existing).Error
		switch {
		case err == nil:
			row := toRow(r, existing.Position)
			return tx.Save(&row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			var maxPos sql.NullInt64
			if err := tx.Model(&recordRow{}).Select("MAX(position)").Row().Scan(&maxPos); err != nil {
				return err
			}
			next := 0
			if maxPos.Valid {
				next = int(maxPos.Int64) + 1
			}
			row := toRow(r, next)
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", r.ID, err)
	}
	return nil
}

// SyncState describes the last sync pass.
type SyncState struct {
	// LastSyncAt is the time of the last successful pass; zero when none.
	LastSyncAt time.Time
	// LastOutcome is "ok", "failed", "aborted" or empty.
	LastOutcome string
	// LastMessage is the message of the last pass.
	LastMessage string
}

// SyncState returns the persisted sync state.
func (s *Store) SyncState(ctx context.Context) (SyncState, error) {
	var row syncStateRow
	err := s.db.WithContext(ctx).Where("`key` = ?", stateKey).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return SyncState{}, nil
	}
	if err != nil {
		return SyncState{}, fmt.Errorf("failed to load sync state: %w", err)
	}
	state := SyncState{LastOutcome: row.LastOutcome, LastMessage: row.LastMessage}
	if row.LastSyncAt != nil {
		state.LastSyncAt = *row.LastSyncAt
	}
	return state, nil
}

// RecordPass stores the outcome of a pass. LastSyncAt only moves on success.
func (s *Store) RecordPass(ctx context.Context, outcome, message string, success bool) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row syncStateRow
		err := tx.Where("`key` = ?", stateKey).Take(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		now := s.clock.Now()
		row.Key = stateKey
		row.LastOutcome = outcome
		row.LastMessage = message
		row.UpdatedAt = now
		if success {
			row.LastSyncAt = &now
		}
		return tx.Save(&row).Error
	})
	if err != nil {
		return fmt.Errorf("failed to record sync state: %w", err)
	}
	return nil
}

// Session is the persisted state of one browsing session.
type Session struct {
	ID          string
	Loaded      bool
	ReloadCount int
}

// Session returns the state of session id; unknown sessions are returned zeroed.
func (s *Store) Session(ctx context.Context, id string) (Session, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{ID: id}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return Session{ID: row.ID, Loaded: row.Loaded, ReloadCount: row.ReloadCount}, nil
}

// SaveSession persists sess.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	row := sessionRow{ID: sess.ID, Loaded: sess.Loaded, ReloadCount: sess.ReloadCount, UpdatedAt: s.clock.Now()}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("failed to save session %s: %w", sess.ID, err)
	}
	return nil
}

// LoadToken returns the token cached under key.
func (s *Store) LoadToken(ctx context.Context, key string) (string, time.Time, bool, error) {
	var row tokenRow
	err := s.db.WithContext(ctx).Where("`key` = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("failed to load token: %w", err)
	}
	return row.Token, row.ExpiresAt, true, nil
}

// SaveToken caches token under key; an empty token deletes the entry.
func (s *Store) SaveToken(ctx context.Context, key, token string, expiry time.Time) error {
	db := s.db.WithContext(ctx)
	if token == "" {
		if err := db.Where("`key` = ?", key).Delete(&tokenRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete token: %w", err)
		}
		return nil
	}
	if err := db.Save(&tokenRow{Key: key, Token: token, ExpiresAt: expiry}).Error; err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadSettings returns every stored setting.
func (s *Store) LoadSettings(ctx context.Context) (map[string]string, error) {
	var rows []settingRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// SaveSettings upserts values in one transaction.
func (s *Store) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]settingRow, 0, len(values))
	for k, v := range values {
		rows = append(rows, settingRow{Key: k, Value: v})
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
