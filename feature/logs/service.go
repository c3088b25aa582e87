package logs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"worklog/core/clock"
	"worklog/core/models"
	"worklog/core/store"

	"go.uber.org/zap"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

var (
	// ErrUnknownCategory is returned when a new record names a category the catalog does not offer.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrDeleted is returned when editing a record that is pending deletion.
	ErrDeleted = errors.New("record is deleted")
)

// Store is the local snapshot store.
type Store interface {
	Snapshot(ctx context.Context) ([]models.LogRecord, error)
	Get(ctx context.Context, id string) (models.LogRecord, error)
	Put(ctx context.Context, r models.LogRecord) error
	Exclusive(fn func() error) error
}

// Categories is the type catalog.
type Categories interface {
	List(ctx context.Context) []string
	Allows(ctx context.Context, category string) bool
}

// Input carries the user-editable fields of a record.
type Input struct {
	Content  string `json:"content" yaml:"content"`
	Date     string `json:"date" yaml:"date"`
	Time     string `json:"time" yaml:"time"`
	Category string `json:"category" yaml:"category"`
}

// Filter narrows the weekly view.
type Filter struct {
	// Query matches content case-insensitively. Empty matches everything.
	Query string
	// Category matches exactly. Empty or CategoryAll matches everything.
	Category string
}

func (f Filter) match(r models.LogRecord) bool {
	if f.Category != "" && f.Category != CategoryAll && r.Category != f.Category {
		return false
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		return strings.Contains(strings.ToLower(r.Content), strings.ToLower(q))
	}
	return true
}

// Day is one column of the weekly view.
type Day struct {
	Date    string             `json:"date" yaml:"date"`
	Weekday string             `json:"weekday" yaml:"weekday"`
	Records []models.LogRecord `json:"records" yaml:"records"`
}

// Week is the Sunday-to-Saturday view containing a date.
type Week struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
	Days  []Day  `json:"days" yaml:"days"`
}

// Service edits and lists local records.
type Service struct {
	store      Store
	categories Categories
	clock      clock.Clock
	loc        *time.Location
	logger     *zap.Logger
}

// NewService creates a service. loc is the zone of calendar dates.
func NewService(s Store, categories Categories, clk clock.Clock, loc *time.Location, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, categories: categories, clock: clk, loc: loc, logger: logger}
}

// fields normalizes the editable fields of in into r.
func (s *Service) fields(r models.LogRecord, in Input) (models.LogRecord, error) {
	date, err := models.NormalizeDate(in.Date)
	if err != nil {
		return r, &models.ValidationError{Fields: []string{"date (logdate)"}}
	}
	tod, err := models.NormalizeTime(in.Time)
	if err != nil {
		return r, &models.ValidationError{Fields: []string{"time (logtime)"}}
	}
	r.Content = strings.TrimSpace(in.Content)
	r.Date = date
	r.Time = tod
	r.Category = strings.TrimSpace(in.Category)
	if r.Category == "" {
		r.Category = models.DefaultCategory
	}
	return r, models.Validate(r)
}

// Create stores a new unsynced record under a temporary id.
func (s *Service) Create(ctx context.Context, in Input) (models.LogRecord, error) {
	now := s.clock.Now()
	rec, err := s.fields(models.LogRecord{
		Status:    models.StatusUnsynced,
		CreatedAt: now.UTC().Format(time.RFC3339),
	}, in)
	if err != nil {
		return models.LogRecord{}, err
	}
	if !s.categories.Allows(ctx, rec.Category) {
		return models.LogRecord{}, fmt.Errorf("%w: %s", ErrUnknownCategory, rec.Category)
	}

	err = s.store.Exclusive(func() error {
		// Two creates within one millisecond would mint the same id.
		for stamp := now; ; stamp = stamp.Add(time.Millisecond) {
			rec.ID = models.NewTemporaryID(stamp)
			_, err := s.store.Get(ctx, rec.ID)
			if errors.Is(err, store.ErrNotFound) {
				break
			}
			if err != nil {
				return err
			}
		}
		return s.store.Put(ctx, rec)
	})
	if err != nil {
		return models.LogRecord{}, err
	}

	s.logger.Info("Log record created", zap.String("id", rec.ID), zap.String("date", rec.Date))
	return rec, nil
}

// Update replaces the editable fields of id and marks it unsynced. The id and
// creation time never change.
func (s *Service) Update(ctx context.Context, id string, in Input) (models.LogRecord, error) {
	var updated models.LogRecord
	err := s.store.Exclusive(func() error {
		existing, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing.IsTombstone() {
			return fmt.Errorf("%s: %w", id, ErrDeleted)
		}
		rec, err := s.fields(existing, in)
		if err != nil {
			return err
		}
		rec.Status = models.StatusUnsynced
		if err := s.store.Put(ctx, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return models.LogRecord{}, err
	}

	s.logger.Info("Log record updated", zap.String("id", id))
	return updated, nil
}

// Delete turns id into a tombstone. Deleting a tombstone is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Exclusive(func() error {
		existing, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if existing.IsTombstone() {
			return nil
		}
		return s.store.Put(ctx, existing.WithStatus(models.StatusPendingDelete))
	})
	if err != nil {
		return err
	}

	s.logger.Info("Log record deleted", zap.String("id", id))
	return nil
}

// Get returns the visible record id.
func (s *Service) Get(ctx context.Context, id string) (models.LogRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return models.LogRecord{}, err
	}
	if rec.IsTombstone() {
		return models.LogRecord{}, fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	return rec, nil
}

// Today returns the current calendar date.
func (s *Service) Today() string {
	return models.FormatDate(s.clock.Now().In(s.loc))
}

// Week returns the week containing date, or the current week when date is empty.
// Tombstones never appear; each day is sorted by time.
func (s *Service) Week(ctx context.Context, date string, f Filter) (Week, error) {
	if date == "" {
		date = s.Today()
	}
	day, err := models.ParseDate(date, s.loc)
	if err != nil {
		return Week{}, &models.ValidationError{Fields: []string{"date (logdate)"}}
	}
	start := models.WeekStart(day)

	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return Week{}, err
	}

	week := Week{Days: make([]Day, 7)}
	index := make(map[string]int, 7)
	for i := range week.Days {
		d := start.AddDate(0, 0, i)
		week.Days[i] = Day{Date: models.FormatDate(d), Weekday: d.Weekday().String(), Records: []models.LogRecord{}}
		index[week.Days[i].Date] = i
	}
	week.Start = week.Days[0].Date
	week.End = week.Days[6].Date

	for _, r := range records {
		i, ok := index[r.Date]
		if !ok || !r.Visible() || !f.match(r) {
			continue
		}
		week.Days[i].Records = append(week.Days[i].Records, r)
	}
	for i := range week.Days {
		recs := week.Days[i].Records
		sort.SliceStable(recs, func(a, b int) bool { return recs[a].Time < recs[b].Time })
	}
	return week, nil
}

// Categories returns the options for the category filter and the edit form.
func (s *Service) Categories(ctx context.Context) []string {
	return s.categories.List(ctx)
}
