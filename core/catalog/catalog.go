// Package catalog resolves the allowed category values from the remote table
// schema, falling back to a single default when the schema offers none.
package catalog

import (
	"context"
	"sync"
	"time"

	"worklog/core/clock"
	"worklog/core/models"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a resolved category list is reused.
const DefaultTTL = 10 * time.Minute

// Source reads category options from the remote schema.
type Source interface {
	ListCategories(ctx context.Context) ([]string, error)
}

type entry struct {
	values []string
	built  time.Time
}

func (e *entry) expired(now time.Time, ttl time.Duration) bool {
	if ttl == 0 {
		return true
	}
	return now.Sub(e.built) > ttl
}

// Resolver caches category lists per table with stampede protection.
type Resolver struct {
	ttl   time.Duration
	clock clock.Clock
	log   *zap.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	sf      singleflight.Group
}

// NewResolver creates a resolver. A zero ttl disables caching.
func NewResolver(ttl time.Duration, clk clock.Clock, log *zap.Logger) *Resolver {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		ttl:     ttl,
		clock:   clk,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// Fallback returns the single default category list.
func Fallback() []string {
	return []string{models.DefaultCategory}
}

// Categories returns the options for the table identified by key.
// A nil source, a failed read or an empty schema all yield Fallback.
func (r *Resolver) Categories(ctx context.Context, key string, src Source) []string {
	if src == nil {
		return Fallback()
	}

	r.mu.RLock()
	cached, ok := r.entries[key]
	r.mu.RUnlock()
	if ok && !cached.expired(r.clock.Now(), r.ttl) {
		return clone(cached.values)
	}

	v, err, _ := r.sf.Do(key, func() (interface{}, error) {
		values, err := src.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			values = Fallback()
		}
		r.mu.Lock()
		r.entries[key] = &entry{values: values, built: r.clock.Now()}
		r.mu.Unlock()
		return values, nil
	})
	if err != nil {
		r.log.Warn("Failed to load categories, using fallback", zap.Error(err))
		return Fallback()
	}
	return clone(v.([]string))
}

// Invalidate drops every cached list.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.entries = make(map[string]*entry)
	r.mu.Unlock()
}

// Contains reports whether category is one of values.
func Contains(values []string, category string) bool {
	for _, v := range values {
		if v == category {
			return true
		}
	}
	return false
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// SourceFunc returns the current source and its cache key. A nil source means
// the remote table is not configured.
type SourceFunc func() (Source, string)

// Catalog binds a Resolver to the currently configured table.
type Catalog struct {
	resolver *Resolver
	source   SourceFunc
}

// New creates a catalog over resolver.
func New(resolver *Resolver, source SourceFunc) *Catalog {
	return &Catalog{resolver: resolver, source: source}
}

// List returns the category options of the configured table.
func (c *Catalog) List(ctx context.Context) []string {
	src, key := c.source()
	return c.resolver.Categories(ctx, key, src)
}

// Allows reports whether category is a known option.
func (c *Catalog) Allows(ctx context.Context, category string) bool {
	return Contains(c.List(ctx), category)
}

// Refresh drops cached lists so the next List reads the schema again.
func (c *Catalog) Refresh() {
	c.resolver.Invalidate()
}
