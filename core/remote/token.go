package remote

import (
	"context"
	"sync"
	"time"

	"worklog/core/clock"

	"golang.org/x/sync/singleflight"
)

// TokenSafetyMargin is subtracted from the advertised token lifetime.
const TokenSafetyMargin = 600 * time.Second

// TokenStore persists bearer tokens across restarts.
type TokenStore interface {
	// LoadToken returns the cached token for key; ok is false when none is stored.
	LoadToken(ctx context.Context, key string) (token string, expiry time.Time, ok bool, err error)
	// SaveToken stores token for key until expiry.
	SaveToken(ctx context.Context, key, token string, expiry time.Time) error
}

// TokenFetcher exchanges credentials for a token and its advertised lifetime.
type TokenFetcher func(ctx context.Context) (token string, expire time.Duration, err error)

type cachedToken struct {
	value  string
	expiry time.Time
}

// TokenCache caches tenant tokens keyed by app id.
// Concurrent refreshes for the same key share one request.
type TokenCache struct {
	mu    sync.Mutex
	mem   map[string]cachedToken
	group singleflight.Group
	store TokenStore
	clock clock.Clock
}

// NewTokenCache creates a cache. store may be nil for a memory-only cache.
func NewTokenCache(store TokenStore, clk clock.Clock) *TokenCache {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TokenCache{
		mem:   make(map[string]cachedToken),
		store: store,
		clock: clk,
	}
}

// Get returns an unexpired token for key, calling fetch only on a miss.
func (c *TokenCache) Get(ctx context.Context, key string, fetch TokenFetcher) (string, error) {
	if tok, ok := c.lookup(ctx, key); ok {
		return tok, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if tok, ok := c.lookup(ctx, key); ok {
			return tok, nil
		}
		tok, expire, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		expiry := c.clock.Now().Add(expire - TokenSafetyMargin)
		c.mu.Lock()
		c.mem[key] = cachedToken{value: tok, expiry: expiry}
		c.mu.Unlock()
		if c.store != nil {
			// A persistence failure only costs one extra token request after restart.
			_ = c.store.SaveToken(ctx, key, tok, expiry)
		}
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the token cached for key.
func (c *TokenCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()
	if c.store != nil {
		_ = c.store.SaveToken(ctx, key, "", time.Time{})
	}
}

func (c *TokenCache) lookup(ctx context.Context, key string) (string, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	cached, ok := c.mem[key]
	c.mu.Unlock()
	if ok && cached.value != "" && now.Before(cached.expiry) {
		return cached.value, true
	}

	if c.store == nil {
		return "", false
	}
	tok, expiry, found, err := c.store.LoadToken(ctx, key)
	if err != nil || !found || tok == "" || !now.Before(expiry) {
		return "", false
	}
	c.mu.Lock()
	c.mem[key] = cachedToken{value: tok, expiry: expiry}
	c.mu.Unlock()
	return tok, true
}
