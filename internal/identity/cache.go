package identity

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a quantized classification is reused
const DefaultCacheTTL = 60 * time.Second

type cacheEntry struct {
	identity  Identity
	expiresAt time.Time
}

// Cache stores classifications keyed by the vector rounded to one decimal.
// Expired entries are ignored by Get and removed by Sweep.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache creates a cache. A nil clock uses time.Now.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]cacheEntry),
	}
}

// Key quantizes the signals to one decimal per dimension
func Key(sig Signals) string {
	v := sig.Vector
	return fmt.Sprintf("%.1f:%.1f:%.1f:%.1f:%.1f:%.1f",
		quantize(v.Exploration), quantize(v.Hesitation), quantize(v.Engagement),
		quantize(v.Velocity), quantize(v.Focus), quantize(sig.Frustration))
}

func quantize(v float64) float64 {
	q := math.Round(v*10) / 10
	// avoid "-0.0" keys
	if q == 0 {
		return 0
	}
	return q
}

func (c *Cache) Get(key string) (Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return Identity{}, false
	}
	return e.identity, true
}

func (c *Cache) Set(key string, id Identity) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{identity: id, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were dropped
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Run sweeps on every interval tick until ctx is done
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
