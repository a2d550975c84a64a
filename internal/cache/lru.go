package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"barberpro/backend/internal/domain"
)

type lruEntry struct {
	slots     []domain.Interval
	expiresAt time.Time
}

type dayKey struct {
	provider uuid.UUID
	date     string
}

// LRU is a size-bounded in-process cache. It is only coherent within a single
// server instance; use Redis when several instances share a database.
type LRU struct {
	cache *lru.Cache[Key, lruEntry]
	ttl   time.Duration
	now   func() time.Time

	// mu orders generation bumps against conditional writes.
	mu           sync.Mutex
	providerGens map[uuid.UUID]int64
	dayGens      map[dayKey]int64
}

func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[Key, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{
		cache:        c,
		ttl:          ttl,
		now:          time.Now,
		providerGens: make(map[uuid.UUID]int64),
		dayGens:      make(map[dayKey]int64),
	}, nil
}

func (c *LRU) Get(ctx context.Context, key Key) ([]domain.Interval, bool) {
	e, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().After(e.expiresAt) {
		c.cache.Remove(key)
		return nil, false
	}
	return clone(e.slots), true
}

func (c *LRU) Generation(ctx context.Context, key Key) Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation(key)
}

func (c *LRU) generation(key Key) Generation {
	return Generation{
		Provider: c.providerGens[key.ProviderID],
		Day:      c.dayGens[dayKey{provider: key.ProviderID, date: key.Date}],
	}
}

func (c *LRU) Set(ctx context.Context, key Key, slots []domain.Interval, gen Generation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation(key) != gen {
		return
	}
	c.cache.Add(key, lruEntry{slots: clone(slots), expiresAt: c.now().Add(c.ttl)})
}

func (c *LRU) InvalidateDay(ctx context.Context, providerID uuid.UUID, date time.Time) {
	day := domain.FormatDate(date)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dayGens[dayKey{provider: providerID, date: day}]++
	for _, k := range c.cache.Keys() {
		if k.ProviderID == providerID && k.Date == day {
			c.cache.Remove(k)
		}
	}
}

func (c *LRU) InvalidateProvider(ctx context.Context, providerID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providerGens[providerID]++
	for _, k := range c.cache.Keys() {
		if k.ProviderID == providerID {
			c.cache.Remove(k)
		}
	}
}

func (c *LRU) Len() int {
	return c.cache.Len()
}
