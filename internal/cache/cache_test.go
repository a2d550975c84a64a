package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
)

var (
	provA = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	provB = uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
	mon   = domain.Date(2025, 1, 6)
	tue   = domain.Date(2025, 1, 7)
)

func slots(starts ...int) []domain.Interval {
	out := make([]domain.Interval, 0, len(starts))
	for _, s := range starts {
		out = append(out, domain.NewInterval(domain.ClockTime(s), 30))
	}
	return out
}

func put(ctx context.Context, c SlotCache, key Key, s []domain.Interval) {
	c.Set(ctx, key, s, c.Generation(ctx, key))
}

func TestKeyString(t *testing.T) {
	got := NewKey(provA, mon, 45).String()
	want := "slots:00000000-0000-0000-0000-0000000000a1:2025-01-06:45"
	if got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

func TestLRU_GetSetAndExpiry(t *testing.T) {
	c, err := NewLRU(8, time.Minute)
	if err != nil {
		t.Fatalf("NewLRU error: %v", err)
	}
	now := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	key := NewKey(provA, mon, 30)

	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	put(ctx, c, key, slots(540, 555))
	got, ok := c.Get(ctx, key)
	if !ok || len(got) != 2 || got[1].Start != 555 {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	got[0].Start = 0
	if again, _ := c.Get(ctx, key); again[0].Start != 540 {
		t.Fatal("cached slots were mutated through a returned slice")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("expired entry was returned")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after expiry, want 0", c.Len())
	}
}

func TestLRU_EmptyListIsAHit(t *testing.T) {
	c, _ := NewLRU(8, time.Minute)
	ctx := context.Background()
	key := NewKey(provA, mon, 30)
	put(ctx, c, key, nil)
	got, ok := c.Get(ctx, key)
	if !ok || got == nil || len(got) != 0 {
		t.Fatalf("Get = %#v, %v; want empty non-nil hit", got, ok)
	}
}

func TestLRU_Invalidation(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *LRU)
		remaining  []Key
	}{
		{
			name:       "day",
			invalidate: func(c *LRU) { c.InvalidateDay(context.Background(), provA, mon) },
			remaining:  []Key{NewKey(provA, tue, 30), NewKey(provB, mon, 30)},
		},
		{
			name:       "provider",
			invalidate: func(c *LRU) { c.InvalidateProvider(context.Background(), provA) },
			remaining:  []Key{NewKey(provB, mon, 30)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewLRU(16, time.Minute)
			ctx := context.Background()
			all := []Key{
				NewKey(provA, mon, 30),
				NewKey(provA, mon, 60),
				NewKey(provA, tue, 30),
				NewKey(provB, mon, 30),
			}
			for _, k := range all {
				put(ctx, c, k, slots(540))
			}
			tt.invalidate(c)
			if c.Len() != len(tt.remaining) {
				t.Fatalf("Len = %d, want %d", c.Len(), len(tt.remaining))
			}
			for _, k := range tt.remaining {
				if _, ok := c.Get(ctx, k); !ok {
					t.Fatalf("%s was dropped", k)
				}
			}
		})
	}
}

func TestLRU_SetDroppedAfterInvalidation(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *LRU)
		kept       bool
	}{
		{name: "same day", invalidate: func(c *LRU) { c.InvalidateDay(context.Background(), provA, mon) }},
		{name: "whole provider", invalidate: func(c *LRU) { c.InvalidateProvider(context.Background(), provA) }},
		{name: "other day", invalidate: func(c *LRU) { c.InvalidateDay(context.Background(), provA, tue) }, kept: true},
		{name: "other provider", invalidate: func(c *LRU) { c.InvalidateProvider(context.Background(), provB) }, kept: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := NewLRU(8, time.Minute)
			ctx := context.Background()
			key := NewKey(provA, mon, 30)

			gen := c.Generation(ctx, key)
			tt.invalidate(c)
			c.Set(ctx, key, slots(540), gen)

			if _, ok := c.Get(ctx, key); ok != tt.kept {
				t.Fatalf("cached = %v, want %v", ok, tt.kept)
			}
		})
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := NewLRU(2, 0)
	ctx := context.Background()
	k1, k2, k3 := NewKey(provA, mon, 15), NewKey(provA, mon, 30), NewKey(provA, mon, 45)
	put(ctx, c, k1, slots(540))
	put(ctx, c, k2, slots(540))
	c.Get(ctx, k1)
	put(ctx, c, k3, slots(540))
	if _, ok := c.Get(ctx, k2); ok {
		t.Fatal("least recently used key survived")
	}
	if _, ok := c.Get(ctx, k1); !ok {
		t.Fatal("recently used key was evicted")
	}
}

func TestRedisIntegration_SetGetInvalidate(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("BOOKING_TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("BOOKING_TEST_REDIS_ADDR not set")
	}
	rdb := NewRedisClient(RedisConfig{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewRedis(rdb, time.Minute, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping error: %v", err)
	}

	provider := uuid.New()
	monKey, tueKey := NewKey(provider, mon, 30), NewKey(provider, tue, 30)
	t.Cleanup(func() {
		c.InvalidateProvider(context.Background(), provider)
		_ = rdb.Del(context.Background(), providerGenKey(provider), dayGenKey(provider, "2025-01-06")).Err()
	})

	put(ctx, c, monKey, slots(540, 570))
	put(ctx, c, tueKey, slots(600))
	got, ok := c.Get(ctx, monKey)
	if !ok || len(got) != 2 || got[1] != domain.NewInterval(570, 30) {
		t.Fatalf("Get = %v, %v", got, ok)
	}

	stale := c.Generation(ctx, monKey)
	c.InvalidateDay(ctx, provider, mon)
	if _, ok := c.Get(ctx, monKey); ok {
		t.Fatal("invalidated day still cached")
	}
	c.Set(ctx, monKey, slots(540), stale)
	if _, ok := c.Get(ctx, monKey); ok {
		t.Fatal("write with a stale generation was kept")
	}
	if _, ok := c.Get(ctx, tueKey); !ok {
		t.Fatal("other day was dropped")
	}
	c.InvalidateProvider(ctx, provider)
	if _, ok := c.Get(ctx, tueKey); ok {
		t.Fatal("provider invalidation left an entry")
	}
}
