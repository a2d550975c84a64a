// Package cache keeps resolved slot lists keyed by provider, date and
// duration. Entries are dropped by writers that change availability; the
// booking write path re-validates, so a stale entry can only mislead a slot
// picker, never cause a double booking.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
)

type Key struct {
	ProviderID      uuid.UUID
	Date            string
	DurationMinutes int
}

func NewKey(providerID uuid.UUID, date time.Time, durationMinutes int) Key {
	return Key{ProviderID: providerID, Date: domain.FormatDate(date), DurationMinutes: durationMinutes}
}

func (k Key) String() string {
	return "slots:" + k.ProviderID.String() + ":" + k.Date + ":" + strconv.Itoa(k.DurationMinutes)
}

// Invalidator is what write paths need to announce a change.
type Invalidator interface {
	InvalidateDay(ctx context.Context, providerID uuid.UUID, date time.Time)
	InvalidateProvider(ctx context.Context, providerID uuid.UUID)
}

// Generation identifies the invalidation state of a key's provider and day.
// Any invalidation covering the key moves it forward.
type Generation struct {
	Provider int64
	Day      int64
}

// SlotCache readers take a Generation before reading the store and hand it
// back to Set, which drops the write if an invalidation happened in between.
type SlotCache interface {
	Invalidator
	Get(ctx context.Context, key Key) ([]domain.Interval, bool)
	Generation(ctx context.Context, key Key) Generation
	Set(ctx context.Context, key Key, slots []domain.Interval, gen Generation)
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, Key) ([]domain.Interval, bool)      { return nil, false }
func (Nop) Generation(context.Context, Key) Generation              { return Generation{} }
func (Nop) Set(context.Context, Key, []domain.Interval, Generation) {}
func (Nop) InvalidateDay(context.Context, uuid.UUID, time.Time)     {}
func (Nop) InvalidateProvider(context.Context, uuid.UUID)           {}

func clone(slots []domain.Interval) []domain.Interval {
	if slots == nil {
		return []domain.Interval{}
	}
	out := make([]domain.Interval, len(slots))
	copy(out, slots)
	return out
}
