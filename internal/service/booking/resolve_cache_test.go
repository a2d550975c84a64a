package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"barberpro/backend/internal/cache"
	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/service/availability"
	"barberpro/backend/internal/store"
	"barberpro/backend/internal/store/memory"
)

// commitDuringList returns a booking snapshot taken before running during,
// so a commit lands between the resolver's read and its cache write.
type commitDuringList struct {
	*memory.Store
	once   sync.Once
	during func()
}

func (s *commitDuringList) ListBookings(ctx context.Context, f store.BookingFilter) ([]domain.Booking, error) {
	out, err := s.Store.ListBookings(ctx, f)
	s.once.Do(s.during)
	return out, err
}

func TestResolve_CommitDuringReadDoesNotLeaveStaleSlotsCached(t *testing.T) {
	s := seed(t)
	slotCache, err := cache.NewLRU(64, time.Minute)
	if err != nil {
		t.Fatalf("NewLRU error: %v", err)
	}
	m := NewManager(s, slotCache, nil)
	ctx := context.Background()

	var (
		committed domain.Booking
		commitErr error
	)
	src := &commitDuringList{Store: s, during: func() {
		committed, commitErr = m.Commit(ctx, commitInput(domain.Clock(9, 0)))
	}}
	r := availability.NewResolver(src, availability.WithCache(slotCache))

	if _, err := r.Resolve(ctx, providerID, day, 60); err != nil {
		t.Fatalf("first Resolve error: %v", err)
	}
	if commitErr != nil {
		t.Fatalf("Commit error: %v", commitErr)
	}

	slots, err := r.Resolve(ctx, providerID, day, 60)
	if err != nil {
		t.Fatalf("second Resolve error: %v", err)
	}
	if len(slots) == 0 || slots[0].Start != domain.Clock(10, 0) {
		t.Fatalf("slots = %v, want the first free start at 10:00", slots)
	}
	for _, slot := range slots {
		if domain.Overlaps(slot, committed.Interval()) {
			t.Fatalf("slot %s overlaps committed booking %s", slot, committed.Interval())
		}
	}
}
