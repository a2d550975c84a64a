package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

// memTx applies writes immediately and keeps undo steps so a failed
// transaction leaves the maps as it found them.
type memTx struct {
	*state
	undo []func()
}

func (t *memTx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

func (t *memTx) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) SetProviderStatus(ctx context.Context, id uuid.UUID, status domain.AvailabilityStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.providers[id]
	if !ok {
		return store.ErrNotFound
	}
	next := prev
	next.Status = status
	next.UpdatedAt = time.Now().UTC()
	t.providers[id] = next
	t.onRollback(func() { t.providers[id] = prev })
	return nil
}

func (t *memTx) CreateScheduleBlock(ctx context.Context, b domain.ScheduleBlock) (domain.ScheduleBlock, error) {
	if err := domain.EnsureID(&b.ID); err != nil {
		return domain.ScheduleBlock{}, err
	}
	b.StartDate = domain.DateOf(b.StartDate)
	b.EndDate = domain.DateOf(b.EndDate)
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.providers[b.ProviderID]; !ok {
		return domain.ScheduleBlock{}, store.ErrNotFound
	}
	if _, ok := t.blocks[b.ID]; ok {
		return domain.ScheduleBlock{}, store.ErrConflict
	}
	t.blocks[b.ID] = b
	id := b.ID
	t.onRollback(func() { delete(t.blocks, id) })
	return b, nil
}

func (t *memTx) UpdateScheduleBlock(ctx context.Context, b domain.ScheduleBlock) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.blocks[b.ID]
	if !ok {
		return store.ErrNotFound
	}
	if _, ok := t.providers[b.ProviderID]; !ok {
		return store.ErrNotFound
	}
	b.StartDate = domain.DateOf(b.StartDate)
	b.EndDate = domain.DateOf(b.EndDate)
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	t.blocks[b.ID] = b
	t.onRollback(func() { t.blocks[prev.ID] = prev })
	return nil
}

func (t *memTx) DeleteScheduleBlock(ctx context.Context, id uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.blocks[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(t.blocks, id)
	t.onRollback(func() { t.blocks[id] = prev })
	return nil
}

func (t *memTx) CreateTimeOff(ctx context.Context, r domain.TimeOffRequest) (domain.TimeOffRequest, error) {
	if err := domain.EnsureID(&r.ID); err != nil {
		return domain.TimeOffRequest{}, err
	}
	r.StartDate = domain.DateOf(r.StartDate)
	r.EndDate = domain.DateOf(r.EndDate)
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.RequestedAt.IsZero() {
		r.RequestedAt = now
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.providers[r.ProviderID]; !ok {
		return domain.TimeOffRequest{}, store.ErrNotFound
	}
	if _, ok := t.timeOff[r.ID]; ok {
		return domain.TimeOffRequest{}, store.ErrConflict
	}
	t.timeOff[r.ID] = r
	id := r.ID
	t.onRollback(func() { delete(t.timeOff, id) })
	return r, nil
}

func (t *memTx) UpdateTimeOff(ctx context.Context, r domain.TimeOffRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.timeOff[r.ID]
	if !ok {
		return store.ErrNotFound
	}
	r.CreatedAt = prev.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	t.timeOff[r.ID] = r
	t.onRollback(func() { t.timeOff[prev.ID] = prev })
	return nil
}

func (t *memTx) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if err := domain.EnsureID(&b.ID); err != nil {
		return domain.Booking{}, err
	}
	b.Date = domain.DateOf(b.Date)

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.bookings[b.ID]; ok {
		if !existing.SameRequest(b) {
			return domain.Booking{}, store.ErrIdempotencyConflict
		}
		return existing, nil
	}
	if _, ok := t.providers[b.ProviderID]; !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	if _, ok := t.services[b.ServiceID]; !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	if b.Status != domain.BookingCancelled {
		for _, o := range t.bookings {
			if o.ProviderID != b.ProviderID || !o.Active() || !o.Date.Equal(b.Date) {
				continue
			}
			if domain.Overlaps(o.Interval(), b.Interval()) {
				return domain.Booking{}, store.ErrConflict
			}
		}
	}

	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	t.bookings[b.ID] = b
	id := b.ID
	t.onRollback(func() { delete(t.bookings, id) })
	return b, nil
}

func (t *memTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.bookings[id]
	if !ok {
		return store.ErrNotFound
	}
	next := prev
	next.Status = status
	next.UpdatedAt = time.Now().UTC()
	t.bookings[id] = next
	t.onRollback(func() { t.bookings[id] = prev })
	return nil
}
