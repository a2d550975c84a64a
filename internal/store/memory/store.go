// Package memory is an in-process implementation of store.Store. It backs
// tests and single-instance development runs; nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

type state struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]domain.Provider
	services  map[uuid.UUID]domain.Service
	blocks    map[uuid.UUID]domain.ScheduleBlock
	timeOff   map[uuid.UUID]domain.TimeOffRequest
	bookings  map[uuid.UUID]domain.Booking
}

type Store struct {
	*state
	locks *lockTable
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		state: &state{
			providers: make(map[uuid.UUID]domain.Provider),
			services:  make(map[uuid.UUID]domain.Service),
			blocks:    make(map[uuid.UUID]domain.ScheduleBlock),
			timeOff:   make(map[uuid.UUID]domain.TimeOffRequest),
			bookings:  make(map[uuid.UUID]domain.Booking),
		},
		locks: newLockTable(),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	if err := domain.EnsureID(&p.ID); err != nil {
		return domain.Provider{}, err
	}
	if p.Status == "" {
		p.Status = domain.ProviderAvailable
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[p.ID]; ok {
		return domain.Provider{}, store.ErrConflict
	}
	s.providers[p.ID] = p
	return p, nil
}

func (s *Store) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	if err := domain.EnsureID(&svc.ID); err != nil {
		return domain.Service{}, err
	}
	now := time.Now().UTC()
	svc.CreatedAt, svc.UpdatedAt = now, now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[svc.ID]; ok {
		return domain.Service{}, store.ErrConflict
	}
	s.services[svc.ID] = svc
	return svc, nil
}

func (s *Store) InProviderTransaction(ctx context.Context, providerIDs []uuid.UUID, fn store.TxFunc) error {
	ids := slices.Clone(providerIDs)
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	ids = slices.Compact(ids)

	for _, id := range ids {
		sem := s.locks.provider(id)
		if err := acquire(ctx, sem, exclusiveWeight); err != nil {
			return err
		}
		defer sem.Release(exclusiveWeight)
	}
	return s.run(ctx, fn)
}

func (s *Store) InProviderDayTransaction(ctx context.Context, providerID uuid.UUID, date time.Time, fn store.TxFunc) error {
	provider := s.locks.provider(providerID)
	if err := acquire(ctx, provider, 1); err != nil {
		return err
	}
	defer provider.Release(1)

	day := s.locks.day(providerID, date)
	if err := acquire(ctx, day, 1); err != nil {
		return err
	}
	defer day.Release(1)

	return s.run(ctx, fn)
}

// run executes fn to completion once the locks are held; a late
// cancellation of ctx does not interrupt it halfway.
func (s *Store) run(ctx context.Context, fn store.TxFunc) error {
	tx := &memTx{state: s.state}
	if err := fn(context.WithoutCancel(ctx), tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *state) GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	if !ok {
		return domain.Provider{}, store.ErrNotFound
	}
	return p, nil
}

func (s *state) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.services[id]
	if !ok {
		return domain.Service{}, store.ErrNotFound
	}
	return svc, nil
}

func (s *state) GetScheduleBlock(ctx context.Context, id uuid.UUID) (domain.ScheduleBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok {
		return domain.ScheduleBlock{}, store.ErrNotFound
	}
	return b, nil
}

func (s *state) ListScheduleBlocks(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]domain.ScheduleBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ScheduleBlock
	for _, b := range s.blocks {
		if b.ProviderID != providerID {
			continue
		}
		if !domain.RangesIntersect(b.StartDate, b.EndDate, from, to) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		if out[i].WorkStart != out[j].WorkStart {
			return out[i].WorkStart < out[j].WorkStart
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *state) GetTimeOff(ctx context.Context, id uuid.UUID) (domain.TimeOffRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.timeOff[id]
	if !ok {
		return domain.TimeOffRequest{}, store.ErrNotFound
	}
	return r, nil
}

func (s *state) ListTimeOff(ctx context.Context, f store.TimeOffFilter) ([]domain.TimeOffRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.TimeOffRequest
	for _, r := range s.timeOff {
		if f.ProviderID != uuid.Nil && r.ProviderID != f.ProviderID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && domain.DateOf(r.EndDate).Before(domain.DateOf(f.From)) {
			continue
		}
		if !f.To.IsZero() && domain.DateOf(r.StartDate).After(domain.DateOf(f.To)) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if f.NewestFirst {
			a, b = b, a
		}
		if !a.RequestedAt.Equal(b.RequestedAt) {
			return a.RequestedAt.Before(b.RequestedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *state) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (s *state) ListBookings(ctx context.Context, f store.BookingFilter) ([]domain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Booking
	for _, b := range s.bookings {
		if f.ProviderID != uuid.Nil && b.ProviderID != f.ProviderID {
			continue
		}
		if f.ClientID != uuid.Nil && b.ClientID != f.ClientID {
			continue
		}
		if !f.IncludeCancelled && !b.Active() {
			continue
		}
		if !domain.RangeContains(f.From, f.To, b.Date) {
			continue
		}
		out = append(out, b)
	}
	sortBookings(out)
	return out, nil
}

func sortBookings(out []domain.Booking) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].ID.String() < out[j].ID.String()
	})
}
