package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/cache"
	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

const DefaultSlotStep = 15 * time.Minute

type Reader interface {
	Source
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)
}

type Resolver struct {
	src   Reader
	step  time.Duration
	cache cache.SlotCache
}

type Option func(*Resolver)

// WithStep sets the slot granularity. Durations shorter than the step use
// their own length as the step.
func WithStep(step time.Duration) Option {
	return func(r *Resolver) {
		if step >= time.Minute {
			r.step = step
		}
	}
}

func WithCache(c cache.SlotCache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

func NewResolver(src Reader, opts ...Option) *Resolver {
	r := &Resolver{src: src, step: DefaultSlotStep, cache: cache.Nop{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GridSlot is a candidate start with its availability, for views that show
// taken times greyed out instead of hiding them.
type GridSlot struct {
	domain.Interval
	Available bool
}

// Resolve lists the free slots of durationMinutes for the provider on date,
// in chronological order. Dates without working hours yield an empty list.
func (r *Resolver) Resolve(ctx context.Context, providerID uuid.UUID, date time.Time, durationMinutes int) ([]domain.Interval, error) {
	if err := validateQuery(providerID, date, durationMinutes); err != nil {
		return nil, err
	}
	date = domain.DateOf(date)

	key := cache.NewKey(providerID, date, durationMinutes)
	if slots, ok := r.cache.Get(ctx, key); ok {
		return slots, nil
	}
	gen := r.cache.Generation(ctx, key)

	blocks, exclusion, err := WorkingBlocks(ctx, r.src, providerID, date)
	if err != nil {
		return nil, err
	}
	slots := []domain.Interval{}
	if exclusion == NotExcluded {
		bookings, err := activeBookings(ctx, r.src, providerID, date)
		if err != nil {
			return nil, err
		}
		slots = FreeSlots(blocks, bookings, durationMinutes, SlotStep(r.step, durationMinutes))
	}

	r.cache.Set(ctx, key, slots, gen)
	return slots, nil
}

// ResolveForService resolves slots using the service's duration.
func (r *Resolver) ResolveForService(ctx context.Context, providerID uuid.UUID, date time.Time, serviceID uuid.UUID) ([]domain.Interval, domain.Service, error) {
	svc, err := r.service(ctx, serviceID)
	if err != nil {
		return nil, domain.Service{}, err
	}
	slots, err := r.Resolve(ctx, providerID, date, svc.DurationMinutes)
	if err != nil {
		return nil, domain.Service{}, err
	}
	return slots, svc, nil
}

// DayGrid lists every candidate start on date, marking those that collide
// with a booking as unavailable.
func (r *Resolver) DayGrid(ctx context.Context, providerID uuid.UUID, date time.Time, durationMinutes int) ([]GridSlot, error) {
	if err := validateQuery(providerID, date, durationMinutes); err != nil {
		return nil, err
	}
	date = domain.DateOf(date)

	blocks, exclusion, err := WorkingBlocks(ctx, r.src, providerID, date)
	if err != nil {
		return nil, err
	}
	if exclusion != NotExcluded {
		return []GridSlot{}, nil
	}
	bookings, err := activeBookings(ctx, r.src, providerID, date)
	if err != nil {
		return nil, err
	}

	step := SlotStep(r.step, durationMinutes)
	out := []GridSlot{}
	for _, c := range candidates(blocks, durationMinutes, step) {
		out = append(out, GridSlot{Interval: c, Available: !overlapsAny(c, bookings)})
	}
	return out, nil
}

func (r *Resolver) service(ctx context.Context, serviceID uuid.UUID) (domain.Service, error) {
	if serviceID == uuid.Nil {
		return domain.Service{}, domain.NewValidationError("service_id is required")
	}
	svc, err := r.src.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Service{}, domain.Errorf(domain.ErrNotFound, "service %s not found", serviceID)
		}
		return domain.Service{}, fmt.Errorf("get service: %w", err)
	}
	if !svc.Active {
		return domain.Service{}, domain.NewValidationError("service is not active")
	}
	return svc, nil
}

func validateQuery(providerID uuid.UUID, date time.Time, durationMinutes int) error {
	if durationMinutes <= 0 {
		return domain.NewValidationError("duration must be positive")
	}
	if providerID == uuid.Nil {
		return domain.NewValidationError("provider_id is required")
	}
	if date.IsZero() {
		return domain.NewValidationError("date is required")
	}
	return nil
}

// SlotStep picks the walk increment in minutes: the configured granularity,
// or the duration itself when the service is shorter than that.
func SlotStep(granularity time.Duration, durationMinutes int) int {
	step := int(granularity / time.Minute)
	if step <= 0 {
		step = int(DefaultSlotStep / time.Minute)
	}
	if durationMinutes < step {
		return max(1, durationMinutes)
	}
	return step
}

// FreeSlots walks every block from its work start in step increments and
// keeps the candidates of durationMinutes that overlap no booking. The result
// is sorted by start and holds each start at most once.
func FreeSlots(blocks []domain.ScheduleBlock, bookings []domain.Booking, durationMinutes, step int) []domain.Interval {
	out := []domain.Interval{}
	for _, c := range candidates(blocks, durationMinutes, step) {
		if !overlapsAny(c, bookings) {
			out = append(out, c)
		}
	}
	return out
}

func candidates(blocks []domain.ScheduleBlock, durationMinutes, step int) []domain.Interval {
	if durationMinutes <= 0 || step <= 0 {
		return nil
	}
	seen := make(map[domain.ClockTime]struct{})
	var out []domain.Interval
	for _, b := range blocks {
		for start := b.WorkStart; start.Add(durationMinutes) <= b.WorkEnd; start = start.Add(step) {
			if _, dup := seen[start]; dup {
				continue
			}
			seen[start] = struct{}{}
			out = append(out, domain.NewInterval(start, durationMinutes))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func overlapsAny(slot domain.Interval, bookings []domain.Booking) bool {
	for _, b := range bookings {
		if b.Active() && domain.Overlaps(slot, b.Interval()) {
			return true
		}
	}
	return false
}
