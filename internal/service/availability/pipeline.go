package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

// Source is the read surface the resolver needs. Both a store and a store
// transaction satisfy it, so the booking write path can run the same pipeline
// under its locks.
type Source interface {
	GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error)
	ListScheduleBlocks(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]domain.ScheduleBlock, error)
	ListTimeOff(ctx context.Context, filter store.TimeOffFilter) ([]domain.TimeOffRequest, error)
	ListBookings(ctx context.Context, filter store.BookingFilter) ([]domain.Booking, error)
}

// Exclusion says why a provider has no working hours on a date.
type Exclusion int

const (
	NotExcluded Exclusion = iota
	ExcludedNoSchedule
	ExcludedTimeOff
	ExcludedUnknownProvider
	ExcludedProviderStatus
)

func (e Exclusion) String() string {
	switch e {
	case NotExcluded:
		return "none"
	case ExcludedNoSchedule:
		return "no_schedule"
	case ExcludedTimeOff:
		return "time_off"
	case ExcludedUnknownProvider:
		return "unknown_provider"
	case ExcludedProviderStatus:
		return "provider_status"
	}
	return fmt.Sprintf("exclusion(%d)", int(e))
}

// WorkingBlocks returns the schedule blocks that put the provider to work on
// date. The checks run in a fixed order: schedule coverage and free weekdays,
// approved time-off, then the provider's manual status. The first one that
// excludes the date wins and no blocks are returned.
func WorkingBlocks(ctx context.Context, src Source, providerID uuid.UUID, date time.Time) ([]domain.ScheduleBlock, Exclusion, error) {
	date = domain.DateOf(date)

	blocks, err := src.ListScheduleBlocks(ctx, providerID, date, date)
	if err != nil {
		return nil, NotExcluded, fmt.Errorf("list schedule blocks: %w", err)
	}
	working := blocks[:0:0]
	for _, b := range blocks {
		if b.WorksOn(date) {
			working = append(working, b)
		}
	}
	if len(working) == 0 {
		return nil, ExcludedNoSchedule, nil
	}

	timeOff, err := src.ListTimeOff(ctx, store.TimeOffFilter{
		ProviderID: providerID,
		Status:     domain.TimeOffApproved,
		From:       date,
		To:         date,
	})
	if err != nil {
		return nil, NotExcluded, fmt.Errorf("list time off: %w", err)
	}
	for _, r := range timeOff {
		if r.Status == domain.TimeOffApproved && r.CoversDate(date) {
			return nil, ExcludedTimeOff, nil
		}
	}

	provider, err := src.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ExcludedUnknownProvider, nil
		}
		return nil, NotExcluded, fmt.Errorf("get provider: %w", err)
	}
	if provider.Status != domain.ProviderAvailable {
		return nil, ExcludedProviderStatus, nil
	}

	return working, NotExcluded, nil
}

// activeBookings lists non-cancelled bookings of the provider on date.
func activeBookings(ctx context.Context, src Source, providerID uuid.UUID, date time.Time) ([]domain.Booking, error) {
	bookings, err := src.ListBookings(ctx, store.BookingFilter{
		ProviderID: providerID,
		From:       date,
		To:         date,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
