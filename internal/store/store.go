package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
)

// BookingFilter selects bookings for one provider on the inclusive date range
// [From, To]. Cancelled bookings are skipped unless IncludeCancelled is set.
type BookingFilter struct {
	ProviderID       uuid.UUID
	ClientID         uuid.UUID
	From             time.Time
	To               time.Time
	IncludeCancelled bool
}

// TimeOffFilter selects time-off requests. Zero fields do not filter; From and
// To select requests intersecting that inclusive range.
type TimeOffFilter struct {
	ProviderID  uuid.UUID
	Status      domain.TimeOffStatus
	From        time.Time
	To          time.Time
	NewestFirst bool
}

type Reader interface {
	GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error)
	GetService(ctx context.Context, id uuid.UUID) (domain.Service, error)

	GetScheduleBlock(ctx context.Context, id uuid.UUID) (domain.ScheduleBlock, error)
	// ListScheduleBlocks returns blocks whose range intersects [from, to],
	// ordered by start date then work start.
	ListScheduleBlocks(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]domain.ScheduleBlock, error)

	GetTimeOff(ctx context.Context, id uuid.UUID) (domain.TimeOffRequest, error)
	ListTimeOff(ctx context.Context, filter TimeOffFilter) ([]domain.TimeOffRequest, error)

	GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error)
	// ListBookings orders by date then start time.
	ListBookings(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
}

// Tx is the write surface available inside an atomic section. Everything done
// through a Tx commits or rolls back together.
type Tx interface {
	Reader

	SetProviderStatus(ctx context.Context, id uuid.UUID, status domain.AvailabilityStatus) error

	CreateScheduleBlock(ctx context.Context, block domain.ScheduleBlock) (domain.ScheduleBlock, error)
	UpdateScheduleBlock(ctx context.Context, block domain.ScheduleBlock) error
	DeleteScheduleBlock(ctx context.Context, id uuid.UUID) error

	CreateTimeOff(ctx context.Context, req domain.TimeOffRequest) (domain.TimeOffRequest, error)
	UpdateTimeOff(ctx context.Context, req domain.TimeOffRequest) error

	// CreateBooking returns ErrConflict when the booking overlaps another
	// active booking of the provider on that date, and ErrIdempotencyConflict
	// when the id is taken by a different reservation.
	CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error
}

type TxFunc func(ctx context.Context, tx Tx) error

type Store interface {
	Reader

	CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error)
	CreateService(ctx context.Context, s domain.Service) (domain.Service, error)

	// InProviderTransaction runs fn holding an exclusive lock on every listed
	// provider. Locks are taken in a stable order.
	InProviderTransaction(ctx context.Context, providerIDs []uuid.UUID, fn TxFunc) error
	// InProviderDayTransaction runs fn holding a shared lock on the provider
	// and an exclusive lock on (provider, date). Concurrent commits for the
	// same provider and date are serialized here.
	InProviderDayTransaction(ctx context.Context, providerID uuid.UUID, date time.Time, fn TxFunc) error

	Ping(ctx context.Context) error
}
