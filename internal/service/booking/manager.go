// Package booking commits reservations. Every write for a provider and date
// runs inside the store's day-scoped transaction, so the availability check
// and the insert see the same bookings.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/cache"
	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/service/availability"
	"barberpro/backend/internal/store"
)

const maxIdempotencyKeyLength = 256

type Manager struct {
	store store.Store
	cache cache.Invalidator
	log   *slog.Logger
}

func NewManager(s store.Store, inv cache.Invalidator, log *slog.Logger) *Manager {
	if inv == nil {
		inv = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{store: s, cache: inv, log: log.With("component", "booking")}
}

type CommitInput struct {
	ProviderID     uuid.UUID
	ServiceID      uuid.UUID
	ClientID       uuid.UUID
	Date           time.Time
	Start          domain.ClockTime
	IdempotencyKey string
}

// Commit reserves [Start, Start+service duration) for the client. The
// booking is created Pending.
func (m *Manager) Commit(ctx context.Context, in CommitInput) (domain.Booking, error) {
	if in.ProviderID == uuid.Nil {
		return domain.Booking{}, domain.NewValidationError("provider_id is required")
	}
	if in.ServiceID == uuid.Nil {
		return domain.Booking{}, domain.NewValidationError("service_id is required")
	}
	if in.ClientID == uuid.Nil {
		return domain.Booking{}, domain.NewValidationError("client_id is required")
	}
	if in.Date.IsZero() {
		return domain.Booking{}, domain.NewValidationError("date is required")
	}
	if !in.Start.Valid() || in.Start == domain.EndOfDay {
		return domain.Booking{}, domain.NewValidationError("start time must be within the day")
	}
	date := domain.DateOf(in.Date)

	svc, err := m.store.GetService(ctx, in.ServiceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, domain.Errorf(domain.ErrNotFound, "service %s not found", in.ServiceID)
		}
		return domain.Booking{}, fmt.Errorf("get service: %w", err)
	}
	if !svc.Active {
		return domain.Booking{}, domain.NewValidationError("service is not active")
	}
	if svc.DurationMinutes <= 0 {
		return domain.Booking{}, domain.NewValidationError("service duration must be positive")
	}

	if err := m.checkProvider(ctx, m.store, in.ProviderID); err != nil {
		return domain.Booking{}, err
	}

	slot := domain.NewInterval(in.Start, svc.DurationMinutes)
	if slot.End > domain.EndOfDay {
		return domain.Booking{}, domain.Errorf(domain.ErrOutOfSchedule, "booking %s runs past the end of the day", slot)
	}

	b := domain.Booking{
		ProviderID: in.ProviderID,
		ServiceID:  svc.ID,
		ClientID:   in.ClientID,
		Date:       date,
		Start:      slot.Start,
		End:        slot.End,
		Status:     domain.BookingPending,
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > maxIdempotencyKeyLength {
			return domain.Booking{}, domain.NewValidationError("idempotency_key too long")
		}
		b.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("barberpro:commit_booking:"+in.ClientID.String()+":"+key))
	}

	var out domain.Booking
	replayed := false
	err = m.store.InProviderDayTransaction(ctx, in.ProviderID, date, func(ctx context.Context, tx store.Tx) error {
		if key != "" {
			existing, err := tx.GetBooking(ctx, b.ID)
			switch {
			case err == nil:
				if !existing.SameRequest(b) {
					return domain.Errorf(domain.ErrConflict, "idempotency key already used for a different booking")
				}
				out, replayed = existing, true
				return nil
			case !errors.Is(err, store.ErrNotFound):
				return fmt.Errorf("get booking: %w", err)
			}
		}

		if err := m.checkProvider(ctx, tx, in.ProviderID); err != nil {
			return err
		}

		blocks, exclusion, err := availability.WorkingBlocks(ctx, tx, in.ProviderID, date)
		if err != nil {
			return err
		}
		switch exclusion {
		case availability.NotExcluded:
		case availability.ExcludedProviderStatus:
			return domain.Errorf(domain.ErrUnavailable, "provider is not available on %s", domain.FormatDate(date))
		case availability.ExcludedUnknownProvider:
			return domain.Errorf(domain.ErrNotFound, "provider %s not found", in.ProviderID)
		default:
			return domain.Errorf(domain.ErrNoSchedule, "provider is not scheduled on %s (%s)", domain.FormatDate(date), exclusion)
		}
		if !withinAny(blocks, slot) {
			return domain.Errorf(domain.ErrOutOfSchedule, "booking %s is outside working hours", slot)
		}

		existing, err := tx.ListBookings(ctx, store.BookingFilter{ProviderID: in.ProviderID, From: date, To: date})
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		for _, o := range existing {
			if o.Active() && domain.Overlaps(o.Interval(), slot) {
				return domain.Errorf(domain.ErrSlotTaken, "slot %s overlaps an existing booking", slot)
			}
		}

		created, err := tx.CreateBooking(ctx, b)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Booking{}, mapWriteErr(err)
	}

	if !replayed {
		m.cache.InvalidateDay(ctx, out.ProviderID, out.Date)
		m.log.InfoContext(ctx, "booking committed",
			"booking_id", out.ID.String(),
			"provider_id", out.ProviderID.String(),
			"date", domain.FormatDate(out.Date),
			"start", out.Start.String(),
		)
	}
	return out, nil
}

// Transition moves a booking along pending -> confirmed -> completed, or to
// cancelled from any non-terminal state.
func (m *Manager) Transition(ctx context.Context, bookingID uuid.UUID, to domain.BookingStatus) (domain.Booking, error) {
	if bookingID == uuid.Nil {
		return domain.Booking{}, domain.NewValidationError("booking_id is required")
	}
	if !to.Valid() {
		return domain.Booking{}, domain.NewValidationError("unknown booking status " + string(to))
	}

	current, err := m.Get(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	var out domain.Booking
	err = m.store.InProviderDayTransaction(ctx, current.ProviderID, current.Date, func(ctx context.Context, tx store.Tx) error {
		b, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := b.TransitionTo(to); err != nil {
			return err
		}
		if err := tx.UpdateBookingStatus(ctx, b.ID, b.Status); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, domain.Errorf(domain.ErrNotFound, "booking %s not found", bookingID)
		}
		return domain.Booking{}, mapWriteErr(err)
	}

	m.cache.InvalidateDay(ctx, out.ProviderID, out.Date)
	m.log.InfoContext(ctx, "booking status changed",
		"booking_id", out.ID.String(),
		"from", string(current.Status),
		"to", string(out.Status),
	)
	return out, nil
}

func (m *Manager) Get(ctx context.Context, bookingID uuid.UUID) (domain.Booking, error) {
	if bookingID == uuid.Nil {
		return domain.Booking{}, domain.NewValidationError("booking_id is required")
	}
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Booking{}, domain.Errorf(domain.ErrNotFound, "booking %s not found", bookingID)
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (m *Manager) ListForProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time, includeCancelled bool) ([]domain.Booking, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider_id is required")
	}
	return m.list(ctx, store.BookingFilter{ProviderID: providerID, IncludeCancelled: includeCancelled}, from, to)
}

// ListForClient is the client's booking history across providers.
func (m *Manager) ListForClient(ctx context.Context, clientID uuid.UUID, from, to time.Time, includeCancelled bool) ([]domain.Booking, error) {
	if clientID == uuid.Nil {
		return nil, domain.NewValidationError("client_id is required")
	}
	return m.list(ctx, store.BookingFilter{ClientID: clientID, IncludeCancelled: includeCancelled}, from, to)
}

func (m *Manager) list(ctx context.Context, f store.BookingFilter, from, to time.Time) ([]domain.Booking, error) {
	if from.IsZero() || to.IsZero() {
		return nil, domain.NewValidationError("from and to are required")
	}
	if domain.DateOf(to).Before(domain.DateOf(from)) {
		return nil, domain.NewValidationError("to must not be before from")
	}
	f.From, f.To = domain.DateOf(from), domain.DateOf(to)
	out, err := m.store.ListBookings(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if out == nil {
		out = []domain.Booking{}
	}
	return out, nil
}

func (m *Manager) checkProvider(ctx context.Context, r store.Reader, providerID uuid.UUID) error {
	p, err := r.GetProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Errorf(domain.ErrNotFound, "provider %s not found", providerID)
		}
		return fmt.Errorf("get provider: %w", err)
	}
	if p.Status != domain.ProviderAvailable {
		return domain.Errorf(domain.ErrUnavailable, "provider is %s", p.Status)
	}
	return nil
}

func withinAny(blocks []domain.ScheduleBlock, slot domain.Interval) bool {
	for _, b := range blocks {
		if domain.Contains(b.WorkingHours(), slot) {
			return true
		}
	}
	return false
}

// mapWriteErr turns store sentinels that escape a transaction into domain
// kinds. Errors that already carry a kind pass through.
func mapWriteErr(err error) error {
	switch {
	case errors.Is(err, store.ErrIdempotencyConflict):
		return domain.Errorf(domain.ErrConflict, "idempotency key already used for a different booking")
	case errors.Is(err, store.ErrConflict):
		return domain.Errorf(domain.ErrSlotTaken, "slot is already booked")
	case errors.Is(err, store.ErrNotFound):
		return domain.Errorf(domain.ErrNotFound, "referenced record not found")
	}
	return err
}
