// Package storetest holds behaviour every store.Store implementation must
// share. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

var (
	ProviderID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	ServiceID  = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	Day        = domain.Date(2025, 1, 6)
)

var errRollback = errors.New("rollback requested")

// Run exercises s; newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("providers and services", func(t *testing.T) { testCatalog(t, seeded(t, newStore)) })
	t.Run("schedule blocks", func(t *testing.T) { testScheduleBlocks(t, seeded(t, newStore)) })
	t.Run("booking overlap", func(t *testing.T) { testBookingOverlap(t, seeded(t, newStore)) })
	t.Run("idempotent booking ids", func(t *testing.T) { testIdempotentIDs(t, seeded(t, newStore)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, seeded(t, newStore)) })
	t.Run("time-off", func(t *testing.T) { testTimeOff(t, seeded(t, newStore)) })
	t.Run("concurrent day transactions", func(t *testing.T) { testConcurrentDay(t, seeded(t, newStore)) })
}

func seeded(t *testing.T, newStore func(t *testing.T) store.Store) store.Store {
	t.Helper()
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.CreateProvider(ctx, domain.Provider{ID: ProviderID, DisplayName: "Luis", Status: domain.ProviderAvailable}); err != nil {
		t.Fatalf("CreateProvider error: %v", err)
	}
	if _, err := s.CreateService(ctx, domain.Service{ID: ServiceID, Name: "Corte", DurationMinutes: 30, Price: "12.50", Active: true}); err != nil {
		t.Fatalf("CreateService error: %v", err)
	}
	return s
}

func inTx(t *testing.T, s store.Store, fn store.TxFunc) error {
	t.Helper()
	return s.InProviderTransaction(context.Background(), []uuid.UUID{ProviderID}, fn)
}

func newBooking(start domain.ClockTime) domain.Booking {
	return domain.Booking{
		ProviderID: ProviderID,
		ServiceID:  ServiceID,
		ClientID:   uuid.New(),
		Date:       Day,
		Start:      start,
		End:        start.Add(30),
		Status:     domain.BookingPending,
	}
}

func createBooking(s store.Store, b domain.Booking) (domain.Booking, error) {
	var out domain.Booking
	err := s.InProviderDayTransaction(context.Background(), b.ProviderID, b.Date, func(ctx context.Context, tx store.Tx) error {
		var err error
		out, err = tx.CreateBooking(ctx, b)
		return err
	})
	return out, err
}

func testCatalog(t *testing.T, s store.Store) {
	ctx := context.Background()
	p, err := s.GetProvider(ctx, ProviderID)
	if err != nil {
		t.Fatalf("GetProvider error: %v", err)
	}
	if p.Status != domain.ProviderAvailable {
		t.Fatalf("status = %q", p.Status)
	}
	if _, err := s.GetProvider(ctx, uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown provider err = %v, want ErrNotFound", err)
	}
	svc, err := s.GetService(ctx, ServiceID)
	if err != nil {
		t.Fatalf("GetService error: %v", err)
	}
	if svc.DurationMinutes != 30 || !svc.Active {
		t.Fatalf("service = %+v", svc)
	}

	err = inTx(t, s, func(ctx context.Context, tx store.Tx) error {
		return tx.SetProviderStatus(ctx, ProviderID, domain.ProviderBusy)
	})
	if err != nil {
		t.Fatalf("SetProviderStatus error: %v", err)
	}
	if p, _ := s.GetProvider(ctx, ProviderID); p.Status != domain.ProviderBusy {
		t.Fatalf("status = %q, want busy", p.Status)
	}
	err = inTx(t, s, func(ctx context.Context, tx store.Tx) error {
		return tx.SetProviderStatus(ctx, uuid.New(), domain.ProviderBusy)
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown provider status err = %v, want ErrNotFound", err)
	}
}

func testScheduleBlocks(t *testing.T, s store.Store) {
	ctx := context.Background()
	var feb, mar domain.ScheduleBlock
	err := inTx(t, s, func(ctx context.Context, tx store.Tx) error {
		var err error
		feb, err = tx.CreateScheduleBlock(ctx, domain.ScheduleBlock{
			ProviderID: ProviderID,
			StartDate:  domain.Date(2025, 2, 1),
			EndDate:    domain.Date(2025, 2, 28),
			WorkStart:  domain.Clock(9, 0),
			WorkEnd:    domain.Clock(17, 0),
			FreeDays:   domain.NewWeekdaySet(time.Saturday, time.Sunday),
		})
		if err != nil {
			return err
		}
		mar, err = tx.CreateScheduleBlock(ctx, domain.ScheduleBlock{
			ProviderID: ProviderID,
			StartDate:  domain.Date(2025, 3, 1),
			EndDate:    domain.Date(2025, 3, 31),
			WorkStart:  domain.Clock(10, 0),
			WorkEnd:    domain.Clock(14, 0),
		})
		return err
	})
	if err != nil {
		t.Fatalf("CreateScheduleBlock error: %v", err)
	}

	got, err := s.ListScheduleBlocks(ctx, ProviderID, domain.Date(2025, 2, 28), domain.Date(2025, 3, 1))
	if err != nil {
		t.Fatalf("ListScheduleBlocks error: %v", err)
	}
	if len(got) != 2 || got[0].ID != feb.ID || got[1].ID != mar.ID {
		t.Fatalf("blocks = %+v", got)
	}
	if !got[0].FreeDays.Has(time.Saturday) || got[0].FreeDays.Has(time.Monday) {
		t.Fatalf("free days = %s", got[0].FreeDays)
	}
	if got, _ := s.ListScheduleBlocks(ctx, ProviderID, domain.Date(2025, 4, 1), domain.Date(2025, 4, 30)); len(got) != 0 {
		t.Fatalf("april blocks = %d, want 0", len(got))
	}

	mar.WorkEnd = domain.Clock(15, 0)
	err = inTx(t, s, func(ctx context.Context, tx store.Tx) error {
		if err := tx.UpdateScheduleBlock(ctx, mar); err != nil {
			return err
		}
		return tx.DeleteScheduleBlock(ctx, feb.ID)
	})
	if err != nil {
		t.Fatalf("update/delete error: %v", err)
	}
	b, err := s.GetScheduleBlock(ctx, mar.ID)
	if err != nil {
		t.Fatalf("GetScheduleBlock error: %v", err)
	}
	if b.WorkEnd != domain.Clock(15, 0) {
		t.Fatalf("work end = %s, want 15:00", b.WorkEnd)
	}
	if _, err := s.GetScheduleBlock(ctx, feb.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted block err = %v, want ErrNotFound", err)
	}
}

func testBookingOverlap(t *testing.T, s store.Store) {
	ctx := context.Background()
	first, err := createBooking(s, newBooking(domain.Clock(9, 0)))
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if first.ID == uuid.Nil || first.CreatedAt.IsZero() {
		t.Fatalf("booking not stamped: %+v", first)
	}

	if _, err := createBooking(s, newBooking(domain.Clock(9, 15))); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("overlap err = %v, want ErrConflict", err)
	}
	if _, err := createBooking(s, newBooking(domain.Clock(9, 30))); err != nil {
		t.Fatalf("adjacent booking error: %v", err)
	}
	other := newBooking(domain.Clock(9, 0))
	other.Date = Day.AddDate(0, 0, 1)
	if _, err := createBooking(s, other); err != nil {
		t.Fatalf("next day booking error: %v", err)
	}

	err = s.InProviderDayTransaction(ctx, ProviderID, Day, func(ctx context.Context, tx store.Tx) error {
		return tx.UpdateBookingStatus(ctx, first.ID, domain.BookingCancelled)
	})
	if err != nil {
		t.Fatalf("UpdateBookingStatus error: %v", err)
	}
	if _, err := createBooking(s, newBooking(domain.Clock(9, 0))); err != nil {
		t.Fatalf("booking over a cancelled one error: %v", err)
	}

	active, err := s.ListBookings(ctx, store.BookingFilter{ProviderID: ProviderID, From: Day, To: Day})
	if err != nil {
		t.Fatalf("ListBookings error: %v", err)
	}
	if len(active) != 2 || active[0].Start != domain.Clock(9, 0) || active[1].Start != domain.Clock(9, 30) {
		t.Fatalf("active bookings = %+v", active)
	}
	all, _ := s.ListBookings(ctx, store.BookingFilter{ProviderID: ProviderID, From: Day, To: Day.AddDate(0, 0, 1), IncludeCancelled: true})
	if len(all) != 4 {
		t.Fatalf("all bookings = %d, want 4", len(all))
	}

	err = s.InProviderDayTransaction(ctx, ProviderID, Day, func(ctx context.Context, tx store.Tx) error {
		return tx.UpdateBookingStatus(ctx, uuid.New(), domain.BookingConfirmed)
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown booking err = %v, want ErrNotFound", err)
	}
}

func testIdempotentIDs(t *testing.T, s store.Store) {
	b := newBooking(domain.Clock(11, 0))
	b.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("storetest:replay"))

	first, err := createBooking(s, b)
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	again, err := createBooking(s, b)
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if again.ID != first.ID || again.Start != first.Start {
		t.Fatalf("replay = %+v, want %+v", again, first)
	}

	moved := b
	moved.Start, moved.End = domain.Clock(12, 0), domain.Clock(12, 30)
	if _, err := createBooking(s, moved); !errors.Is(err, store.ErrIdempotencyConflict) {
		t.Fatalf("reused id err = %v, want ErrIdempotencyConflict", err)
	}
}

func testRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	var created domain.Booking
	err := s.InProviderDayTransaction(ctx, ProviderID, Day, func(ctx context.Context, tx store.Tx) error {
		var err error
		if created, err = tx.CreateBooking(ctx, newBooking(domain.Clock(14, 0))); err != nil {
			return err
		}
		if err := tx.SetProviderStatus(ctx, ProviderID, domain.ProviderUnavailable); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("err = %v, want the callback's error", err)
	}
	if _, err := s.GetBooking(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("rolled back booking err = %v, want ErrNotFound", err)
	}
	if p, _ := s.GetProvider(ctx, ProviderID); p.Status != domain.ProviderAvailable {
		t.Fatalf("status = %q after rollback", p.Status)
	}
}

func testTimeOff(t *testing.T, s store.Store) {
	ctx := context.Background()
	base := time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)
	var first, second domain.TimeOffRequest
	err := inTx(t, s, func(ctx context.Context, tx store.Tx) error {
		var err error
		first, err = tx.CreateTimeOff(ctx, domain.TimeOffRequest{
			ProviderID:  ProviderID,
			StartDate:   domain.Date(2025, 3, 1),
			EndDate:     domain.Date(2025, 3, 5),
			Reason:      "family holiday",
			Status:      domain.TimeOffPending,
			RequestedAt: base,
		})
		if err != nil {
			return err
		}
		second, err = tx.CreateTimeOff(ctx, domain.TimeOffRequest{
			ProviderID:  ProviderID,
			StartDate:   domain.Date(2025, 4, 1),
			EndDate:     domain.Date(2025, 4, 2),
			Reason:      "medical appointment",
			Status:      domain.TimeOffPending,
			RequestedAt: base.Add(time.Hour),
		})
		return err
	})
	if err != nil {
		t.Fatalf("CreateTimeOff error: %v", err)
	}

	pending, err := s.ListTimeOff(ctx, store.TimeOffFilter{Status: domain.TimeOffPending})
	if err != nil {
		t.Fatalf("ListTimeOff error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("pending = %+v, want oldest first", pending)
	}
	newest, _ := s.ListTimeOff(ctx, store.TimeOffFilter{ProviderID: ProviderID, NewestFirst: true})
	if len(newest) != 2 || newest[0].ID != second.ID {
		t.Fatalf("newest first = %+v", newest)
	}
	inMarch, _ := s.ListTimeOff(ctx, store.TimeOffFilter{ProviderID: ProviderID, From: domain.Date(2025, 3, 5), To: domain.Date(2025, 3, 31)})
	if len(inMarch) != 1 || inMarch[0].ID != first.ID {
		t.Fatalf("march = %+v", inMarch)
	}

	admin := uuid.New()
	if err := first.Approve(admin, base.Add(2*time.Hour)); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if err := inTx(t, s, func(ctx context.Context, tx store.Tx) error { return tx.UpdateTimeOff(ctx, first) }); err != nil {
		t.Fatalf("UpdateTimeOff error: %v", err)
	}
	got, err := s.GetTimeOff(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetTimeOff error: %v", err)
	}
	if got.Status != domain.TimeOffApproved || got.RespondingAdminID == nil || *got.RespondingAdminID != admin {
		t.Fatalf("approved request = %+v", got)
	}
	if pending, _ := s.ListTimeOff(ctx, store.TimeOffFilter{Status: domain.TimeOffPending}); len(pending) != 1 {
		t.Fatalf("pending after approval = %d, want 1", len(pending))
	}
}

// testConcurrentDay checks that the day lock serializes check-then-insert.
func testConcurrentDay(t *testing.T, s store.Store) {
	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := newBooking(domain.Clock(15, i%4*5))
			err := s.InProviderDayTransaction(context.Background(), ProviderID, Day, func(ctx context.Context, tx store.Tx) error {
				existing, err := tx.ListBookings(ctx, store.BookingFilter{ProviderID: ProviderID, From: Day, To: Day})
				if err != nil {
					return err
				}
				for _, o := range existing {
					if domain.Overlaps(o.Interval(), b.Interval()) {
						return fmt.Errorf("worker %d: %w", i, store.ErrConflict)
					}
				}
				_, err = tx.CreateBooking(ctx, b)
				return err
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
			} else {
				errs = append(errs, err)
			}
		}(i)
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("successes = %d, want 1", success)
	}
	for _, err := range errs {
		if !errors.Is(err, store.ErrConflict) && !errors.Is(err, domain.ErrStoreUnavailable) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
