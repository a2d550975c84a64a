package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
	"barberpro/backend/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestInProviderTransaction_WaitsForDayTransactions(t *testing.T) {
	s := New()
	provider := uuid.New()
	day := domain.Date(2025, 1, 6)

	entered := make(chan struct{})
	release := make(chan struct{})
	dayDone := make(chan error, 1)
	go func() {
		dayDone <- s.InProviderDayTransaction(context.Background(), provider, day, func(ctx context.Context, tx store.Tx) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.InProviderTransaction(ctx, []uuid.UUID{provider}, func(ctx context.Context, tx store.Tx) error {
		t.Fatal("admin transaction ran while a day transaction held the provider")
		return nil
	})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}

	close(release)
	if err := <-dayDone; err != nil {
		t.Fatalf("day transaction error: %v", err)
	}
	ran := false
	err = s.InProviderTransaction(context.Background(), []uuid.UUID{provider}, func(ctx context.Context, tx store.Tx) error {
		ran = true
		return nil
	})
	if err != nil || !ran {
		t.Fatalf("admin transaction after release: ran=%v err=%v", ran, err)
	}
}

func TestInProviderDayTransaction_OtherDaysDoNotBlock(t *testing.T) {
	s := New()
	provider := uuid.New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.InProviderDayTransaction(context.Background(), provider, domain.Date(2025, 1, 6), func(ctx context.Context, tx store.Tx) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.InProviderDayTransaction(ctx, provider, domain.Date(2025, 1, 7), func(ctx context.Context, tx store.Tx) error {
		return nil
	})
	close(release)
	if err != nil {
		t.Fatalf("next day transaction error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("first transaction error: %v", err)
	}
}

func TestTransaction_CancelledContextDoesNotRun(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.InProviderDayTransaction(ctx, uuid.New(), domain.Date(2025, 1, 6), func(ctx context.Context, tx store.Tx) error {
		t.Fatal("callback ran with a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCreateBooking_UnknownReferences(t *testing.T) {
	s := New()
	ctx := context.Background()
	p, _ := s.CreateProvider(ctx, domain.Provider{DisplayName: "Ana"})
	if p.Status != domain.ProviderAvailable {
		t.Fatalf("default status = %q, want available", p.Status)
	}

	err := s.InProviderDayTransaction(ctx, p.ID, domain.Date(2025, 1, 6), func(ctx context.Context, tx store.Tx) error {
		_, err := tx.CreateBooking(ctx, domain.Booking{
			ProviderID: p.ID,
			ServiceID:  uuid.New(),
			ClientID:   uuid.New(),
			Date:       domain.Date(2025, 1, 6),
			Start:      domain.Clock(9, 0),
			End:        domain.Clock(9, 30),
			Status:     domain.BookingPending,
		})
		return err
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
