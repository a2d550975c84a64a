package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
	"barberpro/backend/internal/store/memory"
)

var (
	providerA = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	providerB = uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
	serviceID = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
)

func setup(t *testing.T) (*Planner, *memory.Store) {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	for _, id := range []uuid.UUID{providerA, providerB} {
		if _, err := s.CreateProvider(ctx, domain.Provider{ID: id, DisplayName: id.String()[:8]}); err != nil {
			t.Fatalf("CreateProvider error: %v", err)
		}
	}
	if _, err := s.CreateService(ctx, domain.Service{ID: serviceID, Name: "Barba", DurationMinutes: 30, Price: "8.00", Active: true}); err != nil {
		t.Fatalf("CreateService error: %v", err)
	}
	return NewPlanner(s, nil, nil), s
}

func february(provider uuid.UUID) BlockInput {
	return BlockInput{
		ProviderID: provider,
		StartDate:  domain.Date(2025, 2, 1),
		EndDate:    domain.Date(2025, 2, 28),
		WorkStart:  domain.Clock(9, 0),
		WorkEnd:    domain.Clock(17, 0),
		FreeDays:   domain.NewWeekdaySet(time.Saturday, time.Sunday),
	}
}

func addBooking(t *testing.T, s *memory.Store, provider uuid.UUID, date time.Time) {
	t.Helper()
	err := s.InProviderTransaction(context.Background(), []uuid.UUID{provider}, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.CreateBooking(ctx, domain.Booking{
			ProviderID: provider,
			ServiceID:  serviceID,
			ClientID:   uuid.New(),
			Date:       date,
			Start:      domain.Clock(10, 0),
			End:        domain.Clock(10, 30),
			Status:     domain.BookingConfirmed,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed booking error: %v", err)
	}
}

func TestCreateBlock(t *testing.T) {
	p, _ := setup(t)
	ctx := context.Background()

	b, err := p.CreateBlock(ctx, february(providerA))
	if err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	if b.ID == uuid.Nil {
		t.Fatalf("expected id")
	}

	tests := []struct {
		name string
		in   func() BlockInput
		want error
	}{
		{
			name: "overlapping hours on shared working days",
			in: func() BlockInput {
				in := february(providerA)
				in.StartDate, in.EndDate = domain.Date(2025, 2, 10), domain.Date(2025, 2, 12)
				in.WorkStart, in.WorkEnd = domain.Clock(16, 0), domain.Clock(20, 0)
				return in
			},
			want: domain.ErrConflict,
		},
		{
			name: "end before start",
			in: func() BlockInput {
				in := february(providerA)
				in.EndDate = domain.Date(2025, 1, 31)
				return in
			},
			want: domain.ErrInvalidArgument,
		},
		{
			name: "every weekday free",
			in: func() BlockInput {
				in := february(providerA)
				in.FreeDays = domain.AllWeekdays
				return in
			},
			want: domain.ErrInvalidArgument,
		},
		{
			name: "unknown provider",
			in: func() BlockInput {
				return february(uuid.New())
			},
			want: domain.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.CreateBlock(ctx, tt.in()); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	// Weekend hours do not collide with a weekday-only block.
	weekend := february(providerA)
	weekend.FreeDays = domain.NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	if _, err := p.CreateBlock(ctx, weekend); err != nil {
		t.Fatalf("weekend block error: %v", err)
	}

	// Evening hours on the same days do not collide either.
	evening := february(providerA)
	evening.WorkStart, evening.WorkEnd = domain.Clock(17, 0), domain.Clock(21, 0)
	if _, err := p.CreateBlock(ctx, evening); err != nil {
		t.Fatalf("evening block error: %v", err)
	}
}

func TestDeleteBlock(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	b, err := p.CreateBlock(ctx, february(providerA))
	if err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	addBooking(t, s, providerA, domain.Date(2025, 2, 4))

	if err := p.DeleteBlock(ctx, b.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("delete with bookings err = %v, want ErrConflict", err)
	}

	empty, err := p.CreateBlock(ctx, BlockInput{
		ProviderID: providerA,
		StartDate:  domain.Date(2025, 3, 1),
		EndDate:    domain.Date(2025, 3, 31),
		WorkStart:  domain.Clock(9, 0),
		WorkEnd:    domain.Clock(12, 0),
	})
	if err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	if err := p.DeleteBlock(ctx, empty.ID); err != nil {
		t.Fatalf("DeleteBlock error: %v", err)
	}
	if err := p.DeleteBlock(ctx, empty.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestReassignBlock(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()

	b, err := p.CreateBlock(ctx, february(providerA))
	if err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	moved, err := p.ReassignBlock(ctx, b.ID, providerB)
	if err != nil {
		t.Fatalf("ReassignBlock error: %v", err)
	}
	if moved.ProviderID != providerB {
		t.Fatalf("provider = %s, want %s", moved.ProviderID, providerB)
	}
	left, err := p.ListBlocks(ctx, providerA, domain.Date(2025, 2, 1), domain.Date(2025, 2, 28))
	if err != nil {
		t.Fatalf("ListBlocks error: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("provider A still has %d blocks", len(left))
	}

	// Moving a colliding block onto B fails.
	other, err := p.CreateBlock(ctx, february(providerA))
	if err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	if _, err := p.ReassignBlock(ctx, other.ID, providerB); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("colliding reassign err = %v, want ErrConflict", err)
	}

	// The old owner's bookings pin the block.
	addBooking(t, s, providerB, domain.Date(2025, 2, 5))
	if _, err := p.ReassignBlock(ctx, moved.ID, providerA); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("reassign with bookings err = %v, want ErrConflict", err)
	}

	if _, err := p.ReassignBlock(ctx, moved.ID, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown provider err = %v, want ErrNotFound", err)
	}
}

func TestGenerate_SkipsFreeDaysAndTimeOff(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()

	err := s.InProviderTransaction(ctx, []uuid.UUID{providerA}, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.CreateTimeOff(ctx, domain.TimeOffRequest{
			ProviderID: providerA,
			StartDate:  domain.Date(2025, 1, 8),
			EndDate:    domain.Date(2025, 1, 9),
			Reason:     "training course",
			Status:     domain.TimeOffApproved,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed time-off error: %v", err)
	}

	// 2025-01-06 is a Monday; the range covers two full weeks.
	res, err := p.Generate(ctx, GenerateInput{
		ProviderID: providerA,
		From:       domain.Date(2025, 1, 6),
		To:         domain.Date(2025, 1, 19),
		WorkStart:  domain.Clock(9, 0),
		WorkEnd:    domain.Clock(18, 0),
		FreeDays:   domain.NewWeekdaySet(time.Sunday),
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(res.Created) != 10 {
		t.Fatalf("created = %d, want 10", len(res.Created))
	}
	if len(res.Skipped) != 4 {
		t.Fatalf("skipped = %d, want 4", len(res.Skipped))
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", res.Warnings)
	}
	for _, b := range res.Created {
		if !b.StartDate.Equal(b.EndDate) {
			t.Fatalf("block %s spans %s..%s, want a single day", b.ID, domain.FormatDate(b.StartDate), domain.FormatDate(b.EndDate))
		}
		if b.StartDate.Weekday() == time.Sunday {
			t.Fatalf("block generated on Sunday %s", domain.FormatDate(b.StartDate))
		}
	}
}

func TestGenerate_ExistingBlocks(t *testing.T) {
	p, s := setup(t)
	ctx := context.Background()
	if _, err := p.CreateBlock(ctx, february(providerA)); err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}

	in := GenerateInput{
		ProviderID: providerA,
		From:       domain.Date(2025, 2, 10),
		To:         domain.Date(2025, 2, 14),
		WorkStart:  domain.Clock(10, 0),
		WorkEnd:    domain.Clock(14, 0),
	}
	if _, err := p.Generate(ctx, in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	in.ReplaceExisting = true
	res, err := p.Generate(ctx, in)
	if err != nil {
		t.Fatalf("Generate replace error: %v", err)
	}
	if len(res.Created) != 5 {
		t.Fatalf("created = %d, want 5", len(res.Created))
	}

	blocks, err := p.ListBlocks(ctx, providerA, domain.Date(2025, 2, 1), domain.Date(2025, 2, 28))
	if err != nil {
		t.Fatalf("ListBlocks error: %v", err)
	}
	// The February block is split around the generated week.
	if len(blocks) != 7 {
		t.Fatalf("blocks = %d, want 7", len(blocks))
	}
	for _, b := range blocks {
		if b.WorkStart == domain.Clock(9, 0) && domain.RangesIntersect(b.StartDate, b.EndDate, in.From, in.To) {
			t.Fatalf("old block still covers the replaced period: %s..%s", domain.FormatDate(b.StartDate), domain.FormatDate(b.EndDate))
		}
	}

	addBooking(t, s, providerA, domain.Date(2025, 2, 11))
	if _, err := p.Generate(ctx, in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("replace with bookings err = %v, want ErrConflict", err)
	}
}

func TestGenerate_Validation(t *testing.T) {
	p, _ := setup(t)
	_, err := p.Generate(context.Background(), GenerateInput{
		ProviderID: providerA,
		From:       domain.Date(2025, 1, 1),
		To:         domain.Date(2026, 1, 2),
		WorkStart:  domain.Clock(9, 0),
		WorkEnd:    domain.Clock(17, 0),
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestGenerate_ReplaceDropsFragmentsWithoutWorkDays(t *testing.T) {
	p, _ := setup(t)
	ctx := context.Background()
	if _, err := p.CreateBlock(ctx, february(providerA)); err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}

	// 2025-02-01 and 02-02 are a weekend, free in the February block.
	res, err := p.Generate(ctx, GenerateInput{
		ProviderID:      providerA,
		From:            domain.Date(2025, 2, 3),
		To:              domain.Date(2025, 2, 14),
		WorkStart:       domain.Clock(10, 0),
		WorkEnd:         domain.Clock(14, 0),
		FreeDays:        domain.NewWeekdaySet(time.Saturday, time.Sunday),
		ReplaceExisting: true,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(res.Created) != 10 {
		t.Fatalf("created = %d, want 10", len(res.Created))
	}

	blocks, err := p.ListBlocks(ctx, providerA, domain.Date(2025, 2, 1), domain.Date(2025, 2, 28))
	if err != nil {
		t.Fatalf("ListBlocks error: %v", err)
	}
	if len(blocks) != 11 {
		t.Fatalf("blocks = %d, want 10 generated plus the tail", len(blocks))
	}
	for _, b := range blocks {
		if !b.HasWorkDay() {
			t.Fatalf("block %s..%s has no worked day", domain.FormatDate(b.StartDate), domain.FormatDate(b.EndDate))
		}
		if b.WorkStart == domain.Clock(9, 0) && !b.StartDate.Equal(domain.Date(2025, 2, 15)) {
			t.Fatalf("unexpected leftover %s..%s", domain.FormatDate(b.StartDate), domain.FormatDate(b.EndDate))
		}
	}
}

func TestListFreeDays(t *testing.T) {
	p, _ := setup(t)
	ctx := context.Background()
	if _, err := p.CreateBlock(ctx, february(providerA)); err != nil {
		t.Fatalf("CreateBlock error: %v", err)
	}
	// A Saturday-only block makes 2025-02-08 worked.
	_, err := p.CreateBlock(ctx, BlockInput{
		ProviderID: providerA,
		StartDate:  domain.Date(2025, 2, 8),
		EndDate:    domain.Date(2025, 2, 8),
		WorkStart:  domain.Clock(9, 0),
		WorkEnd:    domain.Clock(13, 0),
	})
	if err != nil {
		t.Fatalf("CreateBlock saturday error: %v", err)
	}

	days, err := p.ListFreeDays(ctx, providerA, domain.Date(2025, 1, 30), domain.Date(2025, 2, 10))
	if err != nil {
		t.Fatalf("ListFreeDays error: %v", err)
	}
	want := []time.Time{domain.Date(2025, 2, 1), domain.Date(2025, 2, 2), domain.Date(2025, 2, 9)}
	if len(days) != len(want) {
		t.Fatalf("free days = %v, want %v", days, want)
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Fatalf("free days[%d] = %s, want %s", i, domain.FormatDate(days[i]), domain.FormatDate(want[i]))
		}
	}

	none, err := p.ListFreeDays(ctx, providerB, domain.Date(2025, 2, 1), domain.Date(2025, 2, 28))
	if err != nil {
		t.Fatalf("ListFreeDays unscheduled error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("unscheduled provider free days = %v", none)
	}

	for name, tc := range map[string]struct {
		provider uuid.UUID
		from, to time.Time
	}{
		"nil provider":   {uuid.Nil, domain.Date(2025, 2, 1), domain.Date(2025, 2, 2)},
		"inverted range": {providerA, domain.Date(2025, 2, 2), domain.Date(2025, 2, 1)},
		"too long":       {providerA, domain.Date(2025, 1, 1), domain.Date(2026, 1, 2)},
	} {
		if _, err := p.ListFreeDays(ctx, tc.provider, tc.from, tc.to); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("%s: err = %v, want ErrInvalidArgument", name, err)
		}
	}
}
