package timeoff

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store/memory"
)

var (
	providerID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	adminID    = uuid.MustParse("00000000-0000-0000-0000-0000000000ad")
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingInvalidator struct {
	providers []uuid.UUID
}

func (c *countingInvalidator) InvalidateDay(context.Context, uuid.UUID, time.Time) {}

func (c *countingInvalidator) InvalidateProvider(ctx context.Context, providerID uuid.UUID) {
	c.providers = append(c.providers, providerID)
}

func newWorkflow(t *testing.T, opts ...Option) (*Workflow, *memory.Store, *fakeClock) {
	t.Helper()
	s := memory.New()
	if _, err := s.CreateProvider(context.Background(), domain.Provider{ID: providerID, DisplayName: "Marta"}); err != nil {
		t.Fatalf("CreateProvider error: %v", err)
	}
	clock := &fakeClock{now: time.Date(2025, 2, 20, 10, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewWorkflow(s, nil, opts...), s, clock
}

func submit(t *testing.T, w *Workflow, start, end time.Time) domain.TimeOffRequest {
	t.Helper()
	r, err := w.Submit(context.Background(), SubmitInput{
		ProviderID: providerID,
		StartDate:  start,
		EndDate:    end,
		Reason:     "family wedding abroad",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	return r
}

func TestValidateSubmission(t *testing.T) {
	today := domain.Date(2025, 2, 20)
	valid := SubmitInput{
		ProviderID: providerID,
		StartDate:  today,
		EndDate:    today.AddDate(0, 0, 2),
		Reason:     "0123456789",
	}

	tests := []struct {
		name    string
		mutate  func(in *SubmitInput)
		wantErr bool
	}{
		{name: "valid starting today", mutate: func(in *SubmitInput) {}},
		{name: "single day", mutate: func(in *SubmitInput) { in.EndDate = in.StartDate }},
		{name: "missing provider", mutate: func(in *SubmitInput) { in.ProviderID = uuid.Nil }, wantErr: true},
		{name: "missing dates", mutate: func(in *SubmitInput) { in.StartDate = time.Time{} }, wantErr: true},
		{name: "starts yesterday", mutate: func(in *SubmitInput) { in.StartDate = today.AddDate(0, 0, -1) }, wantErr: true},
		{name: "end before start", mutate: func(in *SubmitInput) { in.EndDate = in.StartDate.AddDate(0, 0, -1) }, wantErr: true},
		{name: "reason too short", mutate: func(in *SubmitInput) { in.Reason = "vacation" }, wantErr: true},
		{name: "reason padded with spaces", mutate: func(in *SubmitInput) { in.Reason = "   short    " }, wantErr: true},
		{name: "multibyte reason counts runes", mutate: func(in *SubmitInput) { in.Reason = "cumpleaños" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := validateSubmission(in, today, domain.MinTimeOffReasonLength)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidArgument) {
					t.Fatalf("err = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSubmit_OverlappingPendingRequestConflicts(t *testing.T) {
	w, _, _ := newWorkflow(t)
	first := submit(t, w, domain.Date(2025, 3, 1), domain.Date(2025, 3, 5))
	if first.Status != domain.TimeOffPending {
		t.Fatalf("status = %s, want pending", first.Status)
	}

	_, err := w.Submit(context.Background(), SubmitInput{
		ProviderID: providerID,
		StartDate:  domain.Date(2025, 3, 3),
		EndDate:    domain.Date(2025, 3, 10),
		Reason:     "extended family trip",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// Adjacent ranges do not intersect.
	submit(t, w, domain.Date(2025, 3, 6), domain.Date(2025, 3, 10))
}

func TestSubmit_RejectedRequestDoesNotBlock(t *testing.T) {
	w, _, _ := newWorkflow(t)
	first := submit(t, w, domain.Date(2025, 3, 1), domain.Date(2025, 3, 5))
	if _, err := w.Reject(context.Background(), first.ID, adminID, "peak season"); err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	submit(t, w, domain.Date(2025, 3, 3), domain.Date(2025, 3, 4))
}

func TestSubmit_UnknownProvider(t *testing.T) {
	w, _, _ := newWorkflow(t)
	_, err := w.Submit(context.Background(), SubmitInput{
		ProviderID: uuid.New(),
		StartDate:  domain.Date(2025, 3, 1),
		EndDate:    domain.Date(2025, 3, 1),
		Reason:     "dentist appointment",
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmit_TodayFollowsConfiguredZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	w, _, clock := newWorkflow(t, WithLocation(tokyo))
	clock.now = time.Date(2025, 2, 20, 20, 0, 0, 0, time.UTC)

	if got := domain.FormatDate(w.Today()); got != "2025-02-21" {
		t.Fatalf("Today() = %s, want 2025-02-21", got)
	}
	_, err := w.Submit(context.Background(), SubmitInput{
		ProviderID: providerID,
		StartDate:  domain.Date(2025, 2, 20),
		EndDate:    domain.Date(2025, 2, 22),
		Reason:     "moving apartments",
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestApprove_MarksProviderUnavailable(t *testing.T) {
	inv := &countingInvalidator{}
	w, s, _ := newWorkflow(t, WithInvalidator(inv))
	req := submit(t, w, domain.Date(2025, 3, 1), domain.Date(2025, 3, 5))

	approved, err := w.Approve(context.Background(), req.ID, adminID)
	if err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if approved.Status != domain.TimeOffApproved {
		t.Fatalf("status = %s, want approved", approved.Status)
	}
	if approved.RespondedAt == nil || approved.RespondingAdminID == nil || *approved.RespondingAdminID != adminID {
		t.Fatalf("response not stamped: %+v", approved)
	}

	p, err := s.GetProvider(context.Background(), providerID)
	if err != nil {
		t.Fatalf("GetProvider error: %v", err)
	}
	if p.Status != domain.ProviderUnavailable {
		t.Fatalf("provider status = %s, want unavailable", p.Status)
	}
	if len(inv.providers) != 1 || inv.providers[0] != providerID {
		t.Fatalf("invalidated = %v", inv.providers)
	}

	if _, err := w.Approve(context.Background(), req.ID, adminID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second approve err = %v, want ErrInvalidState", err)
	}
	if _, err := w.Reject(context.Background(), req.ID, adminID, "too late"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("reject after approve err = %v, want ErrInvalidState", err)
	}
}

func TestApprove_UnknownRequest(t *testing.T) {
	w, _, _ := newWorkflow(t)
	if _, err := w.Approve(context.Background(), uuid.New(), adminID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReject(t *testing.T) {
	w, s, _ := newWorkflow(t)

	// An empty reason fails before the request is looked up.
	if _, err := w.Reject(context.Background(), uuid.New(), adminID, "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("empty reason err = %v, want ErrInvalidArgument", err)
	}

	req := submit(t, w, domain.Date(2025, 3, 1), domain.Date(2025, 3, 5))
	rejected, err := w.Reject(context.Background(), req.ID, adminID, "  short staffed  ")
	if err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if rejected.Status != domain.TimeOffRejected {
		t.Fatalf("status = %s, want rejected", rejected.Status)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "short staffed" {
		t.Fatalf("rejection reason = %v", rejected.RejectionReason)
	}

	p, err := s.GetProvider(context.Background(), providerID)
	if err != nil {
		t.Fatalf("GetProvider error: %v", err)
	}
	if p.Status != domain.ProviderAvailable {
		t.Fatalf("provider status = %s, want available", p.Status)
	}
}

func TestListings(t *testing.T) {
	w, s, clock := newWorkflow(t)
	other, err := s.CreateProvider(context.Background(), domain.Provider{DisplayName: "Jorge"})
	if err != nil {
		t.Fatalf("CreateProvider error: %v", err)
	}

	a := submit(t, w, domain.Date(2025, 3, 1), domain.Date(2025, 3, 2))
	clock.Advance(time.Minute)
	if _, err := w.Submit(context.Background(), SubmitInput{
		ProviderID: other.ID,
		StartDate:  domain.Date(2025, 3, 1),
		EndDate:    domain.Date(2025, 3, 1),
		Reason:     "certification exam",
	}); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	clock.Advance(time.Minute)
	c := submit(t, w, domain.Date(2025, 4, 1), domain.Date(2025, 4, 2))
	clock.Advance(time.Minute)
	if _, err := w.Approve(context.Background(), c.ID, adminID); err != nil {
		t.Fatalf("Approve error: %v", err)
	}

	pending, err := w.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending error: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != a.ID || pending[1].ProviderID != other.ID {
		t.Fatalf("pending = %+v", pending)
	}

	history, err := w.ListForProvider(context.Background(), providerID)
	if err != nil {
		t.Fatalf("ListForProvider error: %v", err)
	}
	if len(history) != 2 || history[0].ID != c.ID || history[1].ID != a.ID {
		t.Fatalf("history order wrong: %+v", history)
	}
}

func TestReactivate(t *testing.T) {
	w, s, clock := newWorkflow(t)
	req := submit(t, w, domain.Date(2025, 2, 20), domain.Date(2025, 2, 22))
	if _, err := w.Approve(context.Background(), req.ID, adminID); err != nil {
		t.Fatalf("Approve error: %v", err)
	}

	if _, err := w.Reactivate(context.Background(), providerID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("reactivate during leave err = %v, want ErrConflict", err)
	}

	clock.Advance(3 * 24 * time.Hour)
	p, err := w.Reactivate(context.Background(), providerID)
	if err != nil {
		t.Fatalf("Reactivate error: %v", err)
	}
	if p.Status != domain.ProviderAvailable {
		t.Fatalf("status = %s, want available", p.Status)
	}
	stored, err := s.GetProvider(context.Background(), providerID)
	if err != nil {
		t.Fatalf("GetProvider error: %v", err)
	}
	if stored.Status != domain.ProviderAvailable {
		t.Fatalf("stored status = %s, want available", stored.Status)
	}

	if _, err := w.Reactivate(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown provider err = %v, want ErrNotFound", err)
	}
}

func TestSetAvailability(t *testing.T) {
	w, _, _ := newWorkflow(t)
	p, err := w.SetAvailability(context.Background(), providerID, domain.ProviderBusy)
	if err != nil {
		t.Fatalf("SetAvailability error: %v", err)
	}
	if p.Status != domain.ProviderBusy {
		t.Fatalf("status = %s, want busy", p.Status)
	}
	if _, err := w.SetAvailability(context.Background(), providerID, "on-break"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("unknown status err = %v, want ErrInvalidArgument", err)
	}
}
