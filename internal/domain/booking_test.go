package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBookingTransitions(t *testing.T) {
	all := []BookingStatus{BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled}
	allowed := map[[2]BookingStatus]bool{
		{BookingPending, BookingConfirmed}:   true,
		{BookingPending, BookingCancelled}:   true,
		{BookingConfirmed, BookingCompleted}: true,
		{BookingConfirmed, BookingCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			b := Booking{Status: from}
			err := b.TransitionTo(to)
			if allowed[[2]BookingStatus{from, to}] {
				if err != nil {
					t.Fatalf("%s -> %s error: %v", from, to, err)
				}
				if b.Status != to {
					t.Fatalf("%s -> %s left status %s", from, to, b.Status)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("%s -> %s err = %v, want ErrInvalidState", from, to, err)
			}
			if b.Status != from {
				t.Fatalf("%s -> %s mutated status to %s", from, to, b.Status)
			}
		}
	}

	b := Booking{Status: BookingPending}
	if err := b.TransitionTo("archived"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown status err = %v, want ErrInvalidArgument", err)
	}
}

func TestTimeOffApproveAndReject(t *testing.T) {
	admin := uuid.MustParse("00000000-0000-0000-0000-0000000000ad")
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	r := TimeOffRequest{Status: TimeOffPending}
	if err := r.Approve(admin, at); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if r.Status != TimeOffApproved || r.RespondedAt == nil || !r.RespondedAt.Equal(at) {
		t.Fatalf("approve did not stamp request: %+v", r)
	}
	if r.RespondingAdminID == nil || *r.RespondingAdminID != admin {
		t.Fatalf("responding admin = %v, want %v", r.RespondingAdminID, admin)
	}
	if err := r.Approve(admin, at); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second approve err = %v, want ErrInvalidState", err)
	}
	if err := r.Reject(admin, "too late now", at); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reject after approve err = %v, want ErrInvalidState", err)
	}

	p := TimeOffRequest{Status: TimeOffPending}
	if err := p.Reject(admin, "   ", at); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank reason err = %v, want ErrInvalidArgument", err)
	}
	if p.Status != TimeOffPending {
		t.Fatalf("blank reason changed status to %s", p.Status)
	}
	if err := p.Reject(admin, " short staffed ", at); err != nil {
		t.Fatalf("Reject error: %v", err)
	}
	if p.RejectionReason == nil || *p.RejectionReason != "short staffed" {
		t.Fatalf("rejection reason = %v", p.RejectionReason)
	}
}

func TestBookingSameRequest(t *testing.T) {
	b := Booking{
		ProviderID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		ServiceID:  uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		ClientID:   uuid.MustParse("00000000-0000-0000-0000-000000000003"),
		Date:       Date(2025, 1, 6),
		Start:      Clock(9, 0),
		End:        Clock(10, 0),
	}
	other := b
	other.Date = time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)
	other.Status = BookingConfirmed
	if !b.SameRequest(other) {
		t.Fatalf("expected same request")
	}
	other.Start = Clock(9, 15)
	if b.SameRequest(other) {
		t.Fatalf("different start reported as same request")
	}
}
