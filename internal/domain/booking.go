package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID         uuid.UUID     `bun:"id,pk,type:uuid"`
	ProviderID uuid.UUID     `bun:"provider_id,notnull,type:uuid"`
	ServiceID  uuid.UUID     `bun:"service_id,notnull,type:uuid"`
	ClientID   uuid.UUID     `bun:"client_id,notnull,type:uuid"`
	Date       time.Time     `bun:"booking_date,notnull,type:date"`
	Start      ClockTime     `bun:"start_minute,notnull"`
	End        ClockTime     `bun:"end_minute,notnull"`
	Status     BookingStatus `bun:"status,notnull"`
	CreatedAt  time.Time     `bun:"created_at,notnull"`
	UpdatedAt  time.Time     `bun:"updated_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (b Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

func (b Booking) Active() bool {
	return b.Status != BookingCancelled
}

// SameRequest reports whether other describes the same reservation; used to
// recognise replays of an idempotent commit.
func (b Booking) SameRequest(other Booking) bool {
	return b.ProviderID == other.ProviderID &&
		b.ServiceID == other.ServiceID &&
		b.ClientID == other.ClientID &&
		DateOf(b.Date).Equal(DateOf(other.Date)) &&
		b.Start == other.Start &&
		b.End == other.End
}

func (b *Booking) TransitionTo(to BookingStatus) error {
	if !to.Valid() {
		return NewValidationError("unknown booking status " + string(to))
	}
	if !CanTransition(b.Status, to) {
		return Errorf(ErrInvalidState, "booking cannot move from %s to %s", b.Status, to)
	}
	b.Status = to
	return nil
}
