package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type TimeOffStatus string

const (
	TimeOffPending  TimeOffStatus = "pending"
	TimeOffApproved TimeOffStatus = "approved"
	TimeOffRejected TimeOffStatus = "rejected"
)

const MinTimeOffReasonLength = 10

type TimeOffRequest struct {
	bun.BaseModel `bun:"table:time_off_requests"`

	ID                uuid.UUID     `bun:"id,pk,type:uuid"`
	ProviderID        uuid.UUID     `bun:"provider_id,notnull,type:uuid"`
	StartDate         time.Time     `bun:"start_date,notnull,type:date"`
	EndDate           time.Time     `bun:"end_date,notnull,type:date"`
	Reason            string        `bun:"reason,notnull"`
	Status            TimeOffStatus `bun:"status,notnull"`
	RequestedAt       time.Time     `bun:"requested_at,notnull"`
	RespondedAt       *time.Time    `bun:"responded_at"`
	RespondingAdminID *uuid.UUID    `bun:"responding_admin_id,type:uuid"`
	RejectionReason   *string       `bun:"rejection_reason"`
	CreatedAt         time.Time     `bun:"created_at,notnull"`
	UpdatedAt         time.Time     `bun:"updated_at,notnull"`
}

func (r *TimeOffRequest) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (r TimeOffRequest) CoversDate(date time.Time) bool {
	return RangeContains(r.StartDate, r.EndDate, date)
}

func (r TimeOffRequest) Intersects(start, end time.Time) bool {
	return RangesIntersect(r.StartDate, r.EndDate, start, end)
}

// Approve moves a pending request to approved. The caller owns the provider
// status side effect.
func (r *TimeOffRequest) Approve(adminID uuid.UUID, at time.Time) error {
	if r.Status != TimeOffPending {
		return Errorf(ErrInvalidState, "time-off request is %s, not pending", r.Status)
	}
	at = at.UTC()
	r.Status = TimeOffApproved
	r.RespondedAt = &at
	r.RespondingAdminID = &adminID
	return nil
}

func (r *TimeOffRequest) Reject(adminID uuid.UUID, reason string, at time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewValidationError("rejection reason is required")
	}
	if r.Status != TimeOffPending {
		return Errorf(ErrInvalidState, "time-off request is %s, not pending", r.Status)
	}
	at = at.UTC()
	r.Status = TimeOffRejected
	r.RespondedAt = &at
	r.RespondingAdminID = &adminID
	r.RejectionReason = &reason
	return nil
}
