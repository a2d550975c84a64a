// Package timeoff runs the leave request workflow: providers submit, admins
// approve or reject. Approval marks the provider Unavailable; nothing marks
// them Available again except an explicit Reactivate.
package timeoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"barberpro/backend/internal/cache"
	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

type Workflow struct {
	store     store.Store
	cache     cache.Invalidator
	log       *slog.Logger
	now       func() time.Time
	loc       *time.Location
	minReason int
}

type Option func(*Workflow)

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLocation sets the zone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(w *Workflow) {
		if loc != nil {
			w.loc = loc
		}
	}
}

func WithMinReasonLength(n int) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.minReason = n
		}
	}
}

func WithInvalidator(inv cache.Invalidator) Option {
	return func(w *Workflow) {
		if inv != nil {
			w.cache = inv
		}
	}
}

func NewWorkflow(s store.Store, log *slog.Logger, opts ...Option) *Workflow {
	if log == nil {
		log = slog.Default()
	}
	w := &Workflow{
		store:     s,
		cache:     cache.Nop{},
		log:       log.With("component", "timeoff"),
		now:       time.Now,
		loc:       time.UTC,
		minReason: domain.MinTimeOffReasonLength,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type SubmitInput struct {
	ProviderID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

// Today is the current calendar day in the workflow's zone.
func (w *Workflow) Today() time.Time {
	return domain.DateOf(w.now().In(w.loc))
}

func (w *Workflow) Submit(ctx context.Context, in SubmitInput) (domain.TimeOffRequest, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if err := validateSubmission(in, w.Today(), w.minReason); err != nil {
		return domain.TimeOffRequest{}, err
	}
	start, end := domain.DateOf(in.StartDate), domain.DateOf(in.EndDate)

	var out domain.TimeOffRequest
	err := w.store.InProviderTransaction(ctx, []uuid.UUID{in.ProviderID}, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetProvider(ctx, in.ProviderID); err != nil {
			return err
		}
		pending, err := tx.ListTimeOff(ctx, store.TimeOffFilter{
			ProviderID: in.ProviderID,
			Status:     domain.TimeOffPending,
			From:       start,
			To:         end,
		})
		if err != nil {
			return fmt.Errorf("list time off: %w", err)
		}
		for _, p := range pending {
			if p.Intersects(start, end) {
				return domain.Errorf(domain.ErrConflict, "a pending request %s..%s already covers part of this range",
					domain.FormatDate(p.StartDate), domain.FormatDate(p.EndDate))
			}
		}

		created, err := tx.CreateTimeOff(ctx, domain.TimeOffRequest{
			ProviderID:  in.ProviderID,
			StartDate:   start,
			EndDate:     end,
			Reason:      in.Reason,
			Status:      domain.TimeOffPending,
			RequestedAt: w.now().UTC(),
		})
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TimeOffRequest{}, domain.Errorf(domain.ErrNotFound, "provider %s not found", in.ProviderID)
		}
		return domain.TimeOffRequest{}, err
	}

	w.log.InfoContext(ctx, "time-off submitted",
		"request_id", out.ID.String(),
		"provider_id", out.ProviderID.String(),
		"start", domain.FormatDate(out.StartDate),
		"end", domain.FormatDate(out.EndDate),
	)
	return out, nil
}

// validateSubmission checks a request against today's date. It reads no
// clock so callers decide what today is.
func validateSubmission(in SubmitInput, today time.Time, minReason int) error {
	if in.ProviderID == uuid.Nil {
		return domain.NewValidationError("provider_id is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return domain.NewValidationError("start_date and end_date are required")
	}
	start, end := domain.DateOf(in.StartDate), domain.DateOf(in.EndDate)
	if start.Before(domain.DateOf(today)) {
		return domain.NewValidationError("start_date must not be in the past")
	}
	if end.Before(start) {
		return domain.NewValidationError("end_date must not be before start_date")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Reason)) < minReason {
		return domain.NewValidationError(fmt.Sprintf("reason must be at least %d characters", minReason))
	}
	return nil
}

// Approve accepts a pending request and marks the provider Unavailable in the
// same transaction.
func (w *Workflow) Approve(ctx context.Context, requestID, adminID uuid.UUID) (domain.TimeOffRequest, error) {
	if requestID == uuid.Nil {
		return domain.TimeOffRequest{}, domain.NewValidationError("request_id is required")
	}
	if adminID == uuid.Nil {
		return domain.TimeOffRequest{}, domain.NewValidationError("admin_id is required")
	}
	out, err := w.respond(ctx, requestID, func(ctx context.Context, tx store.Tx, r *domain.TimeOffRequest) error {
		if err := r.Approve(adminID, w.now()); err != nil {
			return err
		}
		return tx.SetProviderStatus(ctx, r.ProviderID, domain.ProviderUnavailable)
	})
	if err != nil {
		return domain.TimeOffRequest{}, err
	}

	w.cache.InvalidateProvider(ctx, out.ProviderID)
	w.log.InfoContext(ctx, "time-off approved",
		"request_id", out.ID.String(),
		"provider_id", out.ProviderID.String(),
		"admin_id", adminID.String(),
	)
	return out, nil
}

func (w *Workflow) Reject(ctx context.Context, requestID, adminID uuid.UUID, reason string) (domain.TimeOffRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domain.TimeOffRequest{}, domain.NewValidationError("rejection reason is required")
	}
	if requestID == uuid.Nil {
		return domain.TimeOffRequest{}, domain.NewValidationError("request_id is required")
	}
	if adminID == uuid.Nil {
		return domain.TimeOffRequest{}, domain.NewValidationError("admin_id is required")
	}
	out, err := w.respond(ctx, requestID, func(ctx context.Context, tx store.Tx, r *domain.TimeOffRequest) error {
		return r.Reject(adminID, reason, w.now())
	})
	if err != nil {
		return domain.TimeOffRequest{}, err
	}

	w.log.InfoContext(ctx, "time-off rejected",
		"request_id", out.ID.String(),
		"provider_id", out.ProviderID.String(),
		"admin_id", adminID.String(),
	)
	return out, nil
}

// respond loads the request, then re-reads and updates it under the owning
// provider's lock.
func (w *Workflow) respond(ctx context.Context, requestID uuid.UUID, apply func(ctx context.Context, tx store.Tx, r *domain.TimeOffRequest) error) (domain.TimeOffRequest, error) {
	current, err := w.store.GetTimeOff(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TimeOffRequest{}, domain.Errorf(domain.ErrNotFound, "time-off request %s not found", requestID)
		}
		return domain.TimeOffRequest{}, fmt.Errorf("get time off: %w", err)
	}

	var out domain.TimeOffRequest
	err = w.store.InProviderTransaction(ctx, []uuid.UUID{current.ProviderID}, func(ctx context.Context, tx store.Tx) error {
		r, err := tx.GetTimeOff(ctx, requestID)
		if err != nil {
			return err
		}
		if err := apply(ctx, tx, &r); err != nil {
			return err
		}
		if err := tx.UpdateTimeOff(ctx, r); err != nil {
			return err
		}
		out = r
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TimeOffRequest{}, domain.Errorf(domain.ErrNotFound, "time-off request %s not found", requestID)
		}
		return domain.TimeOffRequest{}, err
	}
	return out, nil
}

// ListPending returns every pending request, oldest first.
func (w *Workflow) ListPending(ctx context.Context) ([]domain.TimeOffRequest, error) {
	out, err := w.store.ListTimeOff(ctx, store.TimeOffFilter{Status: domain.TimeOffPending})
	if err != nil {
		return nil, fmt.Errorf("list time off: %w", err)
	}
	if out == nil {
		out = []domain.TimeOffRequest{}
	}
	return out, nil
}

// ListForProvider returns the provider's requests in any state, newest first.
func (w *Workflow) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]domain.TimeOffRequest, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider_id is required")
	}
	out, err := w.store.ListTimeOff(ctx, store.TimeOffFilter{ProviderID: providerID, NewestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("list time off: %w", err)
	}
	if out == nil {
		out = []domain.TimeOffRequest{}
	}
	return out, nil
}

// Reactivate puts the provider back to Available. It refuses while an
// approved request still covers today.
func (w *Workflow) Reactivate(ctx context.Context, providerID uuid.UUID) (domain.Provider, error) {
	if providerID == uuid.Nil {
		return domain.Provider{}, domain.NewValidationError("provider_id is required")
	}
	today := w.Today()

	out, err := w.setStatus(ctx, providerID, domain.ProviderAvailable, func(ctx context.Context, tx store.Tx) error {
		active, err := tx.ListTimeOff(ctx, store.TimeOffFilter{
			ProviderID: providerID,
			Status:     domain.TimeOffApproved,
			From:       today,
			To:         today,
		})
		if err != nil {
			return fmt.Errorf("list time off: %w", err)
		}
		for _, r := range active {
			if r.CoversDate(today) {
				return domain.Errorf(domain.ErrConflict, "approved time-off %s..%s is still in effect",
					domain.FormatDate(r.StartDate), domain.FormatDate(r.EndDate))
			}
		}
		return nil
	})
	if err != nil {
		return domain.Provider{}, err
	}
	w.log.InfoContext(ctx, "provider reactivated", "provider_id", providerID.String())
	return out, nil
}

// SetAvailability is the manual admin override of the provider status.
func (w *Workflow) SetAvailability(ctx context.Context, providerID uuid.UUID, status domain.AvailabilityStatus) (domain.Provider, error) {
	if providerID == uuid.Nil {
		return domain.Provider{}, domain.NewValidationError("provider_id is required")
	}
	if !status.Valid() {
		return domain.Provider{}, domain.NewValidationError("unknown availability status " + string(status))
	}
	out, err := w.setStatus(ctx, providerID, status, nil)
	if err != nil {
		return domain.Provider{}, err
	}
	w.log.InfoContext(ctx, "provider availability set",
		"provider_id", providerID.String(),
		"status", string(status),
	)
	return out, nil
}

func (w *Workflow) setStatus(ctx context.Context, providerID uuid.UUID, status domain.AvailabilityStatus, check func(ctx context.Context, tx store.Tx) error) (domain.Provider, error) {
	var out domain.Provider
	err := w.store.InProviderTransaction(ctx, []uuid.UUID{providerID}, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.GetProvider(ctx, providerID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(ctx, tx); err != nil {
				return err
			}
		}
		if err := tx.SetProviderStatus(ctx, providerID, status); err != nil {
			return err
		}
		p.Status = status
		out = p
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Provider{}, domain.Errorf(domain.ErrNotFound, "provider %s not found", providerID)
		}
		return domain.Provider{}, err
	}
	w.cache.InvalidateProvider(ctx, providerID)
	return out, nil
}
