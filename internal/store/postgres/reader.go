package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

// idb is the query surface shared by *bun.DB and bun.Tx.
type idb interface {
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// reader implements store.Reader. Outside a transaction each call gets its own
// timeout; inside one the transaction deadline applies and timeout is zero.
type reader struct {
	db      idb
	timeout time.Duration
}

func (r reader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r reader) GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var p domain.Provider
	err := r.db.NewSelect().Model(&p).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Provider{}, mapErr(err)
	}
	return p, nil
}

func (r reader) GetService(ctx context.Context, id uuid.UUID) (domain.Service, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var s domain.Service
	err := r.db.NewSelect().Model(&s).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Service{}, mapErr(err)
	}
	return s, nil
}

func (r reader) GetScheduleBlock(ctx context.Context, id uuid.UUID) (domain.ScheduleBlock, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b domain.ScheduleBlock
	err := r.db.NewSelect().Model(&b).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.ScheduleBlock{}, mapErr(err)
	}
	return b, nil
}

func (r reader) ListScheduleBlocks(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]domain.ScheduleBlock, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []domain.ScheduleBlock
	err := r.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("start_date <= ?::date", domain.FormatDate(to)).
		Where("end_date >= ?::date", domain.FormatDate(from)).
		OrderExpr("start_date ASC, work_start_minute ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

func (r reader) GetTimeOff(ctx context.Context, id uuid.UUID) (domain.TimeOffRequest, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var req domain.TimeOffRequest
	err := r.db.NewSelect().Model(&req).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.TimeOffRequest{}, mapErr(err)
	}
	return req, nil
}

func (r reader) ListTimeOff(ctx context.Context, f store.TimeOffFilter) ([]domain.TimeOffRequest, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []domain.TimeOffRequest
	q := r.db.NewSelect().Model(&rows)
	if f.ProviderID != uuid.Nil {
		q = q.Where("provider_id = ?", f.ProviderID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if !f.From.IsZero() {
		q = q.Where("end_date >= ?::date", domain.FormatDate(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("start_date <= ?::date", domain.FormatDate(f.To))
	}
	if f.NewestFirst {
		q = q.OrderExpr("requested_at DESC, id DESC")
	} else {
		q = q.OrderExpr("requested_at ASC, id ASC")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

func (r reader) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var b domain.Booking
	err := r.db.NewSelect().Model(&b).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Booking{}, mapErr(err)
	}
	return b, nil
}

func (r reader) ListBookings(ctx context.Context, f store.BookingFilter) ([]domain.Booking, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rows []domain.Booking
	q := r.db.NewSelect().
		Model(&rows).
		Where("booking_date >= ?::date", domain.FormatDate(f.From)).
		Where("booking_date <= ?::date", domain.FormatDate(f.To))
	if f.ProviderID != uuid.Nil {
		q = q.Where("provider_id = ?", f.ProviderID)
	}
	if f.ClientID != uuid.Nil {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if !f.IncludeCancelled {
		q = q.Where("status <> ?", domain.BookingCancelled)
	}
	err := q.OrderExpr("booking_date ASC, start_minute ASC, id ASC").Scan(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}
