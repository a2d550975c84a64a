package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

type pgTx struct {
	reader
}

var _ store.Tx = (*pgTx)(nil)

func (t *pgTx) SetProviderStatus(ctx context.Context, id uuid.UUID, status domain.AvailabilityStatus) error {
	res, err := t.db.NewUpdate().
		Model((*domain.Provider)(nil)).
		Set("availability_status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return expectRow(res, err)
}

func (t *pgTx) CreateScheduleBlock(ctx context.Context, b domain.ScheduleBlock) (domain.ScheduleBlock, error) {
	b.StartDate = domain.DateOf(b.StartDate)
	b.EndDate = domain.DateOf(b.EndDate)
	if _, err := t.db.NewInsert().Model(&b).Exec(ctx); err != nil {
		return domain.ScheduleBlock{}, mapErr(err)
	}
	return b, nil
}

func (t *pgTx) UpdateScheduleBlock(ctx context.Context, b domain.ScheduleBlock) error {
	b.StartDate = domain.DateOf(b.StartDate)
	b.EndDate = domain.DateOf(b.EndDate)
	res, err := t.db.NewUpdate().
		Model(&b).
		Column("provider_id", "start_date", "end_date", "work_start_minute", "work_end_minute", "free_days", "updated_at").
		WherePK().
		Exec(ctx)
	return expectRow(res, err)
}

func (t *pgTx) DeleteScheduleBlock(ctx context.Context, id uuid.UUID) error {
	res, err := t.db.NewDelete().
		Model((*domain.ScheduleBlock)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return expectRow(res, err)
}

func (t *pgTx) CreateTimeOff(ctx context.Context, r domain.TimeOffRequest) (domain.TimeOffRequest, error) {
	r.StartDate = domain.DateOf(r.StartDate)
	r.EndDate = domain.DateOf(r.EndDate)
	if r.RequestedAt.IsZero() {
		r.RequestedAt = time.Now().UTC()
	}
	if _, err := t.db.NewInsert().Model(&r).Exec(ctx); err != nil {
		return domain.TimeOffRequest{}, mapErr(err)
	}
	return r, nil
}

func (t *pgTx) UpdateTimeOff(ctx context.Context, r domain.TimeOffRequest) error {
	res, err := t.db.NewUpdate().
		Model(&r).
		Column("status", "responded_at", "responding_admin_id", "rejection_reason", "updated_at").
		WherePK().
		Exec(ctx)
	return expectRow(res, err)
}

// CreateBooking inserts with ON CONFLICT (id) DO NOTHING so an idempotent
// replay can be told apart from a real collision without aborting the
// transaction. Overlaps still surface as exclusion violations.
func (t *pgTx) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	b.Date = domain.DateOf(b.Date)
	res, err := t.db.NewInsert().
		Model(&b).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Booking{}, mapErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Booking{}, mapErr(err)
	}
	if affected == 1 {
		return b, nil
	}

	existing, err := t.GetBooking(ctx, b.ID)
	if err != nil {
		return domain.Booking{}, err
	}
	if !existing.SameRequest(b) {
		return domain.Booking{}, store.ErrIdempotencyConflict
	}
	return existing, nil
}

func (t *pgTx) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) error {
	res, err := t.db.NewUpdate().
		Model((*domain.Booking)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return expectRow(res, err)
}

func expectRow(res sql.Result, err error) error {
	if err != nil {
		return mapErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return mapErr(err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
