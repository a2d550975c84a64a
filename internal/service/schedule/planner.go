// Package schedule manages the working-hour blocks that availability is
// derived from.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"barberpro/backend/internal/cache"
	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

// MaxGenerateDays bounds a single Generate call.
const MaxGenerateDays = 366

type Planner struct {
	store store.Store
	cache cache.Invalidator
	log   *slog.Logger
}

func NewPlanner(s store.Store, inv cache.Invalidator, log *slog.Logger) *Planner {
	if inv == nil {
		inv = cache.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Planner{store: s, cache: inv, log: log.With("component", "schedule")}
}

type BlockInput struct {
	ProviderID uuid.UUID
	StartDate  time.Time
	EndDate    time.Time
	WorkStart  domain.ClockTime
	WorkEnd    domain.ClockTime
	FreeDays   domain.WeekdaySet
}

func (in BlockInput) block() domain.ScheduleBlock {
	return domain.ScheduleBlock{
		ProviderID: in.ProviderID,
		StartDate:  domain.DateOf(in.StartDate),
		EndDate:    domain.DateOf(in.EndDate),
		WorkStart:  in.WorkStart,
		WorkEnd:    in.WorkEnd,
		FreeDays:   in.FreeDays,
	}
}

func (p *Planner) CreateBlock(ctx context.Context, in BlockInput) (domain.ScheduleBlock, error) {
	b := in.block()
	if err := b.Validate(); err != nil {
		return domain.ScheduleBlock{}, err
	}

	var out domain.ScheduleBlock
	err := p.store.InProviderTransaction(ctx, []uuid.UUID{b.ProviderID}, func(ctx context.Context, tx store.Tx) error {
		if err := requireProvider(ctx, tx, b.ProviderID); err != nil {
			return err
		}
		if err := checkCollisions(ctx, tx, b, uuid.Nil); err != nil {
			return err
		}
		created, err := tx.CreateScheduleBlock(ctx, b)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.ScheduleBlock{}, mapErr(err)
	}

	p.cache.InvalidateProvider(ctx, out.ProviderID)
	p.log.InfoContext(ctx, "schedule block created",
		"block_id", out.ID.String(),
		"provider_id", out.ProviderID.String(),
		"range", domain.FormatDate(out.StartDate)+".."+domain.FormatDate(out.EndDate),
		"hours", out.WorkingHours().String(),
	)
	return out, nil
}

// DeleteBlock removes a block unless an active booking falls in its range.
func (p *Planner) DeleteBlock(ctx context.Context, blockID uuid.UUID) error {
	current, err := p.getBlock(ctx, blockID)
	if err != nil {
		return err
	}

	err = p.store.InProviderTransaction(ctx, []uuid.UUID{current.ProviderID}, func(ctx context.Context, tx store.Tx) error {
		b, err := tx.GetScheduleBlock(ctx, blockID)
		if err != nil {
			return err
		}
		if err := requireNoBookings(ctx, tx, b.ProviderID, b.StartDate, b.EndDate); err != nil {
			return err
		}
		return tx.DeleteScheduleBlock(ctx, blockID)
	})
	if err != nil {
		return mapErr(err)
	}

	p.cache.InvalidateProvider(ctx, current.ProviderID)
	p.log.InfoContext(ctx, "schedule block deleted",
		"block_id", blockID.String(),
		"provider_id", current.ProviderID.String(),
	)
	return nil
}

// ReassignBlock hands a block to another provider. Both providers are locked
// for the duration.
func (p *Planner) ReassignBlock(ctx context.Context, blockID, newProviderID uuid.UUID) (domain.ScheduleBlock, error) {
	if newProviderID == uuid.Nil {
		return domain.ScheduleBlock{}, domain.NewValidationError("provider_id is required")
	}
	current, err := p.getBlock(ctx, blockID)
	if err != nil {
		return domain.ScheduleBlock{}, err
	}
	if current.ProviderID == newProviderID {
		return current, nil
	}
	oldProviderID := current.ProviderID

	var out domain.ScheduleBlock
	err = p.store.InProviderTransaction(ctx, []uuid.UUID{oldProviderID, newProviderID}, func(ctx context.Context, tx store.Tx) error {
		b, err := tx.GetScheduleBlock(ctx, blockID)
		if err != nil {
			return err
		}
		if b.ProviderID != oldProviderID {
			return domain.Errorf(domain.ErrConflict, "schedule block %s changed owner concurrently", blockID)
		}
		if err := requireProvider(ctx, tx, newProviderID); err != nil {
			return err
		}
		if err := requireNoBookings(ctx, tx, oldProviderID, b.StartDate, b.EndDate); err != nil {
			return err
		}
		b.ProviderID = newProviderID
		if err := checkCollisions(ctx, tx, b, b.ID); err != nil {
			return err
		}
		if err := tx.UpdateScheduleBlock(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.ScheduleBlock{}, mapErr(err)
	}

	p.cache.InvalidateProvider(ctx, oldProviderID)
	p.cache.InvalidateProvider(ctx, newProviderID)
	p.log.InfoContext(ctx, "schedule block reassigned",
		"block_id", blockID.String(),
		"from_provider_id", oldProviderID.String(),
		"to_provider_id", newProviderID.String(),
	)
	return out, nil
}

type GenerateInput struct {
	ProviderID uuid.UUID
	From       time.Time
	To         time.Time
	WorkStart  domain.ClockTime
	WorkEnd    domain.ClockTime
	FreeDays   domain.WeekdaySet
	// ReplaceExisting trims or removes blocks that intersect [From, To]
	// instead of failing.
	ReplaceExisting bool
}

type GenerateResult struct {
	Created  []domain.ScheduleBlock
	Skipped  []time.Time
	Warnings []string
}

// Generate lays down one single-day block per working day of [From, To].
// Free weekdays and days under approved time-off are skipped.
func (p *Planner) Generate(ctx context.Context, in GenerateInput) (GenerateResult, error) {
	template := domain.ScheduleBlock{
		ProviderID: in.ProviderID,
		StartDate:  domain.DateOf(in.From),
		EndDate:    domain.DateOf(in.To),
		WorkStart:  in.WorkStart,
		WorkEnd:    in.WorkEnd,
		FreeDays:   in.FreeDays,
	}
	if err := template.Validate(); err != nil {
		return GenerateResult{}, err
	}
	from, to := template.StartDate, template.EndDate
	if domain.DaysBetween(from, to)+1 > MaxGenerateDays {
		return GenerateResult{}, domain.NewValidationError(fmt.Sprintf("period cannot exceed %d days", MaxGenerateDays))
	}

	var res GenerateResult
	err := p.store.InProviderTransaction(ctx, []uuid.UUID{in.ProviderID}, func(ctx context.Context, tx store.Tx) error {
		res = GenerateResult{}
		if err := requireProvider(ctx, tx, in.ProviderID); err != nil {
			return err
		}

		existing, err := tx.ListScheduleBlocks(ctx, in.ProviderID, from, to)
		if err != nil {
			return fmt.Errorf("list schedule blocks: %w", err)
		}
		if len(existing) > 0 {
			if !in.ReplaceExisting {
				return domain.Errorf(domain.ErrConflict, "%d schedule block(s) already cover part of %s..%s",
					len(existing), domain.FormatDate(from), domain.FormatDate(to))
			}
			if err := requireNoBookings(ctx, tx, in.ProviderID, from, to); err != nil {
				return err
			}
			for _, b := range existing {
				if err := clearRange(ctx, tx, b, from, to); err != nil {
					return err
				}
			}
		}

		timeOff, err := tx.ListTimeOff(ctx, store.TimeOffFilter{
			ProviderID: in.ProviderID,
			Status:     domain.TimeOffApproved,
			From:       from,
			To:         to,
		})
		if err != nil {
			return fmt.Errorf("list time off: %w", err)
		}

		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			if in.FreeDays.Has(d.Weekday()) {
				res.Skipped = append(res.Skipped, d)
				continue
			}
			if r, ok := coveringTimeOff(timeOff, d); ok {
				res.Skipped = append(res.Skipped, d)
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s skipped: approved time-off %s..%s",
					domain.FormatDate(d), domain.FormatDate(r.StartDate), domain.FormatDate(r.EndDate)))
				continue
			}
			created, err := tx.CreateScheduleBlock(ctx, domain.ScheduleBlock{
				ProviderID: in.ProviderID,
				StartDate:  d,
				EndDate:    d,
				WorkStart:  in.WorkStart,
				WorkEnd:    in.WorkEnd,
			})
			if err != nil {
				return err
			}
			res.Created = append(res.Created, created)
		}
		return nil
	})
	if err != nil {
		return GenerateResult{}, mapErr(err)
	}
	if res.Created == nil {
		res.Created = []domain.ScheduleBlock{}
	}

	p.cache.InvalidateProvider(ctx, in.ProviderID)
	p.log.InfoContext(ctx, "schedule generated",
		"provider_id", in.ProviderID.String(),
		"from", domain.FormatDate(from),
		"to", domain.FormatDate(to),
		"created", len(res.Created),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

func (p *Planner) ListBlocks(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]domain.ScheduleBlock, error) {
	if providerID == uuid.Nil {
		return nil, domain.NewValidationError("provider_id is required")
	}
	if from.IsZero() || to.IsZero() {
		return nil, domain.NewValidationError("from and to are required")
	}
	if domain.DateOf(to).Before(domain.DateOf(from)) {
		return nil, domain.NewValidationError("to must not be before from")
	}
	out, err := p.store.ListScheduleBlocks(ctx, providerID, domain.DateOf(from), domain.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list schedule blocks: %w", err)
	}
	if out == nil {
		out = []domain.ScheduleBlock{}
	}
	return out, nil
}

// ListFreeDays returns the days of [from, to] that some block covers but no
// block works. Days outside every block are not free; they have no schedule.
func (p *Planner) ListFreeDays(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	blocks, err := p.ListBlocks(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}
	from, to = domain.DateOf(from), domain.DateOf(to)
	if domain.DaysBetween(from, to)+1 > MaxGenerateDays {
		return nil, domain.NewValidationError(fmt.Sprintf("period cannot exceed %d days", MaxGenerateDays))
	}

	out := []time.Time{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		covered, worked := false, false
		for _, b := range blocks {
			if !b.CoversDate(d) {
				continue
			}
			covered = true
			if b.WorksOn(d) {
				worked = true
				break
			}
		}
		if covered && !worked {
			out = append(out, d)
		}
	}
	return out, nil
}

func (p *Planner) getBlock(ctx context.Context, blockID uuid.UUID) (domain.ScheduleBlock, error) {
	if blockID == uuid.Nil {
		return domain.ScheduleBlock{}, domain.NewValidationError("block_id is required")
	}
	b, err := p.store.GetScheduleBlock(ctx, blockID)
	if err != nil {
		return domain.ScheduleBlock{}, mapErr(err)
	}
	return b, nil
}

func requireProvider(ctx context.Context, tx store.Tx, providerID uuid.UUID) error {
	if _, err := tx.GetProvider(ctx, providerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Errorf(domain.ErrNotFound, "provider %s not found", providerID)
		}
		return fmt.Errorf("get provider: %w", err)
	}
	return nil
}

func requireNoBookings(ctx context.Context, tx store.Tx, providerID uuid.UUID, from, to time.Time) error {
	bookings, err := tx.ListBookings(ctx, store.BookingFilter{ProviderID: providerID, From: from, To: to})
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	if len(bookings) > 0 {
		return domain.Errorf(domain.ErrConflict, "%d active booking(s) between %s and %s",
			len(bookings), domain.FormatDate(from), domain.FormatDate(to))
	}
	return nil
}

// checkCollisions fails when b collides with another block of its provider.
// skip excludes the block being moved.
func checkCollisions(ctx context.Context, tx store.Tx, b domain.ScheduleBlock, skip uuid.UUID) error {
	others, err := tx.ListScheduleBlocks(ctx, b.ProviderID, b.StartDate, b.EndDate)
	if err != nil {
		return fmt.Errorf("list schedule blocks: %w", err)
	}
	for _, o := range others {
		if o.ID == skip {
			continue
		}
		if b.Collides(o) {
			return domain.Errorf(domain.ErrConflict, "collides with block %s (%s..%s %s)",
				o.ID, domain.FormatDate(o.StartDate), domain.FormatDate(o.EndDate), o.WorkingHours())
		}
	}
	return nil
}

// clearRange removes [from, to] from b, keeping whatever lies outside it.
// A leftover fragment with no worked day is dropped.
func clearRange(ctx context.Context, tx store.Tx, b domain.ScheduleBlock, from, to time.Time) error {
	head, tail := b, b
	head.EndDate = from.AddDate(0, 0, -1)
	tail.StartDate = to.AddDate(0, 0, 1)
	keepHead := b.StartDate.Before(from) && head.HasWorkDay()
	keepTail := b.EndDate.After(to) && tail.HasWorkDay()

	switch {
	case keepHead && keepTail:
		if err := tx.UpdateScheduleBlock(ctx, head); err != nil {
			return err
		}
		tail.ID = uuid.Nil
		_, err := tx.CreateScheduleBlock(ctx, tail)
		return err
	case keepHead:
		return tx.UpdateScheduleBlock(ctx, head)
	case keepTail:
		return tx.UpdateScheduleBlock(ctx, tail)
	}
	return tx.DeleteScheduleBlock(ctx, b.ID)
}

func coveringTimeOff(reqs []domain.TimeOffRequest, d time.Time) (domain.TimeOffRequest, bool) {
	for _, r := range reqs {
		if r.Status == domain.TimeOffApproved && r.CoversDate(d) {
			return r, true
		}
	}
	return domain.TimeOffRequest{}, false
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Errorf(domain.ErrNotFound, "schedule block or provider not found")
	case errors.Is(err, store.ErrConflict):
		return domain.Errorf(domain.ErrConflict, "schedule block conflicts with stored data")
	}
	return err
}
