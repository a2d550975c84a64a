package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ScheduleBlock declares that a provider works between WorkStart and WorkEnd
// on every day of [StartDate, EndDate] except the weekdays in FreeDays.
type ScheduleBlock struct {
	bun.BaseModel `bun:"table:schedule_blocks"`

	ID         uuid.UUID  `bun:"id,pk,type:uuid"`
	ProviderID uuid.UUID  `bun:"provider_id,notnull,type:uuid"`
	StartDate  time.Time  `bun:"start_date,notnull,type:date"`
	EndDate    time.Time  `bun:"end_date,notnull,type:date"`
	WorkStart  ClockTime  `bun:"work_start_minute,notnull"`
	WorkEnd    ClockTime  `bun:"work_end_minute,notnull"`
	FreeDays   WeekdaySet `bun:"free_days,notnull"`
	CreatedAt  time.Time  `bun:"created_at,notnull"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull"`
}

func (b *ScheduleBlock) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stamp(query, &b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (b ScheduleBlock) Validate() error {
	if b.ProviderID == uuid.Nil {
		return NewValidationError("provider_id is required")
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return NewValidationError("start_date and end_date are required")
	}
	if DateOf(b.EndDate).Before(DateOf(b.StartDate)) {
		return NewValidationError("end_date must not be before start_date")
	}
	if !b.WorkStart.Valid() || !b.WorkEnd.Valid() {
		return NewValidationError("work hours must be within the day")
	}
	if b.WorkStart >= b.WorkEnd {
		return NewValidationError("work_start must be before work_end")
	}
	if b.FreeDays.Full() {
		return NewValidationError("free_days cannot include every weekday")
	}
	return nil
}

func (b ScheduleBlock) WorkingHours() Interval {
	return Interval{Start: b.WorkStart, End: b.WorkEnd}
}

// CoversDate reports whether date lies in the block's range, free days included.
func (b ScheduleBlock) CoversDate(date time.Time) bool {
	return RangeContains(b.StartDate, b.EndDate, date)
}

// WorksOn reports whether the block schedules work on date.
func (b ScheduleBlock) WorksOn(date time.Time) bool {
	return b.CoversDate(date) && !b.FreeDays.Has(DateOf(date).Weekday())
}

// HasWorkDay reports whether any day of the block's range is worked.
func (b ScheduleBlock) HasWorkDay() bool {
	for d, n := DateOf(b.StartDate), 0; !d.After(DateOf(b.EndDate)) && n < 7; d, n = d.AddDate(0, 0, 1), n+1 {
		if b.WorksOn(d) {
			return true
		}
	}
	return false
}

// Collides reports whether both blocks schedule overlapping hours on a common day.
func (b ScheduleBlock) Collides(o ScheduleBlock) bool {
	if !Overlaps(b.WorkingHours(), o.WorkingHours()) {
		return false
	}
	if !RangesIntersect(b.StartDate, b.EndDate, o.StartDate, o.EndDate) {
		return false
	}
	from := latest(DateOf(b.StartDate), DateOf(o.StartDate))
	to := earliest(DateOf(b.EndDate), DateOf(o.EndDate))
	for d, n := from, 0; !d.After(to) && n < 7; d, n = d.AddDate(0, 0, 1), n+1 {
		if b.WorksOn(d) && o.WorksOn(d) {
			return true
		}
	}
	return false
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
