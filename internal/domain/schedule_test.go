package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestWeekdaySet(t *testing.T) {
	s := NewWeekdaySet(time.Saturday, time.Sunday)
	if !s.Has(time.Saturday) || !s.Has(time.Sunday) {
		t.Fatalf("set %v missing weekend days", s)
	}
	if s.Has(time.Monday) {
		t.Fatalf("set %v unexpectedly has Monday", s)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if got := s.String(); got != "Sat,Sun" {
		t.Fatalf("String() = %q, want %q", got, "Sat,Sun")
	}
	if s.Full() {
		t.Fatalf("two-day set reported full")
	}
	if !NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday).Full() {
		t.Fatalf("seven-day set not full")
	}

	parsed, err := ParseWeekdaySet([]string{"sábado", " Sunday ", ""})
	if err != nil {
		t.Fatalf("ParseWeekdaySet error: %v", err)
	}
	if parsed != s {
		t.Fatalf("ParseWeekdaySet = %v, want %v", parsed, s)
	}
	if _, err := ParseWeekdaySet([]string{"someday"}); err == nil {
		t.Fatalf("expected error for unknown weekday")
	}
}

func TestScheduleBlockValidate(t *testing.T) {
	base := ScheduleBlock{
		ProviderID: uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		StartDate:  Date(2025, 1, 6),
		EndDate:    Date(2025, 1, 6),
		WorkStart:  Clock(9, 0),
		WorkEnd:    Clock(11, 0),
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(b *ScheduleBlock)
		wantMsg string
	}{
		{"missing provider", func(b *ScheduleBlock) { b.ProviderID = uuid.Nil }, "provider_id is required"},
		{"dates reversed", func(b *ScheduleBlock) { b.EndDate = Date(2025, 1, 5) }, "end_date must not be before start_date"},
		{"hours reversed", func(b *ScheduleBlock) { b.WorkEnd = Clock(9, 0) }, "work_start must be before work_end"},
		{"past midnight", func(b *ScheduleBlock) { b.WorkEnd = EndOfDay + 1 }, "work hours must be within the day"},
		{"all days free", func(b *ScheduleBlock) { b.FreeDays = AllWeekdays }, "free_days cannot include every weekday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := base
			tt.mutate(&b)
			err := b.Validate()
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
			if err.Error() != tt.wantMsg {
				t.Fatalf("err = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestScheduleBlockWorksOn(t *testing.T) {
	b := ScheduleBlock{
		StartDate: Date(2025, 2, 1),
		EndDate:   Date(2025, 2, 28),
		WorkStart: Clock(9, 0),
		WorkEnd:   Clock(17, 0),
		FreeDays:  NewWeekdaySet(time.Saturday),
	}

	if !b.CoversDate(Date(2025, 2, 1)) {
		t.Fatalf("block should cover its first day")
	}
	if b.WorksOn(Date(2025, 2, 1)) {
		t.Fatalf("2025-02-01 is a Saturday and should be free")
	}
	if !b.WorksOn(Date(2025, 2, 3)) {
		t.Fatalf("2025-02-03 is a Monday and should be worked")
	}
	if b.WorksOn(Date(2025, 3, 3)) {
		t.Fatalf("date outside range should not be worked")
	}
}

func TestScheduleBlockHasWorkDay(t *testing.T) {
	weekend := NewWeekdaySet(time.Saturday, time.Sunday)
	cases := []struct {
		name     string
		from, to time.Time
		want     bool
	}{
		{"weekend only", Date(2025, 2, 1), Date(2025, 2, 2), false},
		{"single saturday", Date(2025, 2, 8), Date(2025, 2, 8), false},
		{"weekend then monday", Date(2025, 2, 1), Date(2025, 2, 3), true},
		{"friday", Date(2025, 2, 7), Date(2025, 2, 7), true},
		{"whole month", Date(2025, 2, 1), Date(2025, 2, 28), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := ScheduleBlock{StartDate: tc.from, EndDate: tc.to, WorkStart: Clock(9, 0), WorkEnd: Clock(17, 0), FreeDays: weekend}
			if got := b.HasWorkDay(); got != tc.want {
				t.Fatalf("HasWorkDay() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScheduleBlockCollides(t *testing.T) {
	weekdays := ScheduleBlock{
		StartDate: Date(2025, 2, 1),
		EndDate:   Date(2025, 2, 28),
		WorkStart: Clock(9, 0),
		WorkEnd:   Clock(17, 0),
		FreeDays:  NewWeekdaySet(time.Saturday, time.Sunday),
	}

	tests := []struct {
		name  string
		other ScheduleBlock
		want  bool
	}{
		{
			name:  "same day overlapping hours",
			other: ScheduleBlock{StartDate: Date(2025, 2, 3), EndDate: Date(2025, 2, 3), WorkStart: Clock(16, 0), WorkEnd: Clock(18, 0)},
			want:  true,
		},
		{
			name:  "same day adjacent hours",
			other: ScheduleBlock{StartDate: Date(2025, 2, 3), EndDate: Date(2025, 2, 3), WorkStart: Clock(17, 0), WorkEnd: Clock(19, 0)},
			want:  false,
		},
		{
			name:  "free day of the period block",
			other: ScheduleBlock{StartDate: Date(2025, 2, 8), EndDate: Date(2025, 2, 8), WorkStart: Clock(10, 0), WorkEnd: Clock(14, 0)},
			want:  false,
		},
		{
			name:  "different month",
			other: ScheduleBlock{StartDate: Date(2025, 3, 3), EndDate: Date(2025, 3, 3), WorkStart: Clock(10, 0), WorkEnd: Clock(14, 0)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := weekdays.Collides(tt.other); got != tt.want {
				t.Fatalf("Collides = %v, want %v", got, tt.want)
			}
			if got := tt.other.Collides(weekdays); got != tt.want {
				t.Fatalf("reverse Collides = %v, want %v", got, tt.want)
			}
		})
	}
}
