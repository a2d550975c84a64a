package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   error
		wantOK bool
	}{
		{"no rows", fmt.Errorf("select: %w", sql.ErrNoRows), store.ErrNotFound, true},
		{"exclusion violation", &pgconn.PgError{Code: codeExclusionViolation}, store.ErrConflict, true},
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation}, store.ErrConflict, true},
		{"foreign key", &pgconn.PgError{Code: codeForeignKeyViolation}, store.ErrNotFound, true},
		{"serialization", &pgconn.PgError{Code: codeSerializationFailure}, errSerialization, true},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, errSerialization, true},
		{"other sqlstate", &pgconn.PgError{Code: "42P01"}, domain.ErrStoreUnavailable, true},
		{"deadline", context.DeadlineExceeded, domain.ErrStoreUnavailable, true},
		{"canceled", context.Canceled, context.Canceled, true},
		{"conn done", sql.ErrConnDone, domain.ErrStoreUnavailable, true},
		{"domain error", domain.Errorf(domain.ErrSlotTaken, "taken"), domain.ErrSlotTaken, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classify(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("ok = %t, want %t", ok, tt.wantOK)
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if got, ok := classify(nil); got != nil || !ok {
		t.Fatalf("classify(nil) = %v, %t", got, ok)
	}
}

func TestMapErr_UnknownErrorsAreStoreFailures(t *testing.T) {
	err := mapErr(errors.New("driver: bad connection state"))
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("mapErr = %v, want ErrStoreUnavailable", err)
	}
}

func TestLockKeys(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	day := domain.Date(2025, 1, 6)
	if providerLockKey(id) == providerDayLockKey(id, day) {
		t.Fatalf("provider and day keys collide")
	}
	if providerDayLockKey(id, day) != providerDayLockKey(id, day.Add(13*time.Hour)) {
		t.Fatalf("day key depends on the clock part of the date")
	}
}
