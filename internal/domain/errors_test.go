package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"validation", NewValidationError("provider_id is required"), ErrInvalidArgument},
		{"wrapped kind", fmt.Errorf("commit: %w", Errorf(ErrSlotTaken, "taken")), ErrSlotTaken},
		{"store failure", StoreUnavailable(context.DeadlineExceeded), ErrStoreUnavailable},
		{"unrelated", errors.New("boom"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStoreUnavailable_KeepsCause(t *testing.T) {
	err := StoreUnavailable(context.DeadlineExceeded)
	if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want both kind and cause", err)
	}
	if again := StoreUnavailable(err); again != err {
		t.Fatalf("StoreUnavailable wrapped twice: %v", again)
	}
	if StoreUnavailable(nil) != nil {
		t.Fatalf("StoreUnavailable(nil) != nil")
	}
}
