package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the scheduling engine. Callers match them with
// errors.Is; transports translate them into status codes.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnavailable      = errors.New("provider unavailable")
	ErrNoSchedule       = errors.New("no schedule for date")
	ErrOutOfSchedule    = errors.New("outside working hours")
	ErrSlotTaken        = errors.New("slot taken")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrStoreUnavailable = errors.New("store unavailable")
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// Error carries a human readable message and unwraps to one of the kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// StoreUnavailable wraps an infrastructure failure so it matches ErrStoreUnavailable
// while keeping the cause reachable for logging.
func StoreUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

var kinds = []error{
	ErrInvalidArgument,
	ErrNotFound,
	ErrConflict,
	ErrUnavailable,
	ErrNoSchedule,
	ErrOutOfSchedule,
	ErrSlotTaken,
	ErrInvalidState,
	ErrStoreUnavailable,
}

// KindOf returns the error kind err matches, or nil for errors outside the
// taxonomy.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
