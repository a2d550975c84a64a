package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a time of day in minutes after midnight. EndOfDay (24:00) is
// only meaningful as an exclusive upper bound.
type ClockTime int

const EndOfDay ClockTime = 24 * 60

func Clock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime accepts "HH:MM" and "HH:MM:SS"; seconds must be zero.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec != 0 {
			return 0, fmt.Errorf("invalid clock time %q", s)
		}
	}
	c := Clock(h, m)
	if h < 0 || !c.Valid() {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return c, nil
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c <= EndOfDay
}

func (c ClockTime) Add(minutes int) ClockTime {
	return c + ClockTime(minutes)
}

func (c ClockTime) Hour() int {
	return int(c) / 60
}

func (c ClockTime) Minute() int {
	return int(c) % 60
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start ClockTime
	End   ClockTime
}

func NewInterval(start ClockTime, minutes int) Interval {
	return Interval{Start: start, End: start.Add(minutes)}
}

func (i Interval) Empty() bool {
	return i.End <= i.Start
}

func (i Interval) Minutes() int {
	if i.Empty() {
		return 0
	}
	return int(i.End - i.Start)
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// Overlaps reports whether a and b share at least one minute. Touching
// endpoints do not overlap and empty intervals overlap nothing.
func Overlaps(a, b Interval) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.Start < b.End && b.Start < a.End
}

// Contains reports whether inner lies entirely within outer. An empty inner
// interval is never contained.
func Contains(outer, inner Interval) bool {
	if outer.Empty() || inner.Empty() {
		return false
	}
	return outer.Start <= inner.Start && inner.End <= outer.End
}
