package domain

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DateOf drops the clock part of t, keeping its calendar day, and returns
// midnight UTC of that day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// RangesIntersect reports whether the inclusive date ranges share a day.
func RangesIntersect(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !DateOf(aStart).After(DateOf(bEnd)) && !DateOf(bStart).After(DateOf(aEnd))
}

// RangeContains reports whether date falls in the inclusive range [start, end].
func RangeContains(start, end, date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(start)) && !d.After(DateOf(end))
}
