// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ktime

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the only accepted textual layout.
const DateLayout = "yyyy-mm-dd"

const (
	yearStart  = 0
	yearEnd    = 4
	monthStart = 5
	monthEnd   = 7
	dayStart   = 8
	dayEnd     = 10

	separator = '-'
)

var _ interface {
	fmt.Stringer
	MarshalText() ([]byte, error)
} = Timestamp{}

// Timestamp is a calendar date with an optional time of day.
//
// The day never exceeds the number of days of its month in its year.
type Timestamp struct {
	day   uint8
	month uint8
	year  uint64

	hour float32
	min  float32
	sec  float32
}

// ParseDate parses a date in the exact layout yyyy-mm-dd.
//
// The fields are read from fixed offsets. The time of day of the result is
// zero. Errors are of type [ParseError] wrapping [ErrFormat] or [ErrRange].
func ParseDate(s string) (Timestamp, error) {
	fail := func(field string, err error) (Timestamp, error) {
		return Timestamp{}, &ParseError{Input: s, Field: field, Err: err}
	}

	if len(s) != len(DateLayout) {
		return fail("", fmt.Errorf("%w: length %d", ErrFormat, len(s)))
	}

	if s[yearEnd] != separator || s[monthEnd] != separator {
		return fail("", fmt.Errorf("%w: separator", ErrFormat))
	}

	year, ok := parseDigits(s[yearStart:yearEnd])
	if !ok {
		return fail("year", ErrFormat)
	}

	month, ok := parseDigits(s[monthStart:monthEnd])
	if !ok {
		return fail("month", ErrFormat)
	}

	day, ok := parseDigits(s[dayStart:dayEnd])
	if !ok {
		return fail("day", ErrFormat)
	}

	if month < 1 || month > 12 {
		return fail("month", fmt.Errorf("%w: %d", ErrRange, month))
	}

	maxDay := DaysIn(uint8(month), year)
	if day < 1 || day > uint64(maxDay) {
		return fail("day", fmt.Errorf("%w: %d not in [1,%d]", ErrRange, day, maxDay))
	}

	return Timestamp{
		day:   uint8(day),
		month: uint8(month),
		year:  year,
	}, nil
}

// MustParseDate is like [ParseDate] but panics on error. Use it for
// constants only.
func MustParseDate(s string) Timestamp {
	ts, err := ParseDate(s)
	if err != nil {
		panic(err)
	}

	return ts
}

// FromTime converts the given time in UTC into a [Timestamp] with
// millisecond precision. Times before year 0 are clamped to 0000-01-01.
func FromTime(t time.Time) Timestamp {
	t = t.UTC()
	if t.Year() < 0 {
		return Timestamp{day: 1, month: 1}
	}

	// Millisecond precision keeps float32 seconds below 60.
	millis := t.Nanosecond() / int(time.Millisecond)
	secs := float64(t.Second()) + float64(millis)/1000

	return Timestamp{
		day:   uint8(t.Day()),
		month: uint8(t.Month()),
		year:  uint64(t.Year()),
		hour:  float32(t.Hour()),
		min:   float32(t.Minute()),
		sec:   float32(secs),
	}
}

// parseDigits parses an unsigned decimal number consisting of ASCII digits
// only.
func parseDigits(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}

	var n uint64

	for idx := range len(s) {
		c := s[idx]
		if c < '0' || c > '9' {
			return 0, false
		}

		n = n*10 + uint64(c-'0')
	}

	return n, true
}

// IsLeapYear reports whether the year is a leap year in the Gregorian
// calendar.
func IsLeapYear(year uint64) bool {
	return year%400 == 0 || (year%4 == 0 && year%100 != 0)
}

// DaysIn returns the number of days of the given month in the given year. It
// returns 0 for invalid months.
func DaysIn(month uint8, year uint64) uint8 {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}

		return 28
	default:
		return 0
	}
}

func (t Timestamp) Day() uint8      { return t.day }
func (t Timestamp) Month() uint8    { return t.month }
func (t Timestamp) Year() uint64    { return t.year }
func (t Timestamp) Hour() float32   { return t.hour }
func (t Timestamp) Minute() float32 { return t.min }
func (t Timestamp) Second() float32 { return t.sec }

// IsZero reports whether t is the zero value, which is not a valid date.
func (t Timestamp) IsZero() bool {
	return t == Timestamp{}
}

// Time returns t as [time.Time] in UTC.
func (t Timestamp) Time() time.Time {
	whole, frac := math.Modf(float64(t.sec))

	return time.Date(
		int(t.year), //nolint:gosec
		time.Month(t.month),
		int(t.day),
		int(t.hour),
		int(t.min),
		int(whole),
		int(frac*float64(time.Second)),
		time.UTC,
	)
}

// String returns the date in yyyy-mm-dd layout. A non-zero time of day is
// appended as hh:mm:ss.
func (t Timestamp) String() string {
	date := fmt.Sprintf("%04d-%02d-%02d", t.year, t.month, t.day)
	if t.hour == 0 && t.min == 0 && t.sec == 0 {
		return date
	}

	return fmt.Sprintf("%s %02d:%02d:%02d", date, int(t.hour), int(t.min), int(t.sec))
}

// MarshalText implements [encoding.TextMarshaler]. Only the date is encoded.
func (t Timestamp) MarshalText() ([]byte, error) {
	if t.IsZero() {
		return nil, nil
	}

	return fmt.Appendf(nil, "%04d-%02d-%02d", t.year, t.month, t.day), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler] using [ParseDate].
func (t *Timestamp) UnmarshalText(text []byte) error {
	ts, err := ParseDate(string(text))
	if err != nil {
		return err
	}

	*t = ts

	return nil
}
