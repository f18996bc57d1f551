// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ktime

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned if the input does not have the yyyy-mm-dd
	// layout.
	ErrFormat = errors.New("invalid date format")

	// ErrRange is returned if month or day are out of range.
	ErrRange = errors.New("date out of range")
)

// ParseError records a date parsing error along with the input and the
// field that failed.
type ParseError struct {
	Input string
	Field string
	Err   error
}

// Error implements the [error] interface.
func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse date %q: %v", e.Input, e.Err)
	}

	return fmt.Sprintf("parse date %q: %s: %v", e.Input, e.Field, e.Err)
}

// Is implements the [errors.Is] interface.
func (*ParseError) Is(other error) bool {
	_, ok := other.(*ParseError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ParseError) Unwrap() error {
	return e.Err
}
