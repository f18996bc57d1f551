// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootcfg

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKey is returned if a configuration file contains keys that
	// are not known.
	ErrUnknownKey = errors.New("unknown configuration key")

	// ErrInvalidMount is returned if a mount flag is not of the form
	// "point=kind[:source]".
	ErrInvalidMount = errors.New("invalid mount, want point=kind[:source]")

	// ErrMissingSource is returned if a backend kind requires a source but
	// none is given.
	ErrMissingSource = errors.New("source required")
)

// FormatError wraps errors of malformed mount flag values.
type FormatError struct {
	Input string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("mount %q: %v", e.Input, e.Err)
}

func (*FormatError) Is(other error) bool {
	_, ok := other.(*FormatError)
	return ok
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// MountError wraps errors that occur while constructing the backend of a
// mount.
type MountError struct {
	Path string
	Err  error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("mount %s: %v", e.Path, e.Err)
}

func (*MountError) Is(other error) bool {
	_, ok := other.(*MountError)
	return ok
}

func (e *MountError) Unwrap() error {
	return e.Err
}

// OptionalMountError is a collection of errors that occurred for mounts that
// may fail.
type OptionalMountError []error

func (e OptionalMountError) Error() string {
	return fmt.Sprintf("optional mount errors: %q", []error(e))
}

func (OptionalMountError) Is(other error) bool {
	_, ok := other.(OptionalMountError)
	return ok
}

func (e OptionalMountError) Unwrap() []error {
	return e
}
