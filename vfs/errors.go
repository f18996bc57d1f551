// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNoRoot is returned if no mount is at "/".
	ErrNoRoot = errors.New("no root mount")

	// ErrMultipleRoots is returned if more than one mount is at "/".
	ErrMultipleRoots = errors.New("multiple root mounts")

	// ErrDuplicateMountPoint is returned if more than one mount is at the same
	// mount point.
	ErrDuplicateMountPoint = errors.New("duplicate mount point")

	// ErrMalformedMountPoint is returned if a mount point is not an absolute,
	// unambiguous path.
	ErrMalformedMountPoint = errors.New("malformed mount point")

	// ErrNotValidated is returned if a [Table] is used that did not pass
	// [Table.Check].
	ErrNotValidated = errors.New("mount table not validated")

	// ErrNotMounted is returned if no mount exists for a path.
	ErrNotMounted = errors.New("not mounted")

	// ErrMountBusy is returned if a mount is still in use.
	ErrMountBusy = errors.New("mount busy")

	// ErrNoBackend is returned if a mount has no backend.
	ErrNoBackend = errors.New("mount has no backend")

	// ErrInvalidPath is returned for lookup paths that are not absolute.
	ErrInvalidPath = errors.New("invalid path")

	// ErrReadOnly is returned if write access is requested for a backend that
	// does not support it.
	ErrReadOnly = errors.New("read-only file system")

	// ErrInvalidOffset is returned for negative offsets.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrShortRead is returned if less bytes than requested could be read.
	ErrShortRead = errors.New("short read")

	// ErrShortWrite is returned if less bytes than requested could be
	// written.
	ErrShortWrite = errors.New("short write")

	// ErrNotText is returned if file content is not valid UTF-8.
	ErrNotText = errors.New("content is not valid text")

	// ErrUnknownKind is returned for unsupported backend kinds.
	ErrUnknownKind = errors.New("unknown backend kind")

	// ErrNotInitialized is returned if the default table is used before
	// [Init].
	ErrNotInitialized = errors.New("vfs not initialized")

	// ErrAlreadyInitialized is returned if [Init] is called more than once.
	ErrAlreadyInitialized = errors.New("vfs already initialized")

	// ErrClosed is returned if a file is used after close.
	ErrClosed = fs.ErrClosed
)

// PathError records an error and the operation and file path that caused it.
type PathError = fs.PathError

// MountPointError records a mount table error along with the mount point that
// caused it.
type MountPointError struct {
	Point string
	Err   error
}

// Error implements the [error] interface.
func (e *MountPointError) Error() string {
	if e.Point == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("mount point %q: %v", e.Point, e.Err)
}

// Is implements the [errors.Is] interface.
func (*MountPointError) Is(other error) bool {
	_, ok := other.(*MountPointError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *MountPointError) Unwrap() error {
	return e.Err
}

// IOError records a failed read or write operation of a file object.
type IOError struct {
	Op     string
	Offset int64
	Err    error
}

// Error implements the [error] interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.Op, e.Offset, e.Err)
}

// Is implements the [errors.Is] interface.
func (*IOError) Is(other error) bool {
	_, ok := other.(*IOError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Violation is a mount table rule a [Table] violates.
type Violation int

// Mount table rules checked by [Table.Check].
const (
	NoViolation Violation = iota
	NoRoot
	MultipleRoots
	DuplicateMountPoint
	MalformedMountPoint
)

func (v Violation) String() string {
	switch v {
	case NoViolation:
		return "none"
	case NoRoot:
		return "no root"
	case MultipleRoots:
		return "multiple roots"
	case DuplicateMountPoint:
		return "duplicate mount point"
	case MalformedMountPoint:
		return "malformed mount point"
	default:
		return fmt.Sprintf("violation(%d)", int(v))
	}
}

// ViolationOf returns the [Violation] the given error reports. It returns
// [NoViolation] for nil and for errors not returned by [Table.Check].
func ViolationOf(err error) Violation {
	switch {
	case errors.Is(err, ErrNoRoot):
		return NoRoot
	case errors.Is(err, ErrMultipleRoots):
		return MultipleRoots
	case errors.Is(err, ErrDuplicateMountPoint):
		return DuplicateMountPoint
	case errors.Is(err, ErrMalformedMountPoint):
		return MalformedMountPoint
	default:
		return NoViolation
	}
}
