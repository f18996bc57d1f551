// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"strings"
)

// Kind is a file system backend kind.
type Kind string

// Supported backend kinds.
const (
	// KindMem is a volatile in-memory file system.
	KindMem Kind = "mem"
	// KindROM is a read-only image file system.
	KindROM Kind = "rom"
	// KindHost is a file system backed by a directory of the host.
	KindHost Kind = "host"
)

// Kinds returns all supported backend kinds.
func Kinds() []Kind {
	return []Kind{KindMem, KindROM, KindHost}
}

// String implements [fmt.Stringer].
func (k Kind) String() string {
	return string(k)
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler]. It fails with
// [ErrUnknownKind] for kinds not returned by [Kinds].
func (k *Kind) UnmarshalText(text []byte) error {
	kind := Kind(strings.ToLower(string(text)))

	switch kind {
	case KindMem, KindROM, KindHost:
		*k = kind
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, text)
	}
}

// Backend is a mountable file system.
//
// Names passed to Open are backend relative and valid as defined by
// [io/fs.ValidPath]. File objects returned may implement [io.Closer].
type Backend interface {
	Kind() Kind
	Open(name string) (Readable, error)
}

// WritableBackend is a [Backend] that supports writing.
//
// If create is true, OpenWritable creates the file if it does not exist.
type WritableBackend interface {
	Backend
	OpenWritable(name string, create bool) (ReadWriter, error)
}

// Mount describes a single mounted file system by its mount point.
//
// Mounts are identified and ordered by their mount point string only.
type Mount struct {
	Point   string
	Backend Backend
}

// IsRoot returns true if the mount is the root mount.
func (m Mount) IsRoot() bool {
	return m.Point == separator
}

// String implements [fmt.Stringer].
func (m Mount) String() string {
	if m.Backend == nil {
		return m.Point + " (none)"
	}

	return m.Point + " (" + m.Backend.Kind().String() + ")"
}

// CompareMounts compares the mount points of the given mounts
// lexicographically. It can be used with [slices.SortFunc].
func CompareMounts(a, b Mount) int {
	return strings.Compare(a.Point, b.Point)
}
