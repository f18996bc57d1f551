// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// entry is a single mount of a [Table].
type entry struct {
	mount Mount

	// point is the canonical mount point. It is empty for malformed mount
	// points.
	point string

	// id identifies the mounted instance.
	id uuid.UUID

	// writable is set if the backend supports writing.
	writable WritableBackend

	// refs counts the handles currently held for this mount.
	refs atomic.Int64
}

func newEntry(mount Mount) *entry {
	point, err := CleanMountPoint(mount.Point)
	if err != nil {
		point = ""
	}

	writable, _ := mount.Backend.(WritableBackend)

	return &entry{
		mount:    mount,
		point:    point,
		id:       uuid.New(),
		writable: writable,
	}
}

// Table is the mount table of the VFS.
//
// It keeps the mounts in the order given. A Table must pass [Table.Check]
// before paths can be resolved. It is safe for concurrent use.
type Table struct {
	mu        sync.RWMutex
	entries   []*entry
	validated bool
}

// NewTable creates a new [Table] with the given mounts.
//
// The table is not validated. Call [Table.Check] before using it.
func NewTable(mounts ...Mount) *Table {
	entries := make([]*entry, 0, len(mounts))
	for _, mount := range mounts {
		entries = append(entries, newEntry(mount))
	}

	return &Table{
		entries: entries,
	}
}

// Mounts returns the mounts in insertion order.
func (t *Table) Mounts() []Mount {
	t.mu.RLock()
	defer t.mu.RUnlock()

	mounts := make([]Mount, 0, len(t.entries))
	for _, e := range t.entries {
		mounts = append(mounts, e.mount)
	}

	return mounts
}

// Len returns the number of mounts.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.entries)
}

// Check checks that the table forms a valid mount hierarchy.
//
// All mount points must be well-formed (see [CleanMountPoint]), exactly one
// mount must be at "/" and no two mounts may have the same canonical mount
// point. The result does not depend on the order of the mounts. The
// insertion order is not changed.
//
// Errors are [MountPointError]s wrapping [ErrMalformedMountPoint],
// [ErrNoRoot], [ErrMultipleRoots] or [ErrDuplicateMountPoint]. Use
// [ViolationOf] to get the violated rule.
func (t *Table) Check() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := check(t.entries)
	t.validated = err == nil

	return err
}

// Valid returns true if [Table.Check] succeeds.
func (t *Table) Valid() bool {
	return t.Check() == nil
}

func check(entries []*entry) error {
	points := make([]string, 0, len(entries))
	for _, e := range entries {
		points = append(points, e.mount.Point)
	}

	// Sort the raw points first, so the reported error does not depend on
	// the insertion order.
	slices.Sort(points)

	for idx, point := range points {
		cleaned, err := CleanMountPoint(point)
		if err != nil {
			return err
		}

		points[idx] = cleaned
	}

	var roots int

	for _, point := range points {
		if point == separator {
			roots++
		}
	}

	switch {
	case roots == 0:
		return &MountPointError{Err: ErrNoRoot}
	case roots > 1:
		return &MountPointError{Point: separator, Err: ErrMultipleRoots}
	}

	slices.Sort(points)

	deduplicated := slices.Compact(slices.Clone(points))
	if len(deduplicated) == len(points) {
		return nil
	}

	for idx := 1; idx < len(points); idx++ {
		if points[idx] == points[idx-1] {
			return &MountPointError{Point: points[idx], Err: ErrDuplicateMountPoint}
		}
	}

	return &MountPointError{Err: ErrDuplicateMountPoint}
}

// Mount adds a new mount to the table.
//
// The resulting table is checked. If the check fails the table is left
// unchanged and the error is returned.
func (t *Table) Mount(mount Mount) error {
	if mount.Backend == nil {
		return &MountPointError{Point: mount.Point, Err: ErrNoBackend}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	candidate := append(slices.Clone(t.entries), newEntry(mount))

	err := check(candidate)
	if err != nil {
		return err
	}

	t.entries = candidate
	t.validated = true

	slog.Debug("Mounted",
		slog.String("point", mount.Point),
		slog.String("kind", mount.Backend.Kind().String()))

	return nil
}

// Unmount removes the mount at the given mount point from the table.
//
// It fails with [ErrMountBusy] as long as any [Handle] of the mount is held
// and with [ErrNotMounted] if there is no such mount. The root mount can not
// be removed, as the resulting table would not pass the check. The backend is
// closed if it implements [io.Closer].
func (t *Table) Unmount(point string) error {
	cleaned, err := CleanMountPoint(point)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := slices.IndexFunc(t.entries, func(e *entry) bool {
		return e.point == cleaned
	})
	if idx < 0 {
		return &MountPointError{Point: point, Err: ErrNotMounted}
	}

	removed := t.entries[idx]
	if refs := removed.refs.Load(); refs > 0 {
		return &MountPointError{
			Point: point,
			Err:   fmt.Errorf("%w: %d handles held", ErrMountBusy, refs),
		}
	}

	candidate := slices.Delete(slices.Clone(t.entries), idx, idx+1)

	err = check(candidate)
	if err != nil {
		return err
	}

	t.entries = candidate
	t.validated = true

	slog.Debug("Unmounted", slog.String("point", cleaned))

	return closeBackend(removed.mount)
}

// Close closes all backends that implement [io.Closer] in reverse insertion
// order and removes their mounts. Mounts with held handles are kept and
// reported with [ErrMountBusy], so Close can be called again once they are
// released. The table is invalid afterwards.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var (
		errs []error
		busy []*entry
	)

	for _, e := range slices.Backward(t.entries) {
		if refs := e.refs.Load(); refs > 0 {
			busy = append(busy, e)
			errs = append(errs, &MountPointError{
				Point: e.mount.Point,
				Err:   fmt.Errorf("%w: %d handles held", ErrMountBusy, refs),
			})

			continue
		}

		if err := closeBackend(e.mount); err != nil {
			errs = append(errs, err)
		}
	}

	slices.Reverse(busy)

	t.entries = busy
	t.validated = false

	return errors.Join(errs...)
}

func closeBackend(mount Mount) error {
	closer, ok := mount.Backend.(io.Closer)
	if !ok {
		return nil
	}

	if err := closer.Close(); err != nil {
		return &MountPointError{Point: mount.Point, Err: fmt.Errorf("close: %w", err)}
	}

	return nil
}
