// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Handle is a resolved path. It pins the mount the path was resolved to, so
// the mount stays valid until [Handle.Release] is called.
type Handle struct {
	entry    *entry
	path     string
	name     string
	released atomic.Bool
}

// Resolve returns the [Handle] for the mount with the longest mount point
// that contains the given absolute path.
//
// "." and ".." elements of the path are resolved lexically. The table must
// have passed [Table.Check], otherwise [ErrNotValidated] is returned. The
// caller must call [Handle.Release] once done.
func (t *Table) Resolve(name string) (*Handle, error) {
	cleaned, err := cleanLookupPath(name)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.validated {
		return nil, ErrNotValidated
	}

	var best *entry

	for _, e := range t.entries {
		if !covers(e.point, cleaned) {
			continue
		}

		if best == nil || len(e.point) > len(best.point) {
			best = e
		}
	}

	if best == nil {
		return nil, ErrNotMounted
	}

	best.refs.Add(1)

	return &Handle{
		entry: best,
		path:  cleaned,
		name:  relativeName(best.point, cleaned),
	}, nil
}

// Release releases the mount pinned by the handle. It is safe to call more
// than once.
func (h *Handle) Release() {
	if h.released.CompareAndSwap(false, true) {
		h.entry.refs.Add(-1)
	}
}

// Path returns the canonical absolute path.
func (h *Handle) Path() string {
	return h.path
}

// Name returns the path relative to the mount point in [io/fs] form. It is
// "." for the mount point itself.
func (h *Handle) Name() string {
	return h.name
}

// MountPoint returns the canonical mount point of the mount.
func (h *Handle) MountPoint() string {
	return h.entry.point
}

// MountID returns the ID of the mounted instance. It differs for each mount,
// even at the same mount point.
func (h *Handle) MountID() uuid.UUID {
	return h.entry.id
}

// Backend returns the backend of the mount.
func (h *Handle) Backend() Backend {
	return h.entry.mount.Backend
}

// Writable returns the backend of the mount if it supports writing.
func (h *Handle) Writable() (WritableBackend, bool) {
	return h.entry.writable, h.entry.writable != nil
}
