// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package memfs provides a volatile in-memory file system backend.
//
// Files live in a flat namespace of [io/fs] valid names. Each write stamps the
// file with the current [ktime.Timestamp].
package memfs

import (
	"errors"
	"io/fs"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/aibor/neutron/ktime"
	"github.com/aibor/neutron/vfs"
)

// ErrNoSpace is returned if a write exceeds the maximum file size.
var ErrNoSpace = errors.New("no space left")

// DefaultMaxFileSize is the size limit of each file unless
// [WithMaxFileSize] sets another one.
const DefaultMaxFileSize = 1 << 30

var (
	_ vfs.WritableBackend = (*FS)(nil)
	_ vfs.ReadWriter      = (*file)(nil)
)

// Option configures an [FS].
type Option func(*FS)

// WithClock sets the time source used to stamp files.
func WithClock(now func() time.Time) Option {
	return func(fsys *FS) {
		fsys.now = func() ktime.Timestamp {
			return ktime.FromTime(now())
		}
	}
}

// WithTimestamp stamps all files with the given fixed timestamp. It is
// intended for systems without a real time clock.
func WithTimestamp(ts ktime.Timestamp) Option {
	return func(fsys *FS) {
		fsys.now = func() ktime.Timestamp {
			return ts
		}
	}
}

// WithMaxFileSize limits the size of each file. Writes beyond the limit fail
// with [ErrNoSpace]. Zero or less selects [DefaultMaxFileSize].
func WithMaxFileSize(size int64) Option {
	return func(fsys *FS) {
		if size <= 0 {
			size = DefaultMaxFileSize
		}

		fsys.maxSize = size
	}
}

// Info describes a file.
type Info struct {
	Name     string
	Size     int64
	Modified ktime.Timestamp
}

// FS is an in-memory [vfs.WritableBackend]. It is safe for concurrent use.
type FS struct {
	mu      sync.RWMutex
	files   map[string]*file
	now     func() ktime.Timestamp
	maxSize int64
}

// New creates a new empty [FS].
func New(opts ...Option) *FS {
	fsys := &FS{
		files: make(map[string]*file),
		now: func() ktime.Timestamp {
			return ktime.FromTime(time.Now())
		},
		maxSize: DefaultMaxFileSize,
	}

	for _, opt := range opts {
		opt(fsys)
	}

	return fsys
}

// Kind implements [vfs.Backend].
func (*FS) Kind() vfs.Kind {
	return vfs.KindMem
}

// Open implements [vfs.Backend].
func (fsys *FS) Open(name string) (vfs.Readable, error) {
	file, err := fsys.lookup("open", name)
	if err != nil {
		return nil, err
	}

	return file, nil
}

// OpenWritable implements [vfs.WritableBackend].
func (fsys *FS) OpenWritable(name string, create bool) (vfs.ReadWriter, error) {
	if !create {
		file, err := fsys.lookup("open", name)
		if err != nil {
			return nil, err
		}

		return file, nil
	}

	if err := validName("open", name); err != nil {
		return nil, err
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	existing, exists := fsys.files[name]
	if exists {
		return existing, nil
	}

	file := fsys.newFile(nil)
	fsys.files[name] = file

	return file, nil
}

// Add creates a new file with the given content. It fails with
// [fs.ErrExist] if the file exists already.
func (fsys *FS) Add(name string, data []byte) error {
	if err := validName("add", name); err != nil {
		return err
	}

	if int64(len(data)) > fsys.maxSize {
		return &vfs.PathError{Op: "add", Path: name, Err: ErrNoSpace}
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	if _, exists := fsys.files[name]; exists {
		return &vfs.PathError{Op: "add", Path: name, Err: fs.ErrExist}
	}

	fsys.files[name] = fsys.newFile(slices.Clone(data))

	return nil
}

// Remove removes the file with the given name. Open file objects stay
// usable, but are detached from the file system.
func (fsys *FS) Remove(name string) error {
	if err := validName("remove", name); err != nil {
		return err
	}

	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	if _, exists := fsys.files[name]; !exists {
		return &vfs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}

	delete(fsys.files, name)

	return nil
}

// Names returns the names of all files in lexicographic order.
func (fsys *FS) Names() []string {
	fsys.mu.RLock()
	defer fsys.mu.RUnlock()

	return slices.Sorted(maps.Keys(fsys.files))
}

// Stat returns the [Info] for the file with the given name.
func (fsys *FS) Stat(name string) (Info, error) {
	file, err := fsys.lookup("stat", name)
	if err != nil {
		return Info{}, err
	}

	file.mu.RLock()
	defer file.mu.RUnlock()

	return Info{
		Name:     name,
		Size:     int64(len(file.data)),
		Modified: file.modified,
	}, nil
}

func (fsys *FS) newFile(data []byte) *file {
	return &file{
		data:     data,
		modified: fsys.now(),
		now:      fsys.now,
		maxSize:  fsys.maxSize,
	}
}

func (fsys *FS) lookup(op, name string) (*file, error) {
	if err := validName(op, name); err != nil {
		return nil, err
	}

	fsys.mu.RLock()
	defer fsys.mu.RUnlock()

	file, exists := fsys.files[name]
	if !exists {
		return nil, &vfs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}

	return file, nil
}

func validName(op, name string) error {
	if name == "." || !fs.ValidPath(name) {
		return &vfs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}

	return nil
}
