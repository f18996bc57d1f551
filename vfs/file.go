// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"io"
	"sync/atomic"
)

// openFile ties a backend file object to the handle of its mount.
type openFile struct {
	handle *Handle
	file   any
	closed atomic.Bool
}

// Close closes the file object, if it implements [io.Closer], and releases
// the mount. Subsequent calls return [ErrClosed].
func (f *openFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	defer f.handle.Release()

	closer, ok := f.file.(io.Closer)
	if !ok {
		return nil
	}

	return closer.Close() //nolint:wrapcheck
}

// MountPoint returns the canonical mount point of the mount the file was
// opened from.
func (f *openFile) MountPoint() string {
	return f.handle.MountPoint()
}

// usable fails with an [IOError] wrapping [ErrClosed] once the file is
// closed, so no I/O reaches a released backend file.
func (f *openFile) usable(op string) error {
	if f.closed.Load() {
		return &IOError{Op: op, Err: ErrClosed}
	}

	return nil
}

// ReadOnlyFile is a file opened with [Table.Open].
type ReadOnlyFile struct {
	Readable
	openFile
}

// ReadAll implements [Readable].
func (f *ReadOnlyFile) ReadAll() (string, error) {
	if err := f.usable("read"); err != nil {
		return "", err
	}

	return f.Readable.ReadAll() //nolint:wrapcheck
}

// ReadAt implements [Readable].
func (f *ReadOnlyFile) ReadAt(p []byte, off int64) (int, error) {
	if err := f.usable("read"); err != nil {
		return 0, err
	}

	return f.Readable.ReadAt(p, off) //nolint:wrapcheck
}

// ReadExactAt implements [Readable].
func (f *ReadOnlyFile) ReadExactAt(p []byte, off int64) error {
	if err := f.usable("read"); err != nil {
		return err
	}

	return f.Readable.ReadExactAt(p, off) //nolint:wrapcheck
}

// ReadWriteFile is a file opened with [Table.OpenWritable].
type ReadWriteFile struct {
	ReadWriter
	openFile
}

// ReadAll implements [Readable].
func (f *ReadWriteFile) ReadAll() (string, error) {
	if err := f.usable("read"); err != nil {
		return "", err
	}

	return f.ReadWriter.ReadAll() //nolint:wrapcheck
}

// ReadAt implements [Readable].
func (f *ReadWriteFile) ReadAt(p []byte, off int64) (int, error) {
	if err := f.usable("read"); err != nil {
		return 0, err
	}

	return f.ReadWriter.ReadAt(p, off) //nolint:wrapcheck
}

// ReadExactAt implements [Readable].
func (f *ReadWriteFile) ReadExactAt(p []byte, off int64) error {
	if err := f.usable("read"); err != nil {
		return err
	}

	return f.ReadWriter.ReadExactAt(p, off) //nolint:wrapcheck
}

// Rewrite implements [Writable].
func (f *ReadWriteFile) Rewrite(p []byte) error {
	if err := f.usable("rewrite"); err != nil {
		return err
	}

	return f.ReadWriter.Rewrite(p) //nolint:wrapcheck
}

// WriteAt implements [Writable].
func (f *ReadWriteFile) WriteAt(p []byte, off int64) (int, error) {
	if err := f.usable("write"); err != nil {
		return 0, err
	}

	return f.ReadWriter.WriteAt(p, off) //nolint:wrapcheck
}

// WriteAllAt implements [Writable].
func (f *ReadWriteFile) WriteAllAt(p []byte, off int64) error {
	if err := f.usable("write"); err != nil {
		return err
	}

	return f.ReadWriter.WriteAllAt(p, off) //nolint:wrapcheck
}

// Open resolves the given path and opens the file for reading.
//
// The mount stays pinned until the file is closed. Errors are [PathError]s.
func (t *Table) Open(name string) (*ReadOnlyFile, error) {
	handle, err := t.Resolve(name)
	if err != nil {
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}

	backend := handle.Backend()
	if backend == nil {
		handle.Release()
		return nil, &PathError{Op: "open", Path: name, Err: ErrNoBackend}
	}

	file, err := backend.Open(handle.Name())
	if err != nil {
		handle.Release()
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}

	return &ReadOnlyFile{
		Readable: file,
		openFile: openFile{handle: handle, file: file},
	}, nil
}

// OpenWritable resolves the given path and opens the file for reading and
// writing. If create is true, the file is created if it does not exist.
//
// It fails with [ErrReadOnly] if the backend does not support writing. The
// mount stays pinned until the file is closed. Errors are [PathError]s.
func (t *Table) OpenWritable(name string, create bool) (*ReadWriteFile, error) {
	handle, err := t.Resolve(name)
	if err != nil {
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}

	backend, ok := handle.Writable()
	if !ok {
		handle.Release()
		return nil, &PathError{Op: "open", Path: name, Err: ErrReadOnly}
	}

	file, err := backend.OpenWritable(handle.Name(), create)
	if err != nil {
		handle.Release()
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}

	return &ReadWriteFile{
		ReadWriter: file,
		openFile:   openFile{handle: handle, file: file},
	}, nil
}
