// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostfs

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/aibor/neutron/vfs"
	"golang.org/x/sys/unix"
)

type file struct {
	fd     int
	name   string
	closed atomic.Bool
}

// usable fails once the file is closed, since the descriptor number may
// already belong to another file.
func (f *file) usable(op string) error {
	if f.closed.Load() {
		return &vfs.IOError{Op: op, Err: vfs.ErrClosed}
	}

	return nil
}

func (f *file) size() (int64, error) {
	if err := f.usable("stat"); err != nil {
		return 0, err
	}

	var stat unix.Stat_t

	if err := unix.Fstat(f.fd, &stat); err != nil {
		return 0, fmt.Errorf("fstat %s: %w", f.name, err)
	}

	return stat.Size, nil
}

func (f *file) ReadAll() (string, error) {
	size, err := f.size()
	if err != nil {
		return "", err
	}

	return vfs.ReadAllText(f, size)
}

// ReadAt reads until p is full or the end of the file is reached.
func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if err := vfs.CheckOffset("read", off); err != nil {
		return 0, err
	}

	if err := f.usable("read"); err != nil {
		return 0, err
	}

	var total int

	for total < len(p) {
		n, err := unix.Pread(f.fd, p[total:], off+int64(total))
		if err != nil {
			if err == unix.EINTR { //nolint:errorlint
				continue
			}

			return total, &vfs.IOError{Op: "read", Offset: off, Err: err}
		}

		if n == 0 {
			return total, io.EOF
		}

		total += n
	}

	return total, nil
}

func (f *file) ReadExactAt(p []byte, off int64) error {
	return vfs.ReadExactAt(f, p, off)
}

func (f *file) Rewrite(p []byte) error {
	if err := f.usable("rewrite"); err != nil {
		return err
	}

	if err := unix.Ftruncate(f.fd, 0); err != nil {
		return &vfs.IOError{Op: "rewrite", Err: err}
	}

	return f.WriteAllAt(p, 0)
}

func (f *file) WriteAt(p []byte, off int64) (int, error) {
	if err := vfs.CheckOffset("write", off); err != nil {
		return 0, err
	}

	if err := f.usable("write"); err != nil {
		return 0, err
	}

	n, err := unix.Pwrite(f.fd, p, off)
	if err != nil {
		return max(n, 0), &vfs.IOError{Op: "write", Offset: off, Err: err}
	}

	if n < len(p) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

func (f *file) WriteAllAt(p []byte, off int64) error {
	return vfs.WriteAllAt(f, p, off)
}

// Close closes the descriptor. Subsequent calls return [vfs.ErrClosed].
func (f *file) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return vfs.ErrClosed
	}

	if err := unix.Close(f.fd); err != nil {
		return fmt.Errorf("close %s: %w", f.name, err)
	}

	return nil
}
