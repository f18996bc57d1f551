// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package memfs

import (
	"io"
	"math"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/aibor/neutron/ktime"
	"github.com/aibor/neutron/vfs"
)

type file struct {
	mu       sync.RWMutex
	data     []byte
	modified ktime.Timestamp
	now      func() ktime.Timestamp
	maxSize  int64
}

func (f *file) ReadAll() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !utf8.Valid(f.data) {
		return "", &vfs.IOError{Op: "read", Err: vfs.ErrNotText}
	}

	return string(f.data), nil
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if err := vfs.CheckOffset("read", off); err != nil {
		return 0, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}

	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (f *file) ReadExactAt(p []byte, off int64) error {
	return vfs.ReadExactAt(f, p, off)
}

func (f *file) Rewrite(p []byte) error {
	if int64(len(p)) > f.maxSize {
		return &vfs.IOError{Op: "rewrite", Err: ErrNoSpace}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.data = slices.Clone(p)
	f.modified = f.now()

	return nil
}

// WriteAt writes p at the given offset. The file grows as needed, gaps are
// filled with zeros. If the maximum file size is reached, the bytes that fit
// are written and [ErrNoSpace] is returned.
func (f *file) WriteAt(p []byte, off int64) (int, error) {
	if err := vfs.CheckOffset("write", off); err != nil {
		return 0, err
	}

	if off > math.MaxInt64-int64(len(p)) {
		return 0, &vfs.IOError{Op: "write", Offset: off, Err: vfs.ErrInvalidOffset}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var err error

	end := off + int64(len(p))
	if end > f.maxSize {
		if off >= f.maxSize {
			return 0, &vfs.IOError{Op: "write", Offset: off, Err: ErrNoSpace}
		}

		end = f.maxSize
		p = p[:end-off]
		err = &vfs.IOError{Op: "write", Offset: off, Err: ErrNoSpace}
	}

	if end > int64(len(f.data)) {
		f.data = append(f.data, make([]byte, end-int64(len(f.data)))...)
	}

	n := copy(f.data[off:end], p)
	f.modified = f.now()

	return n, err
}

func (f *file) WriteAllAt(p []byte, off int64) error {
	return vfs.WriteAllAt(f, p, off)
}
