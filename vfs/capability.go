// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Readable is a file object that can be read.
type Readable interface {
	// ReadAll returns the complete content as text. It fails with
	// [ErrNotText] if the content is not valid UTF-8.
	ReadAll() (string, error)

	// ReadAt reads into p starting at the given absolute offset and returns
	// the number of bytes read. It follows the [io.ReaderAt] contract.
	ReadAt(p []byte, off int64) (int, error)

	// ReadExactAt fills p completely starting at the given offset or fails.
	// A short read is an error wrapping [ErrShortRead].
	ReadExactAt(p []byte, off int64) error
}

// Writable is a file object that can be written.
type Writable interface {
	// Rewrite replaces the complete content with p.
	Rewrite(p []byte) error

	// WriteAt writes p starting at the given absolute offset and returns the
	// number of bytes written. It follows the [io.WriterAt] contract.
	WriteAt(p []byte, off int64) (int, error)

	// WriteAllAt writes p completely starting at the given offset or fails.
	// A short write is an error wrapping [ErrShortWrite].
	WriteAllAt(p []byte, off int64) error
}

// ReadWriter is a file object that can be read and written.
type ReadWriter interface {
	Readable
	Writable
}

// CheckOffset returns an [IOError] for the given operation if the offset is
// negative.
func CheckOffset(op string, off int64) error {
	if off < 0 {
		return &IOError{Op: op, Offset: off, Err: ErrInvalidOffset}
	}

	return nil
}

// ReadExactAt reads len(p) bytes from r at the given offset.
//
// Partial reads are retried as long as they make progress. If p can not be
// filled completely, an [IOError] wrapping [ErrShortRead] is returned.
func ReadExactAt(r io.ReaderAt, p []byte, off int64) error {
	if err := CheckOffset("read", off); err != nil {
		return err
	}

	var total int

	for total < len(p) {
		n, err := r.ReadAt(p[total:], off+int64(total))
		total += n

		if total == len(p) {
			break
		}

		if err != nil {
			return &IOError{
				Op:     "read",
				Offset: off,
				Err:    fmt.Errorf("%w: %d of %d bytes: %w", ErrShortRead, total, len(p), err),
			}
		}

		if n == 0 {
			return &IOError{
				Op:     "read",
				Offset: off,
				Err:    fmt.Errorf("%w: %d of %d bytes", ErrShortRead, total, len(p)),
			}
		}
	}

	return nil
}

// WriteAllAt writes all of p to w at the given offset.
//
// Partial writes are retried as long as they make progress. If p can not be
// written completely, an [IOError] wrapping [ErrShortWrite] is returned.
func WriteAllAt(w io.WriterAt, p []byte, off int64) error {
	if err := CheckOffset("write", off); err != nil {
		return err
	}

	var total int

	for total < len(p) {
		n, err := w.WriteAt(p[total:], off+int64(total))
		total += n

		if total == len(p) {
			break
		}

		if err != nil {
			return &IOError{
				Op:     "write",
				Offset: off,
				Err:    fmt.Errorf("%w: %d of %d bytes: %w", ErrShortWrite, total, len(p), err),
			}
		}

		if n == 0 {
			return &IOError{
				Op:     "write",
				Offset: off,
				Err:    fmt.Errorf("%w: %d of %d bytes", ErrShortWrite, total, len(p)),
			}
		}
	}

	return nil
}

// ReadAllText reads size bytes from r starting at offset 0 and returns them
// as string. It fails with [ErrNotText] if the content is not valid UTF-8.
func ReadAllText(r io.ReaderAt, size int64) (string, error) {
	buf := make([]byte, size)

	if err := ReadExactAt(r, buf, 0); err != nil {
		return "", err
	}

	if !utf8.Valid(buf) {
		return "", &IOError{Op: "read", Err: ErrNotText}
	}

	return string(buf), nil
}
