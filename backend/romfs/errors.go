// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package romfs

import (
	"errors"
	"fmt"
)

var (
	// ErrSymlinkTooDeep is returned if resolving a symbolic link exceeds the
	// maximum number of indirections.
	ErrSymlinkTooDeep = errors.New("too many levels of symbolic links")

	// ErrUnsupportedType is returned for image entries or source files of a
	// type the image format does not support.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrNotReadLinkFS is returned if a source [fs.FS] contains symbolic
	// links but can not read them.
	ErrNotReadLinkFS = errors.New("file system does not support reading links")

	// ErrUnsupportedCompression is returned for unknown [Compression] values.
	ErrUnsupportedCompression = errors.New("unsupported compression")
)

// ImageError wraps errors that occur while reading or writing an image.
type ImageError struct {
	Op   string
	Name string
	Err  error
}

func (e *ImageError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("image %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("image %s %s: %v", e.Op, e.Name, e.Err)
}

// Is matches other [ImageError] with the same operation.
func (e *ImageError) Is(other error) bool {
	otherErr, ok := other.(*ImageError)
	if !ok {
		return false
	}

	return e.Op == otherErr.Op
}

func (e *ImageError) Unwrap() error {
	return e.Err
}
