// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"path"
	"strings"
)

// MaxPathLength is the maximum length of a mount point or lookup path.
const MaxPathLength = 4096

const separator = "/"

// CleanMountPoint returns the canonical form of the given mount point.
//
// Repeated and trailing separators are removed, so "/a", "/a/" and "//a"
// denote the same mount point. Empty and relative paths, paths containing
// NUL bytes and paths with "." or ".." elements are rejected with
// [ErrMalformedMountPoint].
func CleanMountPoint(point string) (string, error) {
	fail := func(reason string) (string, error) {
		return "", &MountPointError{
			Point: point,
			Err:   fmt.Errorf("%w: %s", ErrMalformedMountPoint, reason),
		}
	}

	switch {
	case point == "":
		return fail("empty")
	case len(point) > MaxPathLength:
		return fail("too long")
	case !strings.HasPrefix(point, separator):
		return fail("not absolute")
	case strings.ContainsRune(point, 0):
		return fail("contains NUL")
	}

	for elem := range strings.SplitSeq(point, separator) {
		if elem == "." || elem == ".." {
			return fail("contains " + elem)
		}
	}

	return path.Clean(point), nil
}

// cleanLookupPath cleans a path that is to be resolved. Unlike mount points,
// "." and ".." elements are resolved lexically.
func cleanLookupPath(name string) (string, error) {
	switch {
	case name == "", len(name) > MaxPathLength:
		return "", ErrInvalidPath
	case !strings.HasPrefix(name, separator):
		return "", fmt.Errorf("%w: not absolute", ErrInvalidPath)
	case strings.ContainsRune(name, 0):
		return "", fmt.Errorf("%w: contains NUL", ErrInvalidPath)
	}

	return path.Clean(name), nil
}

// covers reports whether the canonical mount point is a prefix of the
// canonical path on element boundaries.
func covers(point, name string) bool {
	if point == separator || point == name {
		return true
	}

	return strings.HasPrefix(name, point+separator)
}

// relativeName returns the backend relative name of the canonical path
// within the mount at the canonical mount point in [io/fs] form.
func relativeName(point, name string) string {
	rel := strings.TrimPrefix(name, point)
	rel = strings.TrimPrefix(rel, separator)

	if rel == "" {
		return "."
	}

	return rel
}
