// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package vfs provides the virtual file system layer of the kernel. It maps
// mount points to file system backends and defines the capabilities file
// objects of a backend must provide to be accessible through the VFS.
//
// A [Table] is created once from the boot configuration with [NewTable] and
// must be checked with [Table.Check] before it is used:
//
//	table := vfs.NewTable(
//		vfs.Mount{Point: "/", Backend: memfs.New()},
//		vfs.Mount{Point: "/boot", Backend: rom},
//	)
//
//	if err := vfs.Init(table); err != nil {
//		// Halt boot or continue with a root only table.
//	}
//
// A valid table has exactly one root mount at "/" and no two mounts at the
// same point. Mount points are compared in canonical form, see
// [CleanMountPoint].
//
// File objects implement [Readable] and, for backends that support writing,
// [Writable]. Read-only backends only implement [Backend], write access to
// them is rejected with [ErrReadOnly] without opening anything.
//
// Paths are resolved to the mount with the longest matching mount point.
// The resulting [Handle] pins the mount, so it can not be unmounted while
// the handle or any file opened through it is in use.
package vfs
