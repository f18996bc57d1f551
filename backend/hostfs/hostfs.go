// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hostfs provides a file system backend that passes through to a
// directory of the host.
//
// Files are plain descriptors opened relative to the directory's descriptor.
// All I/O uses pread(2) and pwrite(2), so file objects carry no offset state.
package hostfs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aibor/neutron/ktime"
	"github.com/aibor/neutron/vfs"
	"golang.org/x/sys/unix"
)

const createPerm = 0o644

var (
	// ErrNotDir is returned if the source of an [FS] is not a directory.
	ErrNotDir = errors.New("not a directory")

	// ErrOutside is returned if a name resolves to a file outside of the
	// directory of the [FS], for example by a symbolic link.
	ErrOutside = errors.New("path escapes directory")
)

var (
	_ vfs.WritableBackend = (*FS)(nil)
	_ vfs.Backend         = (*ReadOnlyFS)(nil)
	_ vfs.ReadWriter      = (*file)(nil)
)

// Info describes a file.
type Info struct {
	Name     string
	Size     int64
	Modified ktime.Timestamp
}

// FS is a writable [vfs.WritableBackend] for a host directory. Close it to
// release the directory descriptor.
type FS struct {
	dir    string
	dirfd  int
	closed atomic.Bool
}

// New opens the given host directory as [FS].
func New(dir string) (*FS, error) {
	dirfd, err := unix.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENOTDIR) {
			err = ErrNotDir
		}

		return nil, &vfs.PathError{Op: "open", Path: dir, Err: err}
	}

	return &FS{dir: dir, dirfd: dirfd}, nil
}

// Kind implements [vfs.Backend].
func (*FS) Kind() vfs.Kind {
	return vfs.KindHost
}

// Dir returns the host directory.
func (fsys *FS) Dir() string {
	return fsys.dir
}

// Open implements [vfs.Backend].
func (fsys *FS) Open(name string) (vfs.Readable, error) {
	return fsys.open("open", name, unix.O_RDONLY)
}

// OpenWritable implements [vfs.WritableBackend].
func (fsys *FS) OpenWritable(name string, create bool) (vfs.ReadWriter, error) {
	flags := unix.O_RDWR
	if create {
		flags |= unix.O_CREAT
	}

	return fsys.open("open", name, flags)
}

// Stat returns the [Info] for the file with the given name.
func (fsys *FS) Stat(name string) (Info, error) {
	if err := fsys.checkName("stat", name); err != nil {
		return Info{}, err
	}

	fd, err := fsys.openBeneath(name, unix.O_PATH)
	if err != nil {
		return Info{}, &vfs.PathError{Op: "stat", Path: name, Err: err}
	}
	defer unix.Close(fd)

	var stat unix.Stat_t

	if err := unix.Fstat(fd, &stat); err != nil {
		return Info{}, &vfs.PathError{Op: "stat", Path: name, Err: err}
	}

	return Info{
		Name:     name,
		Size:     stat.Size,
		Modified: ktime.FromTime(time.Unix(stat.Mtim.Unix())),
	}, nil
}

// Close releases the directory descriptor. Files opened before stay usable.
func (fsys *FS) Close() error {
	if !fsys.closed.CompareAndSwap(false, true) {
		return vfs.ErrClosed
	}

	if err := unix.Close(fsys.dirfd); err != nil {
		return fmt.Errorf("close %s: %w", fsys.dir, err)
	}

	return nil
}

func (fsys *FS) checkName(op, name string) error {
	if name == "." || !fs.ValidPath(name) {
		return &vfs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}

	if fsys.closed.Load() {
		return &vfs.PathError{Op: op, Path: name, Err: vfs.ErrClosed}
	}

	return nil
}

func (fsys *FS) open(op, name string, flags int) (*file, error) {
	if err := fsys.checkName(op, name); err != nil {
		return nil, err
	}

	fd, err := fsys.openBeneath(name, flags)
	if err != nil {
		return nil, &vfs.PathError{Op: op, Path: name, Err: err}
	}

	var stat unix.Stat_t

	if err := unix.Fstat(fd, &stat); err != nil {
		_ = unix.Close(fd)
		return nil, &vfs.PathError{Op: op, Path: name, Err: err}
	}

	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		_ = unix.Close(fd)
		return nil, &vfs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}

	return &file{fd: fd, name: name}, nil
}

// openBeneath opens name relative to the directory descriptor. Resolution
// must not leave the directory, symbolic links included. Without openat2(2)
// no symbolic link is followed at all.
func (fsys *FS) openBeneath(name string, flags int) (int, error) {
	how := unix.OpenHow{
		Flags:   uint64(flags | unix.O_CLOEXEC), //nolint:gosec
		Resolve: unix.RESOLVE_BENEATH | unix.RESOLVE_NO_MAGICLINKS,
	}

	// The kernel rejects a mode without O_CREAT.
	if flags&unix.O_CREAT != 0 {
		how.Mode = createPerm
	}

	fd, err := unix.Openat2(fsys.dirfd, name, &how)

	switch {
	case err == nil:
		return fd, nil
	case errors.Is(err, unix.EXDEV):
		return -1, ErrOutside
	case errors.Is(err, unix.ENOSYS):
		return fsys.openNoFollow(name, flags)
	default:
		return -1, err
	}
}

// openNoFollow walks name component by component and refuses symbolic links
// on every level.
func (fsys *FS) openNoFollow(name string, flags int) (int, error) {
	components := strings.Split(name, "/")
	last := len(components) - 1
	dirfd := fsys.dirfd

	for _, component := range components[:last] {
		fd, err := unix.Openat(dirfd, component,
			unix.O_PATH|unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
		if err != nil && isSymlink(dirfd, component) {
			err = ErrOutside
		}

		if dirfd != fsys.dirfd {
			_ = unix.Close(dirfd)
		}

		if err != nil {
			return -1, err
		}

		dirfd = fd
	}

	// O_PATH opens a link itself instead of failing.
	if isSymlink(dirfd, components[last]) {
		if dirfd != fsys.dirfd {
			_ = unix.Close(dirfd)
		}

		return -1, ErrOutside
	}

	fd, err := unix.Openat(dirfd, components[last], flags|unix.O_NOFOLLOW|unix.O_CLOEXEC, createPerm)
	if dirfd != fsys.dirfd {
		_ = unix.Close(dirfd)
	}

	if err != nil {
		return -1, noFollowError(err)
	}

	return fd, nil
}

func isSymlink(dirfd int, name string) bool {
	var stat unix.Stat_t

	err := unix.Fstatat(dirfd, name, &stat, unix.AT_SYMLINK_NOFOLLOW)

	return err == nil && stat.Mode&unix.S_IFMT == unix.S_IFLNK
}

// noFollowError maps the error O_NOFOLLOW raises for symbolic links.
func noFollowError(err error) error {
	if errors.Is(err, unix.ELOOP) {
		return ErrOutside
	}

	return err
}

// ReadOnlyFS exposes only the read capability of an [FS].
type ReadOnlyFS struct {
	fsys *FS
}

// NewReadOnly opens the given host directory as [ReadOnlyFS].
func NewReadOnly(dir string) (*ReadOnlyFS, error) {
	fsys, err := New(dir)
	if err != nil {
		return nil, err
	}

	return &ReadOnlyFS{fsys}, nil
}

// Kind implements [vfs.Backend].
func (r *ReadOnlyFS) Kind() vfs.Kind {
	return r.fsys.Kind()
}

// Open implements [vfs.Backend].
func (r *ReadOnlyFS) Open(name string) (vfs.Readable, error) {
	return r.fsys.Open(name)
}

// Stat returns the [Info] for the file with the given name.
func (r *ReadOnlyFS) Stat(name string) (Info, error) {
	return r.fsys.Stat(name)
}

// Close releases the directory descriptor.
func (r *ReadOnlyFS) Close() error {
	return r.fsys.Close()
}
