// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package romfs provides a read-only file system backend loaded from a newc
// cpio image, the same format the Linux kernel uses for initramfs archives.
// Images may be compressed with gzip, zstd or lz4.
//
// Only regular files and symbolic links are kept. Directories are implicit.
// Use [Write] to create images from any [fs.FS].
package romfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/aibor/neutron/ktime"
	"github.com/aibor/neutron/vfs"
	"github.com/cavaliergopher/cpio"
)

const (
	symlinkDepth = 10
	typeMask     = cpio.FileMode(0o170000)
)

var (
	_ vfs.Backend  = (*FS)(nil)
	_ vfs.Readable = (*file)(nil)
)

// Info describes a file of the image.
type Info struct {
	Name     string
	Size     int64
	Modified ktime.Timestamp
}

// FS is an immutable [vfs.Backend]. It is safe for concurrent use.
type FS struct {
	files map[string]*file
	links map[string]string
}

// Load reads a complete image from r. Images compressed with gzip, zstd or
// lz4 are detected by their magic bytes and decompressed on the fly.
func Load(r io.Reader) (*FS, error) {
	fsys := &FS{
		files: make(map[string]*file),
		links: make(map[string]string),
	}

	decompressed, done, err := decompress(r)
	if err != nil {
		return nil, &ImageError{Op: "decompress", Err: err}
	}
	defer done()

	reader := cpio.NewReader(decompressed)

	for {
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, &ImageError{Op: "read", Err: err}
		}

		name := cleanName(hdr.Name)

		switch hdr.Mode & typeMask {
		case cpio.TypeDir:
			continue
		case cpio.TypeSymlink:
			if name == "." {
				return nil, &ImageError{Op: "read", Name: hdr.Name, Err: fs.ErrInvalid}
			}

			fsys.links[name] = hdr.Linkname
		case cpio.TypeReg:
			if name == "." {
				return nil, &ImageError{Op: "read", Name: hdr.Name, Err: fs.ErrInvalid}
			}

			data, err := io.ReadAll(reader)
			if err != nil {
				return nil, &ImageError{Op: "read", Name: hdr.Name, Err: err}
			}

			fsys.files[name] = &file{
				reader:   bytes.NewReader(data),
				data:     data,
				modified: ktime.FromTime(hdr.ModTime),
			}
		default:
			return nil, &ImageError{Op: "read", Name: hdr.Name, Err: ErrUnsupportedType}
		}
	}

	return fsys, nil
}

// LoadFile reads a complete image from the file at the given host path.
func LoadFile(name string) (*FS, error) {
	imageFile, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer imageFile.Close()

	return Load(imageFile)
}

// Kind implements [vfs.Backend].
func (*FS) Kind() vfs.Kind {
	return vfs.KindROM
}

// Open implements [vfs.Backend]. Symbolic links are followed.
func (fsys *FS) Open(name string) (vfs.Readable, error) {
	file, err := fsys.lookup("open", name)
	if err != nil {
		return nil, err
	}

	return file, nil
}

// Names returns the names of all regular files in lexicographic order.
func (fsys *FS) Names() []string {
	return slices.Sorted(maps.Keys(fsys.files))
}

// Stat returns the [Info] for the file with the given name. Symbolic links
// are followed, the returned name is the one asked for.
func (fsys *FS) Stat(name string) (Info, error) {
	file, err := fsys.lookup("stat", name)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Name:     name,
		Size:     int64(len(file.data)),
		Modified: file.modified,
	}, nil
}

// ReadLink returns the target of the symbolic link with the given name.
func (fsys *FS) ReadLink(name string) (string, error) {
	target, exists := fsys.links[name]
	if !exists {
		return "", &vfs.PathError{Op: "readlink", Path: name, Err: fs.ErrNotExist}
	}

	return target, nil
}

func (fsys *FS) lookup(op, name string) (*file, error) {
	if name == "." || !fs.ValidPath(name) {
		return nil, &vfs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}

	resolved, err := fsys.follow(name, symlinkDepth)
	if err != nil {
		return nil, &vfs.PathError{Op: op, Path: name, Err: err}
	}

	file, exists := fsys.files[resolved]
	if !exists {
		return nil, &vfs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}

	return file, nil
}

// follow resolves symbolic links in every component of name until no
// component is a link anymore.
func (fsys *FS) follow(name string, depth int) (string, error) {
	components := strings.Split(name, "/")

	for idx := range components {
		prefix := strings.Join(components[:idx+1], "/")

		target, isLink := fsys.links[prefix]
		if !isLink {
			continue
		}

		if depth <= 0 {
			return "", ErrSymlinkTooDeep
		}

		if !path.IsAbs(target) {
			target = path.Join(path.Dir(prefix), target)
		}

		rest := append([]string{target}, components[idx+1:]...)

		return fsys.follow(cleanName(path.Join(rest...)), depth-1)
	}

	return name, nil
}

// cleanName converts archive names like "./a", "/a" or "a/" into the
// [io/fs] form "a". The root is ".".
func cleanName(name string) string {
	cleaned := strings.TrimPrefix(path.Clean("/"+name), "/")
	if cleaned == "" {
		return "."
	}

	return cleaned
}

type file struct {
	reader   *bytes.Reader
	data     []byte
	modified ktime.Timestamp
}

func (f *file) ReadAll() (string, error) {
	return vfs.ReadAllText(f.reader, f.reader.Size())
}

func (f *file) ReadAt(p []byte, off int64) (int, error) {
	if err := vfs.CheckOffset("read", off); err != nil {
		return 0, err
	}

	return f.reader.ReadAt(p, off) //nolint:wrapcheck
}

func (f *file) ReadExactAt(p []byte, off int64) error {
	return vfs.ReadExactAt(f, p, off)
}
