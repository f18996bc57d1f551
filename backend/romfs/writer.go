// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package romfs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cavaliergopher/cpio"
)

const numLinks = 2

// ReadLinkFS is a [fs.FS] that can read the target of symbolic links.
type ReadLinkFS interface {
	fs.FS

	ReadLink(name string) (string, error)
}

// DirFS returns a [ReadLinkFS] for the host directory dir. Like [os.DirFS],
// its Open follows symbolic links, while ReadLink and walking do not.
func DirFS(dir string) ReadLinkFS {
	return &hostDir{FS: os.DirFS(dir), dir: dir}
}

type hostDir struct {
	fs.FS
	dir string
}

// ReadLink implements [ReadLinkFS].
func (h *hostDir) ReadLink(name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}

	return os.Readlink(filepath.Join(h.dir, filepath.FromSlash(name))) //nolint:wrapcheck
}

// Write packs all directories, regular files and symbolic links of fsys into
// an image and writes it to w.
//
// If fsys contains symbolic links, it must implement [ReadLinkFS]. Other file
// types fail with [ErrUnsupportedType].
func Write(w io.Writer, fsys fs.FS) error {
	return WriteCompressed(w, fsys, CompressionNone)
}

// WriteCompressed is like [Write] but compresses the image.
func WriteCompressed(w io.Writer, fsys fs.FS, compression Compression) error {
	compressor, err := compress(w, compression)
	if err != nil {
		return &ImageError{Op: "write", Err: err}
	}

	archive := cpio.NewWriter(compressor)

	err = fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if name == "." {
			return nil
		}

		hdr, body, err := newEntry(fsys, name, entry)
		if err != nil {
			return err
		}
		defer body.Close()

		if err := archive.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write header for %s: %w", name, err)
		}

		if _, err := io.Copy(archive, body); err != nil {
			return fmt.Errorf("write body for %s: %w", name, err)
		}

		return nil
	})
	if err == nil {
		// Writes the trailer.
		err = archive.Close()
	}

	if closeErr := compressor.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return &ImageError{Op: "write", Err: err}
	}

	return nil
}

// WriteFile packs fsys into a new image file at the given host path. The
// compression is chosen by [CompressionFor]. The file is removed again if
// writing fails.
func WriteFile(name string, fsys fs.FS) error {
	imageFile, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}

	err = WriteCompressed(imageFile, fsys, CompressionFor(name))
	if closeErr := imageFile.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(name)
		return err
	}

	return nil
}

// newEntry returns the archive header for the given walked entry and a
// reader for its body. The body of a symbolic link is its target.
func newEntry(fsys fs.FS, name string, entry fs.DirEntry) (*cpio.Header, io.ReadCloser, error) {
	switch entry.Type() {
	case fs.ModeDir:
		hdr := &cpio.Header{
			Name:  name,
			Mode:  cpio.TypeDir | cpio.ModePerm,
			Links: numLinks,
		}

		return hdr, io.NopCloser(strings.NewReader("")), nil
	case fs.ModeSymlink:
		linkFS, ok := fsys.(ReadLinkFS)
		if !ok {
			return nil, nil, &fs.PathError{Op: "readlink", Path: name, Err: ErrNotReadLinkFS}
		}

		target, err := linkFS.ReadLink(name)
		if err != nil {
			return nil, nil, fmt.Errorf("read link: %w", err)
		}

		hdr := &cpio.Header{
			Name: name,
			Mode: cpio.TypeSymlink | cpio.ModePerm,
			Size: int64(len(target)),
		}

		return hdr, io.NopCloser(strings.NewReader(target)), nil
	case 0:
		return newRegularEntry(fsys, name)
	default:
		return nil, nil, &fs.PathError{Op: "write", Path: name, Err: ErrUnsupportedType}
	}
}

func newRegularEntry(fsys fs.FS, name string) (*cpio.Header, io.ReadCloser, error) {
	source, err := fsys.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}

	info, err := source.Stat()
	if err != nil {
		_ = source.Close()
		return nil, nil, fmt.Errorf("read info: %w", err)
	}

	// The directory listing may be stale.
	if !info.Mode().IsRegular() {
		_ = source.Close()
		return nil, nil, &fs.PathError{Op: "write", Path: name, Err: ErrUnsupportedType}
	}

	hdr, err := cpio.FileInfoHeader(info, "")
	if err != nil {
		_ = source.Close()
		return nil, nil, fmt.Errorf("create header: %w", err)
	}

	hdr.Name = name

	return hdr, source, nil
}
