// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs_test

import (
	"bytes"
	"io/fs"
	"sync"

	"github.com/aibor/neutron/vfs"
)

type fakeFile struct {
	mu     sync.Mutex
	data   []byte
	closed int
}

func (f *fakeFile) ReadAll() (string, error) {
	f.mu.Lock()
	size := len(f.data)
	f.mu.Unlock()

	return vfs.ReadAllText(f, int64(size))
}

func (f *fakeFile) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return bytes.NewReader(f.data).ReadAt(p, off)
}

func (f *fakeFile) ReadExactAt(p []byte, off int64) error {
	return vfs.ReadExactAt(f, p, off)
}

func (f *fakeFile) Rewrite(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data = bytes.Clone(p)

	return nil
}

func (f *fakeFile) WriteAt(p []byte, off int64) (int, error) {
	if err := vfs.CheckOffset("write", off); err != nil {
		return 0, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	end := int(off) + len(p)
	if end > len(f.data) {
		f.data = append(f.data, make([]byte, end-len(f.data))...)
	}

	return copy(f.data[off:], p), nil
}

func (f *fakeFile) WriteAllAt(p []byte, off int64) error {
	return vfs.WriteAllAt(f, p, off)
}

func (f *fakeFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed++

	return nil
}

// roBackend only implements [vfs.Backend].
type roBackend struct {
	files   map[string]*fakeFile
	closeFn func() error
}

func newROBackend(files map[string]string) *roBackend {
	backend := &roBackend{files: map[string]*fakeFile{}}
	for name, content := range files {
		backend.files[name] = &fakeFile{data: []byte(content)}
	}

	return backend
}

func (*roBackend) Kind() vfs.Kind { return vfs.KindROM }

func (b *roBackend) Open(name string) (vfs.Readable, error) {
	file, exists := b.files[name]
	if !exists {
		return nil, fs.ErrNotExist
	}

	return file, nil
}

func (b *roBackend) Close() error {
	if b.closeFn == nil {
		return nil
	}

	return b.closeFn()
}

// rwBackend implements [vfs.WritableBackend].
type rwBackend struct {
	roBackend
}

func newRWBackend(files map[string]string) *rwBackend {
	return &rwBackend{*newROBackend(files)}
}

func (*rwBackend) Kind() vfs.Kind { return vfs.KindMem }

func (b *rwBackend) OpenWritable(name string, create bool) (vfs.ReadWriter, error) {
	file, exists := b.files[name]
	if !exists {
		if !create {
			return nil, fs.ErrNotExist
		}

		file = &fakeFile{}
		b.files[name] = file
	}

	return file, nil
}

func mounts(points ...string) []vfs.Mount {
	mounts := make([]vfs.Mount, 0, len(points))
	for _, point := range points {
		mounts = append(mounts, vfs.Mount{Point: point, Backend: newRWBackend(nil)})
	}

	return mounts
}
