// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootcfg_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/aibor/neutron/backend/memfs"
	"github.com/aibor/neutron/backend/romfs"
	"github.com/aibor/neutron/internal/bootcfg"
	"github.com/aibor/neutron/ktime"
	"github.com/aibor/neutron/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, files map[string]string) string {
	t.Helper()

	source := fstest.MapFS{}
	for name, content := range files {
		source[name] = &fstest.MapFile{Data: []byte(content)}
	}

	name := filepath.Join(t.TempDir(), "image.cpio")
	require.NoError(t, romfs.WriteFile(name, source))

	return name
}

func readFile(t *testing.T, table *vfs.Table, name string) string {
	t.Helper()

	file, err := table.Open(name)
	require.NoError(t, err)

	defer file.Close()

	content, err := file.ReadAll()
	require.NoError(t, err)

	return content
}

func TestBuild(t *testing.T) {
	image := writeImage(t, map[string]string{"vmlinuz": "kernel"})

	hostDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(hostDir, "data"), []byte("host"), 0o600))

	cfg := &bootcfg.Config{
		Date: ktime.MustParseDate("2024-02-29"),
		Mounts: []bootcfg.MountSpec{
			{Path: "/", Kind: vfs.KindMem},
			{Path: "/boot", Kind: vfs.KindROM, Source: image},
			{Path: "/srv/", Kind: vfs.KindHost, Source: hostDir, ReadOnly: true},
			{Path: "/var", Kind: vfs.KindHost, Source: hostDir},
		},
	}

	table, err := bootcfg.Build(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = table.Close() })

	mounts := table.Mounts()
	require.Len(t, mounts, 4)

	for idx, spec := range cfg.Mounts {
		assert.Equal(t, spec.Path, mounts[idx].Point, "configuration order")
		assert.Equal(t, spec.Kind, mounts[idx].Backend.Kind())
	}

	assert.Equal(t, "kernel", readFile(t, table, "/boot/vmlinuz"))
	assert.Equal(t, "host", readFile(t, table, "/srv/data"))

	_, err = table.OpenWritable("/srv/data", false)
	require.ErrorIs(t, err, vfs.ErrReadOnly)

	_, err = table.OpenWritable("/boot/vmlinuz", false)
	require.ErrorIs(t, err, vfs.ErrReadOnly)

	file, err := table.OpenWritable("/var/data", false)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	file, err = table.OpenWritable("/motd", true)
	require.NoError(t, err)
	require.NoError(t, file.Rewrite([]byte("hello")))
	require.NoError(t, file.Close())

	rootFS, ok := mounts[0].Backend.(*memfs.FS)
	require.True(t, ok)

	info, err := rootFS.Stat("motd")
	require.NoError(t, err)
	assert.Equal(t, cfg.Date, info.Modified)
}

func TestBuild_MemFromImage(t *testing.T) {
	image := writeImage(t, map[string]string{
		"etc/hostname": "neutron",
		"etc/issue":    "welcome",
	})

	cfg := &bootcfg.Config{
		Mounts: []bootcfg.MountSpec{
			{Path: "/", Kind: vfs.KindMem, Source: image},
		},
	}

	table, err := bootcfg.Build(context.Background(), cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = table.Close() })

	assert.Equal(t, "neutron", readFile(t, table, "/etc/hostname"))

	file, err := table.OpenWritable("/etc/issue", false)
	require.NoError(t, err)
	require.NoError(t, file.WriteAllAt([]byte("W"), 0))
	require.NoError(t, file.Close())

	assert.Equal(t, "Welcome", readFile(t, table, "/etc/issue"))
}

func TestBuild_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.cpio")

	tests := []struct {
		name        string
		mounts      []bootcfg.MountSpec
		expectedErr error
	}{
		{
			name:        "empty",
			expectedErr: vfs.ErrNoRoot,
		},
		{
			name: "missing source",
			mounts: []bootcfg.MountSpec{
				{Path: "/", Kind: vfs.KindROM},
			},
			expectedErr: bootcfg.ErrMissingSource,
		},
		{
			name: "missing host source",
			mounts: []bootcfg.MountSpec{
				{Path: "/", Kind: vfs.KindMem},
				{Path: "/srv", Kind: vfs.KindHost},
			},
			expectedErr: bootcfg.ErrMissingSource,
		},
		{
			name: "image not found",
			mounts: []bootcfg.MountSpec{
				{Path: "/", Kind: vfs.KindMem},
				{Path: "/boot", Kind: vfs.KindROM, Source: missing},
			},
			expectedErr: &bootcfg.MountError{},
		},
		{
			name: "unknown kind",
			mounts: []bootcfg.MountSpec{
				{Path: "/", Kind: vfs.Kind("nfs")},
			},
			expectedErr: vfs.ErrUnknownKind,
		},
		{
			name: "duplicate",
			mounts: []bootcfg.MountSpec{
				{Path: "/", Kind: vfs.KindMem},
				{Path: "/tmp", Kind: vfs.KindMem},
				{Path: "/tmp/", Kind: vfs.KindMem},
			},
			expectedErr: vfs.ErrDuplicateMountPoint,
		},
		{
			name: "optional root fails",
			mounts: []bootcfg.MountSpec{
				{Path: "/", Kind: vfs.KindROM, Source: missing, MayFail: true},
			},
			expectedErr: vfs.ErrNoRoot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := bootcfg.Build(context.Background(), &bootcfg.Config{Mounts: tt.mounts})
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, table)
		})
	}
}

func TestBuild_Optional(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.cpio")

	cfg := &bootcfg.Config{
		Mounts: []bootcfg.MountSpec{
			{Path: "/", Kind: vfs.KindMem},
			{Path: "/boot", Kind: vfs.KindROM, Source: missing, MayFail: true},
			{Path: "/tmp", Kind: vfs.KindMem},
		},
	}

	table, err := bootcfg.Build(context.Background(), cfg)
	require.ErrorIs(t, err, bootcfg.OptionalMountError{})
	require.NotNil(t, table)

	t.Cleanup(func() { _ = table.Close() })

	var optionalErrs bootcfg.OptionalMountError

	require.ErrorAs(t, err, &optionalErrs)
	require.Len(t, optionalErrs, 1)

	var mountErr *bootcfg.MountError

	require.ErrorAs(t, optionalErrs[0], &mountErr)
	assert.Equal(t, "/boot", mountErr.Path)

	points := []string{}
	for _, mount := range table.Mounts() {
		points = append(points, mount.Point)
	}

	assert.Equal(t, []string{"/", "/tmp"}, points)
	assert.True(t, table.Valid())
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &bootcfg.Config{
		Mounts: []bootcfg.MountSpec{
			{Path: "/", Kind: vfs.KindMem},
		},
	}

	table, err := bootcfg.Build(ctx, cfg)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, table)
}
