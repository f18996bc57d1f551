// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package romfs_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/aibor/neutron/backend/romfs"
	"github.com/aibor/neutron/ktime"
	"github.com/aibor/neutron/vfs"
	"github.com/cavaliergopher/cpio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linkMapFS reads symbolic link targets from the file data.
type linkMapFS struct {
	fstest.MapFS
}

func (m linkMapFS) ReadLink(name string) (string, error) {
	file, exists := m.MapFS[name]
	if !exists || file.Mode&fs.ModeSymlink == 0 {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}

	return string(file.Data), nil
}

var modTime = time.Date(2024, time.February, 29, 12, 30, 0, 0, time.UTC)

func testImage(t *testing.T) []byte {
	t.Helper()

	source := linkMapFS{fstest.MapFS{
		"etc":           &fstest.MapFile{Mode: fs.ModeDir},
		"etc/hostname":  &fstest.MapFile{Data: []byte("neutron\n"), ModTime: modTime},
		"etc/motd":      &fstest.MapFile{Data: []byte{0xff, 0xfe}, ModTime: modTime},
		"etc/name":      &fstest.MapFile{Data: []byte("hostname"), Mode: fs.ModeSymlink},
		"abs":           &fstest.MapFile{Data: []byte("/etc/name"), Mode: fs.ModeSymlink},
		"loop":          &fstest.MapFile{Data: []byte("loop"), Mode: fs.ModeSymlink},
		"dangling":      &fstest.MapFile{Data: []byte("nowhere"), Mode: fs.ModeSymlink},
		"config":        &fstest.MapFile{Data: []byte("etc"), Mode: fs.ModeSymlink},
		"boot/up":       &fstest.MapFile{Data: []byte(".."), Mode: fs.ModeSymlink},
		"boot/kernel":   &fstest.MapFile{Data: bytes.Repeat([]byte{0x7f}, 300), ModTime: modTime},
		"boot/.keep":    &fstest.MapFile{ModTime: modTime},
		"boot/subdir/x": &fstest.MapFile{Data: []byte("x"), ModTime: modTime},
	}}

	var buf bytes.Buffer

	require.NoError(t, romfs.Write(&buf, source))

	return buf.Bytes()
}

func TestWrite(t *testing.T) {
	image := testImage(t)
	reader := cpio.NewReader(bytes.NewReader(image))

	headers := map[string]*cpio.Header{}

	for {
		hdr, err := reader.Next()
		if err != nil {
			break
		}

		headers[hdr.Name] = hdr
	}

	require.Contains(t, headers, "etc")
	assert.EqualValues(t, 0o777|cpio.TypeDir, headers["etc"].Mode)

	require.Contains(t, headers, "boot")
	require.Contains(t, headers, "boot/subdir")

	require.Contains(t, headers, "etc/name")
	assert.EqualValues(t, 0o777|cpio.TypeSymlink, headers["etc/name"].Mode)
	assert.Equal(t, "hostname", headers["etc/name"].Linkname)

	require.Contains(t, headers, "boot/kernel")
	assert.EqualValues(t, 300, headers["boot/kernel"].Size)
	assert.Equal(t, modTime.Unix(), headers["boot/kernel"].ModTime.Unix())
}

func TestWriteErrors(t *testing.T) {
	t.Run("links without ReadLink", func(t *testing.T) {
		// Hide any ReadLink method of the map.
		source := struct{ fs.FS }{fstest.MapFS{
			"link": &fstest.MapFile{Data: []byte("target"), Mode: fs.ModeSymlink},
		}}

		err := romfs.Write(&bytes.Buffer{}, source)
		require.ErrorIs(t, err, romfs.ErrNotReadLinkFS)
		assert.ErrorIs(t, err, &romfs.ImageError{Op: "write"})
	})

	t.Run("device", func(t *testing.T) {
		source := fstest.MapFS{
			"null": &fstest.MapFile{Mode: fs.ModeDevice},
		}

		err := romfs.Write(&bytes.Buffer{}, source)
		require.ErrorIs(t, err, romfs.ErrUnsupportedType)
	})
}

func TestLoad(t *testing.T) {
	fsys, err := romfs.Load(bytes.NewReader(testImage(t)))
	require.NoError(t, err)

	assert.Equal(t, vfs.KindROM, fsys.Kind())
	assert.Equal(t, []string{
		"boot/.keep",
		"boot/kernel",
		"boot/subdir/x",
		"etc/hostname",
		"etc/motd",
	}, fsys.Names())

	tests := []struct {
		name        string
		expected    string
		expectedErr error
	}{
		{
			name:     "etc/hostname",
			expected: "neutron\n",
		},
		{
			name:     "etc/name",
			expected: "neutron\n",
		},
		{
			name:     "abs",
			expected: "neutron\n",
		},
		{
			name:     "config/hostname",
			expected: "neutron\n",
		},
		{
			name:     "config/name",
			expected: "neutron\n",
		},
		{
			name:     "boot/up/config/name",
			expected: "neutron\n",
		},
		{
			name:        "etc/hostname/x",
			expectedErr: fs.ErrNotExist,
		},
		{
			name:     "boot/.keep",
			expected: "",
		},
		{
			name:        "etc/motd",
			expectedErr: vfs.ErrNotText,
		},
		{
			name:        "loop",
			expectedErr: romfs.ErrSymlinkTooDeep,
		},
		{
			name:        "dangling",
			expectedErr: fs.ErrNotExist,
		},
		{
			name:        "boot",
			expectedErr: fs.ErrNotExist,
		},
		{
			name:        "/etc/hostname",
			expectedErr: fs.ErrInvalid,
		},
		{
			name:        ".",
			expectedErr: fs.ErrInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := fsys.Open(tt.name)
			if err == nil {
				var content string

				content, err = file.ReadAll()
				if tt.expectedErr == nil {
					assert.Equal(t, tt.expected, content)
				}
			}

			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestStat(t *testing.T) {
	fsys, err := romfs.Load(bytes.NewReader(testImage(t)))
	require.NoError(t, err)

	info, err := fsys.Stat("etc/name")
	require.NoError(t, err)

	assert.Equal(t, "etc/name", info.Name)
	assert.EqualValues(t, 8, info.Size)
	assert.Equal(t, ktime.MustParseDate("2024-02-29").Year(), info.Modified.Year())
	assert.Equal(t, uint8(29), info.Modified.Day())
	assert.InDelta(t, 12, info.Modified.Hour(), 0)

	target, err := fsys.ReadLink("etc/name")
	require.NoError(t, err)
	assert.Equal(t, "hostname", target)

	_, err = fsys.ReadLink("etc/hostname")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestReadAt(t *testing.T) {
	fsys, err := romfs.Load(bytes.NewReader(testImage(t)))
	require.NoError(t, err)

	file, err := fsys.Open("boot/kernel")
	require.NoError(t, err)

	buf := make([]byte, 100)

	require.NoError(t, file.ReadExactAt(buf, 200))
	assert.Equal(t, bytes.Repeat([]byte{0x7f}, 100), buf)

	err = file.ReadExactAt(buf, 250)
	require.ErrorIs(t, err, vfs.ErrShortRead)

	_, err = file.ReadAt(buf, -1)
	require.ErrorIs(t, err, vfs.ErrInvalidOffset)
}

func TestLoadInvalid(t *testing.T) {
	_, err := romfs.Load(bytes.NewReader([]byte("definitely not an image")))
	require.ErrorIs(t, err, &romfs.ImageError{Op: "read"})
}

func TestWriteFileDirFS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "sub", "file"), []byte("content"), 0o600))
	require.NoError(t, os.Symlink("sub/file", filepath.Join(dir, "src", "link")))

	imagePath := filepath.Join(dir, "image.cpio")

	require.NoError(t, romfs.WriteFile(imagePath, romfs.DirFS(filepath.Join(dir, "src"))))

	fsys, err := romfs.LoadFile(imagePath)
	require.NoError(t, err)

	file, err := fsys.Open("link")
	require.NoError(t, err)

	content, err := file.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "content", content)

	_, err = romfs.LoadFile(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWriteFileRemovesOnError(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "image.cpio")
	source := fstest.MapFS{
		"null": &fstest.MapFile{Mode: fs.ModeDevice},
	}

	require.Error(t, romfs.WriteFile(imagePath, source))
	assert.NoFileExists(t, imagePath)
}

func TestCompression(t *testing.T) {
	source := fstest.MapFS{
		"etc/hostname": &fstest.MapFile{Data: []byte("neutron\n"), ModTime: modTime},
		"boot/kernel":  &fstest.MapFile{Data: bytes.Repeat([]byte("vmlinuz"), 1000), ModTime: modTime},
	}

	tests := []struct {
		compression   romfs.Compression
		expectedMagic []byte
	}{
		{
			compression:   romfs.CompressionNone,
			expectedMagic: []byte("070701"),
		},
		{
			compression:   romfs.CompressionGzip,
			expectedMagic: []byte{0x1f, 0x8b},
		},
		{
			compression:   romfs.CompressionZstd,
			expectedMagic: []byte{0x28, 0xb5, 0x2f, 0xfd},
		},
		{
			compression:   romfs.CompressionLZ4,
			expectedMagic: []byte{0x04, 0x22, 0x4d, 0x18},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.compression), func(t *testing.T) {
			var buf bytes.Buffer

			require.NoError(t, romfs.WriteCompressed(&buf, source, tt.compression))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), tt.expectedMagic), "magic")

			fsys, err := romfs.Load(&buf)
			require.NoError(t, err)
			assert.Equal(t, []string{"boot/kernel", "etc/hostname"}, fsys.Names())

			info, err := fsys.Stat("boot/kernel")
			require.NoError(t, err)
			assert.EqualValues(t, 7000, info.Size)
		})
	}
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, romfs.CompressionGzip, romfs.CompressionFor("initrd.cpio.gz"))
	assert.Equal(t, romfs.CompressionZstd, romfs.CompressionFor("/boot/initrd.zst"))
	assert.Equal(t, romfs.CompressionLZ4, romfs.CompressionFor("boot.lz4"))
	assert.Equal(t, romfs.CompressionNone, romfs.CompressionFor("boot.cpio"))
	assert.Equal(t, romfs.CompressionNone, romfs.CompressionFor("gz"))
}

func TestCompressionErrors(t *testing.T) {
	err := romfs.WriteCompressed(&bytes.Buffer{}, fstest.MapFS{}, romfs.Compression("xz"))
	require.ErrorIs(t, err, romfs.ErrUnsupportedCompression)

	_, err = romfs.Load(bytes.NewReader([]byte{0x1f, 0x8b}))
	require.ErrorIs(t, err, &romfs.ImageError{Op: "decompress"})
}

func TestWriteFileCompressed(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "image.cpio.zst")
	source := fstest.MapFS{
		"motd": &fstest.MapFile{Data: []byte("hello\n"), ModTime: modTime},
	}

	require.NoError(t, romfs.WriteFile(imagePath, source))

	data, err := os.ReadFile(imagePath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd}))

	fsys, err := romfs.LoadFile(imagePath)
	require.NoError(t, err)

	file, err := fsys.Open("motd")
	require.NoError(t, err)

	content, err := file.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello\n", content)
}
