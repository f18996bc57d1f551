// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package romfs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the compression format of an image file.
type Compression string

// Supported compression formats.
const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

var magics = []struct {
	compression Compression
	magic       []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b}},
	{CompressionZstd, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{CompressionLZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
}

const magicLen = 4

// CompressionFor returns the compression format for the file name extension
// of name. Unknown extensions are not compressed.
func CompressionFor(name string) Compression {
	switch filepath.Ext(name) {
	case ".gz":
		return CompressionGzip
	case ".zst":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// detect peeks at the start of r and returns the compression format along
// with a reader that still yields all bytes.
func detect(r io.Reader) (Compression, io.Reader) {
	buffered := bufio.NewReader(r)

	// Short input is handed to the cpio reader which reports it.
	head, _ := buffered.Peek(magicLen)

	for _, entry := range magics {
		if bytes.HasPrefix(head, entry.magic) {
			return entry.compression, buffered
		}
	}

	return CompressionNone, buffered
}

// decompress returns a reader with the decompressed content of r. The
// returned close function must be called once reading is done.
func decompress(r io.Reader) (io.Reader, func(), error) {
	compression, r := detect(r)

	switch compression {
	case CompressionGzip:
		reader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}

		return reader, func() { _ = reader.Close() }, nil
	case CompressionZstd:
		reader, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}

		return reader, reader.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

// compress returns a writer that compresses into w. Closing it flushes the
// compressor but does not close w.
func compress(w io.Writer, compression Compression) (io.WriteCloser, error) {
	switch compression {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		writer, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}

		return writer, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, compression)
	}
}
