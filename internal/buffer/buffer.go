// MCL - Mission Clone
// Copyright (C) 2025 blubskye
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Source code: https://github.com/blubskye/mission_clone

// Package buffer provides buffered file readers and writers that compress
// or decompress transparently based on the file extension.
package buffer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/blubskye/mission_clone/internal/logging"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// DefaultBufferSize for report files (256KB)
const DefaultBufferSize = 256 * 1024

// CompressionType represents supported compression formats
type CompressionType string

const (
	CompressionNone CompressionType = ""
	CompressionGzip CompressionType = "gzip"
	CompressionXZ   CompressionType = "xz"
	CompressionZstd CompressionType = "zstd"
)

// DetectCompression detects compression type from filename
func DetectCompression(filename string) CompressionType {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".gzip"):
		return CompressionGzip
	case strings.HasSuffix(lower, ".xz"):
		return CompressionXZ
	case strings.HasSuffix(lower, ".zst") || strings.HasSuffix(lower, ".zstd"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Reader is a buffered, decompressing file reader
type Reader struct {
	file         *os.File
	decompressor io.ReadCloser
	reader       *bufio.Reader
}

// NewReader opens path, choosing the decompressor from its extension
func NewReader(path string) (*Reader, error) {
	compression := DetectCompression(path)
	logging.Debug("Opening %s for reading (compression: %q)", path, compression)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r := &Reader{file: file}
	var src io.Reader = file

	switch compression {
	case CompressionGzip:
		gzr, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		r.decompressor = gzr
		src = gzr

	case CompressionXZ:
		xzr, err := xz.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		// xz.Reader doesn't implement io.Closer
		r.decompressor = io.NopCloser(xzr)
		src = xzr

	case CompressionZstd:
		zstdr, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		r.decompressor = zstdr.IOReadCloser()
		src = r.decompressor
	}

	r.reader = bufio.NewReaderSize(src, DefaultBufferSize)
	return r, nil
}

// Read implements io.Reader
func (r *Reader) Read(p []byte) (int, error) {
	return r.reader.Read(p)
}

// Close closes the decompressor and the file
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Writer is a buffered, compressing file writer
type Writer struct {
	file       *os.File
	compressor io.WriteCloser
	writer     *bufio.Writer
}

// NewWriter creates path, choosing the compressor from its extension
func NewWriter(path string) (*Writer, error) {
	compression := DetectCompression(path)
	logging.Debug("Opening %s for writing (compression: %q)", path, compression)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	w := &Writer{file: file}
	var dst io.Writer = file

	switch compression {
	case CompressionGzip:
		gzw, err := gzip.NewWriterLevel(file, gzip.BestSpeed)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		w.compressor = gzw
		dst = gzw

	case CompressionXZ:
		xzw, err := xz.NewWriter(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		w.compressor = xzw
		dst = xzw

	case CompressionZstd:
		zstdw, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w.compressor = zstdw
		dst = zstdw
	}

	w.writer = bufio.NewWriterSize(dst, DefaultBufferSize)
	return w, nil
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (int, error) {
	return w.writer.Write(p)
}

// Close flushes the buffer, finishes the compressed stream and closes the file
func (w *Writer) Close() error {
	var errs []error

	if err := w.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush error: %w", err))
	}
	if w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			errs = append(errs, fmt.Errorf("compressor close error: %w", err))
		}
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("file close error: %w", err))
	}

	return errors.Join(errs...)
}
