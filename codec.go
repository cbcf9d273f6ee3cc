// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// newCompressionReader wraps a raw tar-family archive stream with the
// format's decompressor. Stream header failures map to ErrCorruptArchive.
func newCompressionReader(r io.Reader, format Format) (io.ReadCloser, error) {
	switch format {
	case FormatTarGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrCorruptArchive, err)
		}

		return gz, nil

	case FormatTarBzip2:
		bz, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: bzip2: %v", ErrCorruptArchive, err)
		}

		return bz, nil

	case FormatTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: xz: %v", ErrCorruptArchive, err)
		}

		return io.NopCloser(xr), nil

	default:
		return nil, fmt.Errorf("%w: %q has no tar decompressor", ErrUnsupportedFormat, format)
	}
}

// newCompressionWriter wraps a destination stream with the format's
// compressor. The returned writer must be closed to flush codec framing.
func newCompressionWriter(w io.Writer, format Format) (io.WriteCloser, error) {
	switch format {
	case FormatTarGzip:
		return gzip.NewWriter(w), nil

	case FormatTarBzip2:
		bz, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		if err != nil {
			return nil, fmt.Errorf("bzip2 writer: %w", err)
		}

		return bz, nil

	case FormatTarXz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}

		return xw, nil

	default:
		return nil, fmt.Errorf("%w: %q has no tar compressor", ErrUnsupportedFormat, format)
	}
}
