// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"archive/tar"
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteArchive walks sourceDir recursively in directory order and
// streams a single archive of the selected format to sink. Each regular
// file is stored under its sourceDir-relative slash path. Entries are
// streamed one at a time and the sink is flushed after every entry, so
// the full archive is never buffered in memory or on disk.
func WriteArchive(ctx context.Context, sourceDir string, sink Sink, format Format, opts WriteOptions) error {
	if sink == nil {
		return ErrNilSink
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	matcher, err := newEntryMatcher(opts.Rules, opts.MatcherOptions)
	if err != nil {
		return err
	}

	sourceAbs, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("resolve source dir: %w", err)
	}

	info, err := os.Stat(sourceAbs)
	if err != nil {
		return fmt.Errorf("stat source dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, sourceDir)
	}

	switch {
	case format == FormatZip:
		return writeZipArchive(ctx, sourceAbs, sink, matcher, opts)
	case format.IsTar():
		return writeTarArchive(ctx, sourceAbs, sink, format, matcher, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// writeZipArchive streams sourceAbs as a zip archive. The zip writer
// tracks entry offsets against the sink stream itself, so the central
// directory is emitted correctly without seeking.
func writeZipArchive(ctx context.Context, sourceAbs string, sink Sink, matcher *entryMatcher, opts WriteOptions) error {
	zw := zip.NewWriter(sink)

	copyBuf := make([]byte, copyBufferSize)
	err := walkSourceFiles(ctx, sourceAbs, matcher, func(filePath string, relPath string, info fs.FileInfo) error {
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("entry header %s: %w", relPath, err)
		}

		header.Name = relPath
		header.Method = zip.Deflate

		entryWriter, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", relPath, err)
		}

		written, err := copyFilePayload(entryWriter, filePath, copyBuf)
		if err != nil {
			return fmt.Errorf("stream entry %s: %w", relPath, err)
		}

		if err := zw.Flush(); err != nil {
			return fmt.Errorf("flush entry %s: %w", relPath, err)
		}
		if err := sink.Flush(); err != nil {
			return fmt.Errorf("flush sink after %s: %w", relPath, err)
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(WrittenEntry{Path: relPath, Size: written, Offset: sink.Offset()})
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}

	return sink.Flush()
}

// writeTarArchive streams sourceAbs as a compressed tar archive.
func writeTarArchive(ctx context.Context, sourceAbs string, sink Sink, format Format, matcher *entryMatcher, opts WriteOptions) error {
	compressor, err := newCompressionWriter(sink, format)
	if err != nil {
		return err
	}

	tw := tar.NewWriter(compressor)

	copyBuf := make([]byte, copyBufferSize)
	err = walkSourceFiles(ctx, sourceAbs, matcher, func(filePath string, relPath string, info fs.FileInfo) error {
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("entry header %s: %w", relPath, err)
		}

		header.Name = relPath

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write entry header %s: %w", relPath, err)
		}

		written, err := copyFilePayload(tw, filePath, copyBuf)
		if err != nil {
			return fmt.Errorf("stream entry %s: %w", relPath, err)
		}

		if err := tw.Flush(); err != nil {
			return fmt.Errorf("flush entry %s: %w", relPath, err)
		}
		if err := sink.Flush(); err != nil {
			return fmt.Errorf("flush sink after %s: %w", relPath, err)
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(WrittenEntry{Path: relPath, Size: written, Offset: sink.Offset()})
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	if err := compressor.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	return sink.Flush()
}

// walkSourceFiles visits every selected regular file under sourceAbs in
// directory order and invokes fn with the file path, its slash-form
// relative path, and its file info. Non-regular files are skipped.
func walkSourceFiles(
	ctx context.Context,
	sourceAbs string,
	matcher *entryMatcher,
	fn func(filePath string, relPath string, info fs.FileInfo) error,
) error {
	return filepath.WalkDir(sourceAbs, func(filePath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", filePath, walkErr)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(sourceAbs, filePath)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", filePath, err)
		}

		relPath := filepath.ToSlash(rel)
		if !matcher.Match(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", filePath, err)
		}

		return fn(filePath, relPath, info)
	})
}

// copyFilePayload streams one source file into dst using the provided buffer.
func copyFilePayload(dst io.Writer, filePath string, buf []byte) (int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("open source file: %w", err)
	}

	written, copyErr := copyPayload(dst, file, buf)
	closeErr := file.Close()
	if copyErr != nil {
		return written, copyErr
	}
	if closeErr != nil {
		return written, fmt.Errorf("close source file: %w", closeErr)
	}

	return written, nil
}

// copyPayload copies one payload stream from src to dst using a fixed buffer.
func copyPayload(dst io.Writer, src io.Reader, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, io.ErrShortBuffer
	}

	var total int64
	for {
		readN, readErr := src.Read(buf)
		if readN > 0 {
			writeN, writeErr := dst.Write(buf[:readN])
			total += int64(writeN)

			if writeErr != nil {
				return total, writeErr
			}

			if writeN != readN {
				return total, io.ErrShortWrite
			}
		}

		if readErr == nil {
			continue
		}

		if readErr == io.EOF {
			return total, nil
		}

		return total, readErr
	}
}
