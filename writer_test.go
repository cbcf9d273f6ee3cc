// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/woozymasta/pathrules"
)

// writeTestTree creates files under dir from relative slash path to content.
func writeTestTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for relPath, content := range files {
		fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("mkdir for %s: %v", relPath, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", relPath, err)
		}
	}
}

// readTestTree collects relative slash path to content for every regular file under dir.
func readTestTree(t *testing.T, dir string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		files[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree %s: %v", dir, err)
	}

	return files
}

// writeArchiveFile streams sourceDir into a fresh archive file named name and returns its path.
func writeArchiveFile(t *testing.T, sourceDir string, name string, format Format, opts WriteOptions) string {
	t.Helper()

	archivePath := filepath.Join(t.TempDir(), name)
	out, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create archive file: %v", err)
	}

	sink := NewCountingSink(out)
	if err := WriteArchive(context.Background(), sourceDir, sink, format, opts); err != nil {
		_ = out.Close()
		t.Fatalf("WriteArchive(%q): %v", format, err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close archive file: %v", err)
	}

	return archivePath
}

func TestWriteExtractRoundTrip(t *testing.T) {
	t.Parallel()

	topDir := uuid.NewString()
	files := map[string]string{
		topDir + "/manifest.yaml":        "version: 1\n",
		topDir + "/data/index.html":      "<html></html>",
		topDir + "/data/assets/app.js":   "console.log(1);",
		topDir + "/data/assets/long.bin": string(bytes.Repeat([]byte("payload"), 4096)),
	}

	testCases := []struct {
		name   string
		format Format
		file   string
	}{
		{name: "zip", format: FormatZip, file: "bundle.zip"},
		{name: "tar gzip", format: FormatTarGzip, file: "bundle.tar.gz"},
		{name: "tar bzip2", format: FormatTarBzip2, file: "bundle.tar.bz2"},
		{name: "tar xz", format: FormatTarXz, file: "bundle.tar.xz"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sourceDir := t.TempDir()
			writeTestTree(t, sourceDir, files)

			archivePath := writeArchiveFile(t, sourceDir, tc.file, tc.format, WriteOptions{})

			destRoot := t.TempDir()
			record, err := Extract(archivePath, destRoot)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}

			if record.Identifier != topDir {
				t.Fatalf("Identifier=%q, want %q", record.Identifier, topDir)
			}
			if record.DestinationDir != filepath.Join(destRoot, topDir) {
				t.Fatalf("DestinationDir=%q, want %q", record.DestinationDir, filepath.Join(destRoot, topDir))
			}

			got := readTestTree(t, destRoot)
			if len(got) != len(files) {
				t.Fatalf("extracted %d files, want %d: %v", len(got), len(files), got)
			}
			for relPath, content := range files {
				if got[relPath] != content {
					t.Fatalf("content mismatch for %s", relPath)
				}
			}
		})
	}
}

func TestZipRoundTripFlatFiles(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"a.txt": "hello1",
		"b.txt": "hello2",
		"c.md":  "hello3",
	}

	sourceDir := t.TempDir()
	writeTestTree(t, sourceDir, files)

	archivePath := writeArchiveFile(t, sourceDir, "flat.zip", FormatZip, WriteOptions{})

	destRoot := t.TempDir()
	if _, err := Extract(archivePath, destRoot); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got := readTestTree(t, destRoot)
	if len(got) != 3 {
		t.Fatalf("extracted %d entries, want 3: %v", len(got), got)
	}
	for relPath, content := range files {
		if got[relPath] != content {
			t.Fatalf("entry %s = %q, want %q", relPath, got[relPath], content)
		}
	}
}

func TestWriteArchiveEntryRules(t *testing.T) {
	t.Parallel()

	sourceDir := t.TempDir()
	writeTestTree(t, sourceDir, map[string]string{
		"a.txt": "hello1",
		"b.txt": "hello2",
		"c.md":  "hello3",
	})

	opts := WriteOptions{
		Rules: []pathrules.Rule{
			{Action: pathrules.ActionInclude, Pattern: "*.txt"},
		},
	}

	var written []WrittenEntry
	opts.OnEntryDone = func(entry WrittenEntry) {
		written = append(written, entry)
	}

	archivePath := writeArchiveFile(t, sourceDir, "selected.zip", FormatZip, opts)

	destRoot := t.TempDir()
	if _, err := Extract(archivePath, destRoot); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got := readTestTree(t, destRoot)
	if len(got) != 2 {
		t.Fatalf("extracted %d entries, want 2: %v", len(got), got)
	}
	if _, ok := got["c.md"]; ok {
		t.Fatal("excluded entry c.md was archived")
	}

	if len(written) != 2 {
		t.Fatalf("OnEntryDone fired %d times, want 2", len(written))
	}
	if written[0].Offset <= 0 || written[1].Offset <= written[0].Offset {
		t.Fatalf("entry offsets are not increasing: %+v", written)
	}
}

func TestWriteArchiveArguments(t *testing.T) {
	t.Parallel()

	t.Run("nil sink", func(t *testing.T) {
		t.Parallel()

		err := WriteArchive(context.Background(), t.TempDir(), nil, FormatZip, WriteOptions{})
		if !errors.Is(err, ErrNilSink) {
			t.Fatalf("expected ErrNilSink, got %v", err)
		}
	})

	t.Run("source is a file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		filePath := filepath.Join(dir, "plain.txt")
		if err := os.WriteFile(filePath, []byte("x"), 0o600); err != nil {
			t.Fatalf("write file: %v", err)
		}

		var buf bytes.Buffer
		err := WriteArchive(context.Background(), filePath, NewCountingSink(&buf), FormatZip, WriteOptions{})
		if !errors.Is(err, ErrNotDirectory) {
			t.Fatalf("expected ErrNotDirectory, got %v", err)
		}
	})
}

func TestCountingSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := NewCountingSink(&buf)

	payload := []byte("streamed bytes")
	n, err := sink.Write(payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write=%d, want %d", n, len(payload))
	}

	if sink.Offset() != int64(len(payload)) {
		t.Fatalf("Offset=%d, want %d", sink.Offset(), len(payload))
	}
	if err := sink.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if buf.String() != string(payload) {
		t.Fatalf("buffer=%q, want %q", buf.String(), payload)
	}
}
