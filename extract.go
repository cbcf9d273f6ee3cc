// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entryKind classifies one archive entry for validation purposes.
type entryKind int

const (
	// kindFile is a regular file entry.
	kindFile entryKind = iota
	// kindDir is a directory entry.
	kindDir
	// kindOther covers symlinks, devices, and every other special entry.
	kindOther
)

// archiveEntry is one entry surveyed during the validation pass.
type archiveEntry struct {
	path string
	kind entryKind
}

// Extract validates every entry of the archive at archivePath against
// destinationRoot and then extracts the whole archive into it. The
// validation pass is all-or-nothing: the first unsafe entry fails the
// operation with ErrUnsafePath before any file is written. Symlink and
// other special entries are rejected the same way, since a textual
// traversal check cannot see through a link target.
func Extract(archivePath string, destinationRoot string) (ExtractionRecord, error) {
	var record ExtractionRecord

	format, err := ResolveArchivePath(archivePath)
	if err != nil {
		return record, err
	}

	rootAbs, err := filepath.Abs(destinationRoot)
	if err != nil {
		return record, fmt.Errorf("resolve destination root: %w", err)
	}

	// First pass: enumerate and validate every entry path before any write.
	entries, err := listEntries(archivePath, format)
	if err != nil {
		return record, err
	}
	if len(entries) == 0 {
		return record, fmt.Errorf("%w: %s", ErrEmptyArchive, filepath.Base(archivePath))
	}

	if err := validateEntries(entries, rootAbs); err != nil {
		return record, err
	}

	identifier := firstPathSegment(entries[0].path)
	if identifier == "" {
		return record, fmt.Errorf("%w: %s", ErrEmptyArchive, filepath.Base(archivePath))
	}

	if err := os.MkdirAll(rootAbs, dirMode); err != nil {
		return record, fmt.Errorf("create destination root: %w", err)
	}

	// Second pass: reopen the archive and extract every entry.
	if format == FormatZip {
		err = extractZip(archivePath, rootAbs)
	} else {
		err = extractTar(archivePath, format, rootAbs)
	}
	if err != nil {
		return record, err
	}

	return ExtractionRecord{
		Identifier:     identifier,
		DestinationDir: filepath.Join(rootAbs, identifier),
		CreatedAt:      time.Now(),
	}, nil
}

// validateEntries checks that every entry resolves to a strict
// descendant of rootAbs and is a plain file or directory. It fails on
// the first violation, naming the offending entry.
func validateEntries(entries []archiveEntry, rootAbs string) error {
	for _, entry := range entries {
		if entry.kind == kindOther {
			return fmt.Errorf("%w: special entry %q", ErrUnsafePath, entry.path)
		}

		if _, err := entryDestination(rootAbs, entry.path); err != nil {
			if errors.Is(err, ErrInvalidEntryPath) && entry.kind == kindDir {
				// Container formats commonly carry a bare "." or "/" directory record.
				continue
			}

			return err
		}
	}

	return nil
}

// listEntries enumerates entry paths and kinds without extracting.
// Zip archives expose a full name index from the central directory;
// tar-family archives are scanned in one streaming pass.
func listEntries(archivePath string, format Format) ([]archiveEntry, error) {
	if format == FormatZip {
		return listZipEntries(archivePath)
	}

	return listTarEntries(archivePath, format)
}

// listZipEntries reads the zip central directory index.
func listZipEntries(archivePath string) ([]archiveEntry, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
		}

		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	entries := make([]archiveEntry, 0, len(zr.File))
	for _, file := range zr.File {
		entries = append(entries, archiveEntry{
			path: file.Name,
			kind: classifyMode(file.Mode(), strings.HasSuffix(file.Name, "/")),
		})
	}

	return entries, nil
}

// listTarEntries scans the compressed tar stream for entry headers.
func listTarEntries(archivePath string, format Format) ([]archiveEntry, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	decompressor, err := newCompressionReader(file, format)
	if err != nil {
		return nil, err
	}
	defer func() { _ = decompressor.Close() }()

	tr := tar.NewReader(decompressor)
	var entries []archiveEntry
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: tar: %v", ErrCorruptArchive, err)
		}

		entries = append(entries, archiveEntry{
			path: header.Name,
			kind: classifyTarType(header.Typeflag),
		})
	}
}

// classifyMode maps a file mode to an entry kind.
func classifyMode(mode fs.FileMode, trailingSlash bool) entryKind {
	switch {
	case mode.IsDir() || trailingSlash:
		return kindDir
	case mode.IsRegular():
		return kindFile
	default:
		return kindOther
	}
}

// classifyTarType maps a tar type flag to an entry kind.
func classifyTarType(typeflag byte) entryKind {
	switch typeflag {
	case tar.TypeReg:
		return kindFile
	case tar.TypeDir:
		return kindDir
	default:
		return kindOther
	}
}

// extractZip writes every zip entry into rootAbs, preserving structure.
func extractZip(archivePath string, rootAbs string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("reopen zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	copyBuf := make([]byte, copyBufferSize)
	for _, file := range zr.File {
		if classifyMode(file.Mode(), strings.HasSuffix(file.Name, "/")) == kindDir {
			if err := makeEntryDir(rootAbs, file.Name); err != nil {
				return err
			}

			continue
		}

		payload, err := file.Open()
		if err != nil {
			return fmt.Errorf("%w: entry %s: %v", ErrCorruptArchive, file.Name, err)
		}

		err = writeEntryFile(rootAbs, file.Name, payload, copyBuf)
		closeErr := payload.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return fmt.Errorf("close entry %s: %w", file.Name, closeErr)
		}
	}

	return nil
}

// extractTar writes every tar entry into rootAbs, preserving structure.
func extractTar(archivePath string, format Format, rootAbs string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("reopen archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	decompressor, err := newCompressionReader(file, format)
	if err != nil {
		return err
	}
	defer func() { _ = decompressor.Close() }()

	tr := tar.NewReader(decompressor)
	copyBuf := make([]byte, copyBufferSize)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: tar: %v", ErrCorruptArchive, err)
		}

		switch classifyTarType(header.Typeflag) {
		case kindDir:
			if err := makeEntryDir(rootAbs, header.Name); err != nil {
				return err
			}
		case kindFile:
			if err := writeEntryFile(rootAbs, header.Name, tr, copyBuf); err != nil {
				return err
			}
		}
	}
}

// makeEntryDir creates one directory entry under rootAbs.
func makeEntryDir(rootAbs string, entryPath string) error {
	dest, err := entryDestination(rootAbs, entryPath)
	if err != nil {
		if errors.Is(err, ErrInvalidEntryPath) {
			// Bare "." or "/" directory record resolves to the root itself.
			return nil
		}

		return err
	}

	if err := os.MkdirAll(dest, dirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", entryPath, err)
	}

	return nil
}

// writeEntryFile streams one regular file entry into rootAbs with truncation.
func writeEntryFile(rootAbs string, entryPath string, payload io.Reader, copyBuf []byte) error {
	dest, err := entryDestination(rootAbs, entryPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), dirMode); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", entryPath, err)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return fmt.Errorf("open %s: %w", entryPath, err)
	}

	_, copyErr := copyPayload(out, payload, copyBuf)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("write %s: %w", entryPath, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", entryPath, closeErr)
	}

	return nil
}
