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
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Identify derives the extraction identifier for the archive at
// archivePath: the first path segment of the archive's first listed
// entry. The identifier keys the extraction destination and the result
// URL; by convention the entries of one archive share a UUID-shaped
// top-level directory, but no shape or uniqueness is enforced here.
func Identify(archivePath string) (string, error) {
	format, err := ResolveArchivePath(archivePath)
	if err != nil {
		return "", err
	}

	first, err := firstEntryPath(archivePath, format)
	if err != nil {
		return "", err
	}

	identifier := firstPathSegment(first)
	if identifier == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyArchive, filepath.Base(archivePath))
	}

	return identifier, nil
}

// IsUUIDShaped reports whether identifier parses as a canonical UUID.
// Used for diagnostics only; identity derivation never enforces it.
func IsUUIDShaped(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

// firstEntryPath returns the path of the archive's first listed entry.
func firstEntryPath(archivePath string, format Format) (string, error) {
	if format == FormatZip {
		return firstZipEntryPath(archivePath)
	}

	return firstTarEntryPath(archivePath, format)
}

// firstZipEntryPath reads the first name from the zip central directory.
func firstZipEntryPath(archivePath string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return "", fmt.Errorf("%w: %v", ErrCorruptArchive, err)
		}

		return "", fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	if len(zr.File) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyArchive, filepath.Base(archivePath))
	}

	return zr.File[0].Name, nil
}

// firstTarEntryPath reads the first header from the compressed tar stream.
func firstTarEntryPath(archivePath string, format Format) (string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = file.Close() }()

	decompressor, err := newCompressionReader(file, format)
	if err != nil {
		return "", err
	}
	defer func() { _ = decompressor.Close() }()

	header, err := tar.NewReader(decompressor).Next()
	if err == io.EOF {
		return "", fmt.Errorf("%w: %s", ErrEmptyArchive, filepath.Base(archivePath))
	}
	if err != nil {
		return "", fmt.Errorf("%w: tar: %v", ErrCorruptArchive, err)
	}

	return header.Name, nil
}
