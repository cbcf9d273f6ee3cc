// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// NormalizePath converts an archive entry path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, `\`, "/")
	raw = strings.TrimPrefix(raw, "./")
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizeEntryPath normalizes an archive entry path and rejects absolute or escaping inputs.
// ".." segments are resolved lexically, so "a/../b.txt" stays valid as "b.txt"; a path that
// climbs above its own root maps to ErrUnsafePath, as do absolute forms. Empty or malformed
// forms map to ErrInvalidEntryPath.
func normalizeEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" {
		return "", ErrInvalidEntryPath
	}
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidEntryPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrUnsafePath
	}

	raw = strings.ReplaceAll(raw, `\`, "/")
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrUnsafePath
	}

	parts := strings.Split(raw, "/")
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(cleanParts) == 0 {
				return "", ErrUnsafePath
			}
			cleanParts = cleanParts[:len(cleanParts)-1]
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidEntryPath
	}

	return strings.Join(cleanParts, "/"), nil
}

// entryDestination resolves one entry path against the destination root and
// verifies the result stays a descendant of the root.
func entryDestination(rootAbs string, entryPath string) (string, error) {
	normalized, err := normalizeEntryPath(entryPath)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, entryPath)
	}

	candidate := filepath.Join(rootAbs, filepath.FromSlash(normalized))
	rel, err := filepath.Rel(rootAbs, candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, entryPath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, entryPath)
	}

	return candidate, nil
}

// firstPathSegment returns the leading path component of an archive entry path.
func firstPathSegment(entryPath string) string {
	normalized := NormalizePath(entryPath)
	if idx := strings.IndexByte(normalized, '/'); idx >= 0 {
		return normalized[:idx]
	}

	return normalized
}

// hasWindowsAbsDrivePrefix reports whether path starts with drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	return isASCIIAlpha(path[0]) && path[1] == ':' && path[2] == '/'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
