// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"fmt"
	"strings"
)

// formatTokens maps accepted request tokens to archive formats.
var formatTokens = map[string]Format{
	"zip":     FormatZip,
	"tgz":     FormatTarGzip,
	"tar.gz":  FormatTarGzip,
	"tbz":     FormatTarBzip2,
	"tbz2":    FormatTarBzip2,
	"tar.bz":  FormatTarBzip2,
	"tar.bz2": FormatTarBzip2,
	"txz":     FormatTarXz,
	"tar.xz":  FormatTarXz,
}

// archiveSuffixes lists recognized dotted filename suffixes, longest first,
// so "name.tar.gz" is not misread as a bare ".gz" variant.
var archiveSuffixes = []struct {
	suffix string
	format Format
}{
	{".tar.bz2", FormatTarBzip2},
	{".tar.gz", FormatTarGzip},
	{".tar.xz", FormatTarXz},
	{".tar.bz", FormatTarBzip2},
	{".tbz2", FormatTarBzip2},
	{".tbz", FormatTarBzip2},
	{".tgz", FormatTarGzip},
	{".txz", FormatTarXz},
	{".zip", FormatZip},
}

// ResolveFormatToken maps a request format token to a concrete archive format.
func ResolveFormatToken(token string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	normalized = strings.TrimPrefix(normalized, ".")

	format, ok := formatTokens[normalized]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, token)
	}

	return format, nil
}

// ResolveArchivePath maps an archive filename to its format by suffix.
// The filename must end exactly with a recognized dotted suffix: a
// prefixed non-suffix match such as "archive.prefixzip" is rejected,
// guarding against spoofed extensions before any content is read.
func ResolveArchivePath(name string) (Format, error) {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for _, candidate := range archiveSuffixes {
		if strings.HasSuffix(lowered, candidate.suffix) {
			return candidate.format, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}
