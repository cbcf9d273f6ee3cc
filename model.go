// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"time"

	"github.com/woozymasta/pathrules"
)

// Filesystem layout and retention constants.
const (
	// MarkerFileName is the per-extraction timestamp marker written inside each extracted directory.
	MarkerFileName = "_created"
	// DefaultRetentionDays is the default marker age threshold for Sweep.
	DefaultRetentionDays = 10
	// markerDateLayout is the ISO-8601 date format stored in marker files.
	markerDateLayout = "2006-01-02"
)

// Default extraction and streaming tuning values.
const (
	// copyBufferSize is the per-operation buffer used by streaming payload copy.
	copyBufferSize = 64 * 1024
	// dirMode is the permission applied to directories created during extraction.
	dirMode = 0o750
	// fileMode is the permission applied to files written during extraction.
	fileMode = 0o600
)

// Format identifies one supported archive codec: a container format
// paired with a compression algorithm.
type Format string

// Supported archive formats.
const (
	// FormatZip is a zip container with per-entry deflate compression.
	FormatZip Format = "zip"
	// FormatTarGzip is a tar container compressed with gzip.
	FormatTarGzip Format = "tar.gz"
	// FormatTarBzip2 is a tar container compressed with bzip2.
	FormatTarBzip2 Format = "tar.bz2"
	// FormatTarXz is a tar container compressed with xz.
	FormatTarXz Format = "tar.xz"
)

// IsTar reports whether the format uses a tar container.
func (f Format) IsTar() bool {
	return f == FormatTarGzip || f == FormatTarBzip2 || f == FormatTarXz
}

// WriteOptions configures WriteArchive behavior.
type WriteOptions struct {
	// OnEntryDone is called after one entry is fully streamed to the sink.
	OnEntryDone func(entry WrittenEntry) `json:"-" yaml:"-"`
	// Rules define ordered path rules selecting which files enter the archive.
	// Empty rule set selects every regular file.
	Rules []pathrules.Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
	// MatcherOptions control entry selection rule matching.
	MatcherOptions pathrules.MatcherOptions `json:"matcher_options,omitzero" yaml:"matcher_options,omitzero"`
}

// WrittenEntry contains one completed entry write event from the archive writer.
type WrittenEntry struct {
	// Path is the entry path stored in the archive.
	Path string `json:"path" yaml:"path"`
	// Size is the payload size streamed for this entry.
	Size int64 `json:"size" yaml:"size"`
	// Offset is the sink offset after the entry was flushed.
	Offset int64 `json:"offset" yaml:"offset"`
}

// ExtractionRecord describes one completed extraction.
type ExtractionRecord struct {
	// Identifier is the first path segment of the archive's first entry.
	Identifier string `json:"identifier" yaml:"identifier"`
	// DestinationDir is the directory keyed by Identifier under the destination root.
	DestinationDir string `json:"destination_dir" yaml:"destination_dir"`
	// CreatedAt is the extraction time persisted by WriteMarker.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// applyDefaults fills zero-valued write options with defaults.
func (opts *WriteOptions) applyDefaults() {
	if opts.MatcherOptions == (pathrules.MatcherOptions{}) {
		opts.MatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.MatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.MatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}
