// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import "errors"

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrUnsupportedFormat means the format token or filename suffix matches no known codec.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrUnsafePath means an archive entry would land outside the extraction destination root.
	ErrUnsafePath = errors.New("archive entry path escapes destination root")
	// ErrCorruptArchive means the underlying codec could not parse the archive stream.
	ErrCorruptArchive = errors.New("corrupt or unreadable archive")
	// ErrEmptyArchive means the archive holds no entries to derive an identity from.
	ErrEmptyArchive = errors.New("archive contains no entries")
	// ErrNilSink means the output sink is nil.
	ErrNilSink = errors.New("sink is nil")
	// ErrInvalidEntryPath means an entry path is empty or invalid after normalization.
	ErrInvalidEntryPath = errors.New("invalid entry path")
	// ErrInvalidEntryRules means one or more entry selection rules are invalid.
	ErrInvalidEntryRules = errors.New("invalid entry selection rules")
	// ErrNotDirectory means the archive source path is not a directory.
	ErrNotDirectory = errors.New("source path is not a directory")
)
