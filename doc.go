// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

/*
Package archive streams directories into downloadable archives and
safely extracts uploaded archives into a retained destination root.
It is designed for streaming workflows: archive creation writes
incrementally to any Sink (write/offset/flush) without buffering the
whole archive, and extraction validates every entry path against the
destination root before a single byte is written.

Supported codecs: zip, tar+gzip, tar+bzip2, tar+xz.

# Creating an archive

Stream a directory to any Sink:

	sink := archive.NewCountingSink(w)
	err := archive.WriteArchive(ctx, "notebooks/project", sink, archive.FormatZip, archive.WriteOptions{})
	if err != nil {
	    return err
	}

Entry selection rules use github.com/woozymasta/pathrules:

	err := archive.WriteArchive(ctx, dir, sink, archive.FormatTarGzip, archive.WriteOptions{
	    Rules: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "notebooks/**"},
	        {Action: pathrules.ActionInclude, Pattern: "data/**"},
	    },
	})

# Extracting an archive

Extraction is two-pass and all-or-nothing: every entry path is
validated against the destination root first, and the archive is only
then reopened and extracted. ".." segments are resolved lexically; an
entry that climbs above the root after resolution, an absolute path, a
drive prefix, or a special entry type (symlink, device) fails the whole
operation with ErrUnsafePath and no file is created.

	record, err := archive.Extract("upload/report.tar.gz", extractRoot)
	if err != nil {
	    return err
	}

# Identity and retention

The extraction identifier is the first path segment of the archive's
first entry; archives conventionally share one UUID-shaped top-level
directory:

	id, err := archive.Identify("upload/report.zip")

Each extracted directory carries a "_created" marker holding an
ISO-8601 date. Sweep removes directories whose marker age exceeds the
threshold in whole days:

	removed, err := archive.Sweep(extractRoot, archive.DefaultRetentionDays, logger)
*/
package archive
