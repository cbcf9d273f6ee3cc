// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// markerDir creates a child of root carrying a marker dated daysAgo days back.
func markerDir(t *testing.T, root string, name string, daysAgo int) string {
	t.Helper()

	dir := filepath.Join(root, name)
	if err := WriteMarker(dir, time.Now().AddDate(0, 0, -daysAgo)); err != nil {
		t.Fatalf("WriteMarker(%s): %v", name, err)
	}

	return dir
}

func TestMarkerRoundTrip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "bundle")
	createdAt := time.Date(2026, time.March, 14, 15, 9, 26, 0, time.UTC)

	if err := WriteMarker(dir, createdAt); err != nil {
		t.Fatalf("WriteMarker: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, MarkerFileName))
	if err != nil {
		t.Fatalf("read marker file: %v", err)
	}
	if string(raw) != "2026-03-14\n" {
		t.Fatalf("marker content = %q, want %q", raw, "2026-03-14\n")
	}

	got, err := ReadMarker(dir)
	if err != nil {
		t.Fatalf("ReadMarker: %v", err)
	}
	if got.Format(markerDateLayout) != createdAt.Format(markerDateLayout) {
		t.Fatalf("ReadMarker=%v, want date %v", got, createdAt)
	}
}

func TestReadMarkerMissing(t *testing.T) {
	t.Parallel()

	if _, err := ReadMarker(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fresh := markerDir(t, root, "fresh", 0)
	mid := markerDir(t, root, "mid", 7)
	boundary := markerDir(t, root, "boundary", 10)
	old := markerDir(t, root, "old", 12)
	ancient := markerDir(t, root, "ancient", 40)

	// A directory without a marker and a plain file are never swept.
	unmarked := filepath.Join(root, "unmarked")
	if err := os.MkdirAll(unmarked, 0o750); err != nil {
		t.Fatalf("mkdir unmarked: %v", err)
	}
	loose := filepath.Join(root, "loose.txt")
	if err := os.WriteFile(loose, []byte("x"), 0o600); err != nil {
		t.Fatalf("write loose file: %v", err)
	}

	removed, err := Sweep(root, 10, logger)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Sweep removed %d directories, want 2", removed)
	}

	for _, dir := range []string{fresh, mid, boundary, unmarked, loose} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected %s to survive the sweep: %v", dir, err)
		}
	}
	for _, dir := range []string{old, ancient} {
		if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s to be removed, stat err=%v", dir, err)
		}
	}
}

func TestWholeDaysUsesCalendarDates(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		now  time.Time
		want int
	}{
		{
			name: "utc midday",
			now:  time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC),
			want: 11,
		},
		{
			// Early morning in a far-east zone: the elapsed duration
			// is under 11 full days but the calendar distance is 11.
			name: "ahead-of-utc early morning",
			now:  time.Date(2026, time.March, 20, 1, 0, 0, 0, time.FixedZone("UTC+13", 13*3600)),
			want: 11,
		},
		{
			name: "behind-utc late evening",
			now:  time.Date(2026, time.March, 20, 23, 0, 0, 0, time.FixedZone("UTC-9", -9*3600)),
			want: 11,
		},
		{
			name: "same day",
			now:  time.Date(2026, time.March, 9, 23, 59, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "created in the future",
			now:  time.Date(2026, time.March, 8, 12, 0, 0, 0, time.UTC),
			want: 0,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := wholeDays(tc.now, created); got != tc.want {
				t.Fatalf("wholeDays(%v, %v)=%d, want %d", tc.now, created, got, tc.want)
			}
		})
	}
}

func TestSweepUnreadableMarker(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mangled := filepath.Join(root, "mangled")
	if err := os.MkdirAll(mangled, 0o750); err != nil {
		t.Fatalf("mkdir mangled: %v", err)
	}
	markerPath := filepath.Join(mangled, MarkerFileName)
	if err := os.WriteFile(markerPath, []byte("not a date\n"), 0o600); err != nil {
		t.Fatalf("write mangled marker: %v", err)
	}

	removed, err := Sweep(root, 10, logger)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("Sweep removed %d directories, want 0", removed)
	}
	if _, err := os.Stat(mangled); err != nil {
		t.Fatalf("directory with unreadable marker was removed: %v", err)
	}
}

func TestSweepMissingRoot(t *testing.T) {
	t.Parallel()

	removed, err := Sweep(filepath.Join(t.TempDir(), "absent"), 10, nil)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("Sweep removed %d directories, want 0", removed)
	}
}
