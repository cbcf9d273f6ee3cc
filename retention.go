// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WriteMarker persists the extraction date marker inside destinationDir.
// The marker file holds a single ISO-8601 date line and is the sole
// source of truth for retention decisions.
func WriteMarker(destinationDir string, createdAt time.Time) error {
	if err := os.MkdirAll(destinationDir, dirMode); err != nil {
		return fmt.Errorf("create marker directory: %w", err)
	}

	markerPath := filepath.Join(destinationDir, MarkerFileName)
	line := createdAt.Format(markerDateLayout) + "\n"
	if err := os.WriteFile(markerPath, []byte(line), fileMode); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}

	return nil
}

// ReadMarker parses the extraction date recorded in destinationDir.
func ReadMarker(destinationDir string) (time.Time, error) {
	markerPath := filepath.Join(destinationDir, MarkerFileName)
	raw, err := os.ReadFile(markerPath)
	if err != nil {
		return time.Time{}, err
	}

	created, err := time.Parse(markerDateLayout, strings.TrimSpace(string(raw)))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse marker date: %w", err)
	}

	return created, nil
}

// Sweep removes every immediate child directory of root whose marker
// age in calendar days exceeds thresholdDays; directories exactly at the
// threshold are retained. The sweep is best-effort cleanup: unreadable
// markers and failed removals are logged and skipped, never aborting
// the scan of remaining candidates. Children without a marker are left
// untouched. Returns the number of directories removed.
func Sweep(root string, thresholdDays int, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	children, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}

		return 0, fmt.Errorf("read retention root: %w", err)
	}

	now := time.Now()
	removed := 0
	for _, child := range children {
		if !child.IsDir() {
			continue
		}

		childDir := filepath.Join(root, child.Name())
		created, err := ReadMarker(childDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			logger.Warn("skipping unreadable retention marker", "dir", childDir, "error", err)
			continue
		}

		age := wholeDays(now, created)
		if age <= thresholdDays {
			continue
		}

		if err := os.RemoveAll(childDir); err != nil {
			logger.Error("failed to remove outdated directory", "dir", childDir, "error", err)
			continue
		}

		logger.Info("cleaned up outdated directory", "dir", childDir, "age_days", age)
		removed++
	}

	return removed, nil
}

// wholeDays returns the number of calendar days from created to now.
// Both instants collapse to their own calendar date first, so the age
// never lags behind the date arithmetic of the marker regardless of
// the zone now is expressed in.
func wholeDays(now time.Time, created time.Time) int {
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	createdDate := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)

	days := int(nowDate.Sub(createdDate).Hours() / 24)
	if days < 0 {
		return 0
	}

	return days
}
