// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	archive "github.com/yamaton/jupyter-archive"
)

// archiveTokenCookie is echoed back so browser clients can observe
// that the download response has started.
const archiveTokenCookie = "archiveToken"

// handleCreateArchive streams a directory under the serve root as a
// freshly written archive. Response framing is deferred to the first
// streamed byte, so resolution failures can still produce a clean
// error status.
func (s *Server) handleCreateArchive(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	rawPath := query.Get("archivePath")
	if rawPath == "" {
		writeJSON(w, http.StatusBadRequest, "archivePath query parameter is required")
		return
	}

	formatToken := query.Get("archiveFormat")
	if formatToken == "" {
		formatToken = "zip"
	}
	format, err := archive.ResolveFormatToken(formatToken)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, fmt.Sprintf("unsupported archive format: %s", formatToken))
		return
	}

	sourceDir, err := s.resolveServePath(rawPath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, "not found")
		return
	}

	filename := fmt.Sprintf("%s.%s", filepath.Base(sourceDir), normalizeFormatToken(formatToken))
	sink := newResponseSink(w, filename, query.Get(archiveTokenCookie))

	s.logger.Info("archiving", "source", sourceDir, "format", format)

	err = s.submit(func() error {
		return archive.WriteArchive(r.Context(), sourceDir, sink, format, archive.WriteOptions{})
	})
	if err != nil {
		if sink.Started() {
			// Framing already went out; the truncated body is the
			// only failure signal left to the client.
			s.logger.Error("archive stream aborted", "source", sourceDir, "error", err)
			return
		}

		switch {
		case errors.Is(err, os.ErrNotExist):
			writeJSON(w, http.StatusNotFound, "not found")
		case errors.Is(err, archive.ErrNotDirectory):
			writeJSON(w, http.StatusBadRequest, "archivePath is not a directory")
		default:
			s.logger.Error("archive failed", "source", sourceDir, "error", err)
			writeJSON(w, http.StatusInternalServerError, "archive creation failed")
		}
		return
	}

	s.logger.Info("finished archiving", "filename", filename, "bytes", sink.Offset())
}

// handleExtract extracts an uploaded archive under the serve root into
// the retention root and responds with the URL of the extracted data.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if !sameOrigin(r) {
		writeJSON(w, http.StatusForbidden, "cross-origin request rejected")
		return
	}

	relPath := archive.NormalizePath(r.PathValue("path"))
	if relPath == "" {
		writeJSON(w, http.StatusBadRequest, "archive path is required")
		return
	}

	if hasHiddenSegment(relPath) || !s.allowed(relPath) {
		s.logger.Info("refusing hidden or forbidden source", "path", relPath)
		writeJSON(w, http.StatusNotFound, "not found")
		return
	}

	archivePath, err := s.resolveServePath(relPath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, "not found")
		return
	}

	identifier, err := archive.Identify(archivePath)
	if err != nil {
		if errors.Is(err, archive.ErrUnsupportedFormat) {
			writeJSON(w, http.StatusBadRequest, fmt.Sprintf("unsupported archive: %s", filepath.Base(archivePath)))
			return
		}

		msg := fmt.Sprintf("failed to resolve identity of %s", filepath.Base(archivePath))
		s.logger.Error(msg, "error", err)
		writeJSON(w, http.StatusInternalServerError, msg)
		return
	}

	if _, err := archive.Sweep(s.cfg.ExtractRoot, s.cfg.RetentionDays, s.logger); err != nil {
		s.logger.Warn("retention sweep failed", "root", s.cfg.ExtractRoot, "error", err)
	}

	s.logger.Info("extracting",
		"archive", archivePath,
		"destination", s.cfg.ExtractRoot,
		"identifier", identifier,
		"uuid_shaped", archive.IsUUIDShaped(identifier),
	)

	err = s.submit(func() error {
		_, err := archive.Extract(archivePath, s.cfg.ExtractRoot)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrUnsafePath):
			writeJSON(w, http.StatusBadRequest, "the archive includes an unsafe file path")
		case errors.Is(err, archive.ErrUnsupportedFormat):
			writeJSON(w, http.StatusBadRequest, fmt.Sprintf("unsupported archive: %s", filepath.Base(archivePath)))
		default:
			s.logger.Error("extraction failed", "archive", archivePath, "error", err)
			writeJSON(w, http.StatusInternalServerError, "extraction failed")
		}
		return
	}

	destinationDir := filepath.Join(s.cfg.ExtractRoot, identifier)
	if err := archive.WriteMarker(destinationDir, time.Now()); err != nil {
		s.logger.Error("failed to write retention marker", "dir", destinationDir, "error", err)
		writeJSON(w, http.StatusInternalServerError, "extraction failed")
		return
	}

	// The trailing slash before the fragment matters to the viewer.
	resultURL := path.Join(s.cfg.ServicePrefix, "view", s.cfg.ExtractDirName, identifier, "data") + "/#"
	s.logger.Info("finished extracting", "archive", archivePath, "identifier", identifier)
	writeJSON(w, http.StatusOK, resultURL)
}

// resolveServePath resolves a request path against the serve root and
// confirms the result stays inside it.
func (s *Server) resolveServePath(requestPath string) (string, error) {
	rootAbs, err := filepath.Abs(s.cfg.ServeRoot)
	if err != nil {
		return "", fmt.Errorf("resolve serve root: %w", err)
	}

	cleaned := archive.NormalizePath(requestPath)
	if cleaned == "" {
		return "", fmt.Errorf("empty request path")
	}

	resolved := filepath.Join(rootAbs, filepath.FromSlash(cleaned))
	rel, err := filepath.Rel(rootAbs, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("request path escapes serve root: %s", requestPath)
	}

	return resolved, nil
}

// allowed reports whether the configured source policy permits the path.
func (s *Server) allowed(relPath string) bool {
	if s.forbidden == nil {
		return true
	}

	return s.forbidden.Included(relPath, false)
}

// hasHiddenSegment reports whether any path segment is a dotfile.
func hasHiddenSegment(relPath string) bool {
	for _, segment := range strings.Split(relPath, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}

	return false
}

// sameOrigin verifies that a stated Origin or Referer matches the
// request host. Requests stating neither, such as non-browser clients,
// pass.
func sameOrigin(r *http.Request) bool {
	stated := r.Header.Get("Origin")
	if stated == "" {
		stated = r.Header.Get("Referer")
	}
	if stated == "" {
		return true
	}

	parsed, err := url.Parse(stated)
	if err != nil {
		return false
	}

	return parsed.Host == r.Host
}

// writeJSON emits the service's single-field JSON envelope.
func writeJSON(w http.ResponseWriter, status int, data string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"data": data})
}

// responseSink adapts an http.ResponseWriter into an archive sink.
// Framing headers and the completion cookie go out immediately before
// the first streamed byte, never earlier, so pre-stream failures keep
// the response unstarted.
type responseSink struct {
	w        http.ResponseWriter
	filename string
	token    string
	offset   int64
	started  bool
}

// newResponseSink wraps w for one archive download response.
func newResponseSink(w http.ResponseWriter, filename string, token string) *responseSink {
	return &responseSink{w: w, filename: filename, token: token}
}

// Write streams archive bytes to the client, emitting framing first.
func (s *responseSink) Write(p []byte) (int, error) {
	if !s.started {
		s.begin()
	}

	n, err := s.w.Write(p)
	s.offset += int64(n)
	return n, err
}

// Offset returns the number of body bytes streamed so far.
func (s *responseSink) Offset() int64 {
	return s.offset
}

// Flush pushes buffered bytes toward the client when supported.
func (s *responseSink) Flush() error {
	if !s.started {
		return nil
	}
	if flusher, ok := s.w.(http.Flusher); ok {
		flusher.Flush()
	}

	return nil
}

// Started reports whether any body byte has been streamed.
func (s *responseSink) Started() bool {
	return s.started
}

// begin emits the download framing headers and the token cookie.
func (s *responseSink) begin() {
	header := s.w.Header()
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.filename))
	if s.token != "" {
		http.SetCookie(s.w, &http.Cookie{Name: archiveTokenCookie, Value: s.token, Path: "/"})
	}

	s.started = true
}

// normalizeFormatToken lowercases a request format token for filenames.
func normalizeFormatToken(token string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(token)), ".")
}
