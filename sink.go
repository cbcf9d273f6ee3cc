// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package archive

import "io"

// Sink is the streaming target contract for archive writing: an
// append-only byte stream that reports its current offset and can
// flush buffered bytes toward the underlying transport. Any object
// satisfying this contract can serve as the destination, which keeps
// the archive writer decoupled from HTTP responses, files, and
// in-memory buffers alike.
type Sink interface {
	io.Writer
	// Offset returns the number of bytes accepted by the sink so far.
	Offset() int64
	// Flush pushes buffered bytes to the underlying transport.
	Flush() error
}

// CountingSink adapts a plain io.Writer into a Sink by tracking the
// write position. Flush is forwarded when the wrapped writer supports
// it and is a no-op otherwise.
type CountingSink struct {
	w      io.Writer
	offset int64
}

// NewCountingSink wraps w into a position-tracking Sink.
func NewCountingSink(w io.Writer) *CountingSink {
	return &CountingSink{w: w}
}

// Write appends p to the wrapped writer and advances the offset.
func (s *CountingSink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.offset += int64(n)
	return n, err
}

// Offset returns the number of bytes written so far.
func (s *CountingSink) Offset() int64 {
	return s.offset
}

// Flush forwards to the wrapped writer's Flush when available.
func (s *CountingSink) Flush() error {
	switch target := s.w.(type) {
	case interface{ Flush() error }:
		return target.Flush()
	case interface{ Flush() }:
		target.Flush()
	}

	return nil
}
