// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/woozymasta/pathrules"
)

// job is one unit of archive or extraction work handed off by a
// request handler to the worker pool.
type job struct {
	run  func() error
	done chan error
}

// Server dispatches archive and extraction requests. Handlers stay on
// the request goroutine only long enough to hand the work to a fixed
// worker pool and block on its completion; there is no cancellation
// once a job has started.
type Server struct {
	cfg    Config
	logger *slog.Logger

	// forbidden rejects extraction sources matching the configured
	// patterns. Nil when no patterns are configured.
	forbidden *pathrules.Matcher

	handler http.Handler
	jobs    chan job
	workers sync.WaitGroup

	// ready is closed once the listener is bound.
	ready chan struct{}
	addr  net.Addr
}

// New assembles a server from the configuration and starts its worker
// pool. The pool runs until Serve completes its shutdown.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan job),
		ready:  make(chan struct{}),
	}

	if len(cfg.ForbiddenPatterns) > 0 {
		rules := make([]pathrules.Rule, 0, len(cfg.ForbiddenPatterns))
		for _, pattern := range cfg.ForbiddenPatterns {
			rules = append(rules, pathrules.Rule{
				Action:  pathrules.ActionExclude,
				Pattern: pattern,
			})
		}

		matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionInclude,
		})
		if err != nil {
			return nil, fmt.Errorf("compile forbidden patterns: %w", err)
		}
		s.forbidden = matcher
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /archive", s.handleCreateArchive)
	mux.HandleFunc("GET /extract/{path...}", s.handleExtract)
	s.handler = mux

	for i := 0; i < cfg.Workers; i++ {
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			for j := range s.jobs {
				j.done <- j.run()
			}
		}()
	}

	return s, nil
}

// Ready returns a channel closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Handler exposes the request router, so tests can drive the handlers
// through httptest without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve binds the listener and blocks until ctx is cancelled. Shutdown
// is graceful: new connections stop, active requests drain within the
// configured timeout, then the worker pool stops.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Address, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	httpServer := &http.Server{
		Handler: s.handler,

		// No WriteTimeout: archive downloads stream for as long as
		// the source tree and the client's link require.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
	case err := <-serveDone:
		s.stopWorkers()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(s.cfg.ShutdownTimeoutSeconds)*time.Second,
	)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)

	// All handlers have returned, so no further submissions can race
	// the close.
	s.stopWorkers()

	if shutdownErr != nil {
		return fmt.Errorf("shutdown: %w", shutdownErr)
	}

	s.logger.Info("stopped")
	return nil
}

// stopWorkers closes the job channel and waits for the pool to drain.
func (s *Server) stopWorkers() {
	close(s.jobs)
	s.workers.Wait()
}

// submit hands one job to the worker pool and blocks until it finishes.
func (s *Server) submit(run func() error) error {
	done := make(chan error, 1)
	s.jobs <- job{run: run, done: done}
	return <-done
}
