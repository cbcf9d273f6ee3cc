// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

// Command jupyter-archived serves the notebook archive endpoints:
// streaming archive downloads of managed directories and safe
// extraction of uploaded archives into the retention root.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yamaton/jupyter-archive/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := server.Load()
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting jupyter-archived",
		"address", cfg.Address,
		"serve_root", cfg.ServeRoot,
		"extract_root", cfg.ExtractRoot,
		"retention_days", cfg.RetentionDays,
		"workers", cfg.Workers,
	)

	return srv.Serve(ctx)
}
