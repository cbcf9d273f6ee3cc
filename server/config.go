// SPDX-License-Identifier: MIT
// Copyright (c) 2026 yamaton
// Source: github.com/yamaton/jupyter-archive

package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config is the daemon configuration, populated from the environment.
type Config struct {
	// Address is the TCP listen address.
	Address string `env:"JA_ADDRESS" envDefault:"127.0.0.1:8888"`
	// ServeRoot is the managed directory that archive sources and
	// uploaded archives are resolved against. Defaults to the
	// working directory.
	ServeRoot string `env:"JA_SERVE_ROOT"`
	// ExtractRoot is the retention root that uploads are extracted
	// into and that the sweeper scans. Defaults to
	// <home>/<ExtractDirName>.
	ExtractRoot string `env:"JA_EXTRACT_ROOT"`
	// ExtractDirName names the retention root inside the home
	// directory and appears in result URLs.
	ExtractDirName string `env:"JA_EXTRACT_DIR_NAME" envDefault:"_extracted"`
	// ServicePrefix is prepended to result URLs, mirroring the
	// prefix the hosting proxy mounts this service under.
	ServicePrefix string `env:"JA_SERVICE_PREFIX" envDefault:"/"`
	// RetentionDays is the whole-day age threshold for the sweep.
	// Directories strictly older are removed.
	RetentionDays int `env:"JA_RETENTION_DAYS" envDefault:"10"`
	// Workers is the number of goroutines executing archive and
	// extraction jobs handed off by the request handlers.
	Workers int `env:"JA_WORKERS" envDefault:"2"`
	// ForbiddenPatterns lists path glob patterns that extraction
	// requests may never name, on top of the always-on hidden
	// dotfile policy.
	ForbiddenPatterns []string `env:"JA_FORBIDDEN_PATTERNS" envSeparator:","`
	// ShutdownTimeoutSeconds bounds the graceful shutdown drain.
	ShutdownTimeoutSeconds int `env:"JA_SHUTDOWN_TIMEOUT_SECONDS" envDefault:"10"`
}

// Load reads the configuration from the environment and fills the
// derived defaults.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.ServeRoot == "" {
		cfg.ServeRoot, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
	}

	if cfg.ExtractRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.ExtractRoot = filepath.Join(home, cfg.ExtractDirName)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate rejects configurations the server cannot run with.
func (c Config) validate() error {
	if c.Address == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Workers)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention threshold must not be negative, got %d", c.RetentionDays)
	}
	if c.ExtractDirName == "" {
		return fmt.Errorf("extraction directory name must not be empty")
	}

	return nil
}
