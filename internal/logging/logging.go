// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides file-based diagnostic logging for parley.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	logger  zerolog.Logger
	logFile *os.File
	mu      sync.Mutex
	ready   bool
)

func init() {
	// Until Init runs, log calls are discarded.
	logger = zerolog.New(nil).Level(zerolog.Disabled)
}

// DefaultDir returns the default log directory (~/.parley/logs).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley", "logs"), nil
}

// ResolveDir picks the log directory: an explicit path wins, then the
// PARLEY_LOG_PATH environment variable, then the default location.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absPath(flagPath)
	}
	if envPath := os.Getenv("PARLEY_LOG_PATH"); envPath != "" {
		return absPath(envPath)
	}
	return DefaultDir()
}

func absPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

// Init opens the log file and configures the global logger.
// level accepts zerolog level names ("debug", "info", "warn", "error");
// unknown values fall back to "info".
func Init(dir, level string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(dir, "parley.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger = zerolog.New(f).Level(lvl).With().Timestamp().Int("pid", os.Getpid()).Logger()
	ready = true
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = zerolog.New(nil).Level(zerolog.Disabled)
	ready = false
}

// Ready reports whether Init has completed.
func Ready() bool {
	mu.Lock()
	defer mu.Unlock()
	return ready
}

// Debug starts a debug-level event on the global logger.
func Debug() *zerolog.Event { return logger.Debug() }

// Info starts an info-level event on the global logger.
func Info() *zerolog.Event { return logger.Info() }

// Warn starts a warn-level event on the global logger.
func Warn() *zerolog.Event { return logger.Warn() }

// Error starts an error-level event on the global logger.
func Error() *zerolog.Event { return logger.Error() }
