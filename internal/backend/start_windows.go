// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows
// +build windows

// Package backend provides the HTTP client for the parley assistant backend.
package backend

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// backendExecutable is the name of the backend server binary.
const backendExecutable = "parley-backend.exe"

// startupDeadline bounds how long we wait for the backend to come up.
const startupDeadline = 20 * time.Second

// Windows-specific creation flags
const (
	// CREATE_NO_WINDOW prevents a console window from being created
	CREATE_NO_WINDOW = 0x08000000
	// DETACHED_PROCESS creates a new process that is detached from the console
	DETACHED_PROCESS = 0x00000008
)

// findBackendExecutable searches for the backend server in PATH and common
// installation locations on Windows.
func findBackendExecutable() (string, error) {
	if path, err := exec.LookPath(backendExecutable); err == nil {
		return path, nil
	}
	if path, err := exec.LookPath("parley-backend"); err == nil {
		return path, nil
	}

	possiblePaths := []string{}

	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		possiblePaths = append(possiblePaths, filepath.Join(localAppData, "Programs", "Parley", backendExecutable))
	}

	possiblePaths = append(possiblePaths,
		filepath.Join(`C:\Program Files\Parley`, backendExecutable),
		filepath.Join(`C:\Program Files (x86)\Parley`, backendExecutable),
	)

	if userProfile := os.Getenv("USERPROFILE"); userProfile != "" {
		possiblePaths = append(possiblePaths,
			filepath.Join(userProfile, ".parley", "bin", backendExecutable),
		)
	}

	for _, p := range possiblePaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s not found in PATH or common installation directories. "+
		"Checked: PATH, %%LOCALAPPDATA%%\\Programs\\Parley, C:\\Program Files\\Parley", backendExecutable)
}

// startBackendProcess starts the backend server on Windows and waits until it
// answers health checks.
func (c *Client) startBackendProcess(ctx context.Context) error {
	path, err := findBackendExecutable()
	if err != nil {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: "failed to find backend executable",
			Cause:   err,
		}
	}

	cmd := exec.Command(path)
	cmd.Env = os.Environ()

	// Detach from the console so the backend runs independently and no
	// window flashes up.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: CREATE_NO_WINDOW | DETACHED_PROCESS,
	}
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return &ClientError{
			Type:    ErrTypeConnection,
			Message: fmt.Sprintf("failed to start backend (path: %s)", path),
			Cause:   err,
		}
	}

	if cmd.Process != nil {
		if err := cmd.Process.Release(); err != nil {
			// Non-fatal: process started but release failed
		}
	}

	fmt.Fprintf(os.Stderr, "Starting parley backend...\n")

	deadline := time.Now().Add(startupDeadline)
	startTime := time.Now()
	var lastErr error

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return &ClientError{
				Type:    ErrTypeConnection,
				Message: "backend startup cancelled",
				Cause:   ctx.Err(),
			}
		default:
		}

		checkCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		lastErr = c.CheckRunning(checkCtx)
		cancel()

		if lastErr == nil {
			elapsed := time.Since(startTime)
			fmt.Fprintf(os.Stderr, "Backend started successfully (%.1fs)\n", elapsed.Seconds())
			return nil
		}

		elapsed := time.Since(startTime)
		fmt.Fprintf(os.Stderr, "\rStarting parley backend... %.1fs elapsed", elapsed.Seconds())

		time.Sleep(500 * time.Millisecond)
	}

	fmt.Fprintf(os.Stderr, "\n")

	return &ClientError{
		Type:    ErrTypeConnection,
		Message: fmt.Sprintf("backend started but not responding after %s (path: %s)", startupDeadline, path),
		Cause:   lastErr,
	}
}
