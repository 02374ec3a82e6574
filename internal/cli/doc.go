// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements parley's command-line surface: argument parsing,
// the ask and chat commands, status and doctor diagnostics, and config
// management.
//
// The package follows one error-handling convention: handlers always
// return errors and the top-level wrappers in cli.go decide how to
// display them and which exit code to use. Output styling is shared
// through styles.go and automatically degrades for non-TTY output.
package cli
