// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection and handling for the parley CLI.
//
// TTY detection drives markdown rendering, color output, and prompting:
// interactive terminals get the full treatment, piped output stays plain,
// and CI environments are respected via NO_COLOR.
package cli

import (
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

func isTerm(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool { return isTerm(os.Stdin) }

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool { return isTerm(os.Stdout) }

// IsStderrTTY returns true if stderr is a terminal.
func IsStderrTTY() bool { return isTerm(os.Stderr) }

// =============================================================================
// TERMINAL WIDTH
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width used for wrapping
	MinTerminalWidth = 40
)

// GetTerminalWidth reports the stdout width, clamped to
// MinTerminalWidth, or DefaultTerminalWidth when detection fails.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	switch {
	case err != nil || width <= 0:
		return DefaultTerminalWidth
	case width < MinTerminalWidth:
		return MinTerminalWidth
	default:
		return width
	}
}

// WrapText word-wraps text to maxWidth, preserving existing newlines.
// A non-positive maxWidth means the detected terminal width. A small
// right margin is reserved for readability.
func WrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = GetTerminalWidth()
	}
	if maxWidth > 10 {
		maxWidth -= 2
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(wrapOneLine(line, maxWidth))
	}
	return out.String()
}

func wrapOneLine(line string, maxWidth int) string {
	if len(line) <= maxWidth {
		return line
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return ""
	}

	var out strings.Builder
	cur := words[0]
	for _, word := range words[1:] {
		if len(cur)+1+len(word) <= maxWidth {
			cur += " " + word
			continue
		}
		out.WriteString(cur)
		out.WriteByte('\n')
		cur = word
	}
	out.WriteString(cur)
	return out.String()
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

var (
	colorsEnabled     bool
	colorsEnabledOnce sync.Once
)

// ColorsEnabled reports whether colored output should be used, decided
// once per process: NO_COLOR wins, then FORCE_COLOR, then whether
// stdout is a TTY. See https://no-color.org/ for NO_COLOR.
func ColorsEnabled() bool {
	colorsEnabledOnce.Do(func() {
		switch {
		case os.Getenv("NO_COLOR") != "":
			colorsEnabled = false
		case os.Getenv("FORCE_COLOR") != "":
			colorsEnabled = true
		default:
			colorsEnabled = IsStdoutTTY()
		}
	})
	return colorsEnabled
}

// GetColorProfile returns the termenv profile to render with, Ascii
// when colors are disabled.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}
