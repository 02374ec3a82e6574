// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatTimestamp renders a message time relative to now: clock time
// for today, weekday for the past week, full date beyond that.
func formatTimestamp(t time.Time) string {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case t.After(today):
		return t.Format("15:04")
	case t.After(today.AddDate(0, 0, -6)):
		return t.Format("Mon 15:04")
	default:
		return t.Format("Jan 2 15:04")
	}
}

// formatInt converts an int to string without fmt.
func formatInt(n int) string {
	if n == 0 {
		return "0"
	}

	neg := n < 0
	if neg {
		n = -n
	}

	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// formatNumberWithCommas renders an int with thousands separators.
func formatNumberWithCommas(n int) string {
	s := formatInt(n)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var out strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		out.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if out.Len() > 0 {
			out.WriteByte(',')
		}
		out.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + out.String()
	}
	return out.String()
}

// =============================================================================
// TEXT LAYOUT
// =============================================================================

// wrapText wraps text to the given width, breaking at spaces where
// possible. Rune-safe; words longer than the width are hard-broken.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}

	var out strings.Builder
	for len(runes) > width {
		// Look for the last space within the width.
		cut := -1
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		if cut <= 0 {
			// No space; hard break.
			out.WriteString(string(runes[:width]))
			out.WriteByte('\n')
			runes = runes[width:]
			continue
		}
		out.WriteString(string(runes[:cut]))
		out.WriteByte('\n')
		runes = runes[cut+1:]
	}
	out.WriteString(string(runes))
	return out.String()
}

// calculateContentWidth returns the usable width for message content
// inside a bubble, leaving room for borders and padding.
func calculateContentWidth(totalWidth int) int {
	w := totalWidth - 10
	if w < 20 {
		w = 20
	}
	return w
}

// truncateToWidth shortens a string to fit, appending an ellipsis.
func truncateToWidth(s string, width int) string {
	return util.TruncateRunes(s, width)
}

// =============================================================================
// CLIPBOARD
// =============================================================================

// copyToClipboard writes text to the system clipboard.
func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}
