// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// FORMATTING TESTS
// =============================================================================

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{1, "1"},
		{42, "42"},
		{1000, "1000"},
		{-1, "-1"},
		{-1234, "-1234"},
	}

	for _, tt := range tests {
		if got := formatInt(tt.input); got != tt.expected {
			t.Errorf("formatInt(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatNumberWithCommas(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-1000, "-1,000"},
		{-1234567, "-1,234,567"},
	}

	for _, tt := range tests {
		if got := formatNumberWithCommas(tt.input); got != tt.expected {
			t.Errorf("formatNumberWithCommas(%d) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatTimestampToday(t *testing.T) {
	now := time.Now()
	got := formatTimestamp(now)

	if got != now.Format("15:04") {
		t.Errorf("Today's timestamp should be clock time, got %q", got)
	}
}

func TestFormatTimestampThisWeek(t *testing.T) {
	ts := time.Now().AddDate(0, 0, -3)
	got := formatTimestamp(ts)

	if got != ts.Format("Mon 15:04") {
		t.Errorf("Recent timestamp should include weekday, got %q", got)
	}
}

func TestFormatTimestampOlder(t *testing.T) {
	ts := time.Now().AddDate(0, 0, -30)
	got := formatTimestamp(ts)

	if got != ts.Format("Jan 2 15:04") {
		t.Errorf("Old timestamp should include date, got %q", got)
	}
}

// =============================================================================
// TEXT LAYOUT TESTS
// =============================================================================

func TestWrapTextShortLine(t *testing.T) {
	if got := wrapText("hello", 20); got != "hello" {
		t.Errorf("Short line should pass through, got %q", got)
	}
}

func TestWrapTextBreaksAtSpace(t *testing.T) {
	got := wrapText("hello world again", 11)

	for _, line := range strings.Split(got, "\n") {
		if len([]rune(line)) > 11 {
			t.Errorf("Line %q exceeds width 11", line)
		}
	}
	if !strings.Contains(got, "\n") {
		t.Error("Long text should wrap to multiple lines")
	}
}

func TestWrapTextHardBreaksLongWord(t *testing.T) {
	got := wrapText(strings.Repeat("a", 25), 10)

	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Errorf("Expected 3 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != strings.Repeat("a", 10) {
		t.Errorf("First line should be a hard break, got %q", lines[0])
	}
}

func TestWrapTextPreservesNewlines(t *testing.T) {
	got := wrapText("one\ntwo", 20)

	if got != "one\ntwo" {
		t.Errorf("Existing newlines should survive, got %q", got)
	}
}

func TestWrapTextZeroWidth(t *testing.T) {
	if got := wrapText("unchanged", 0); got != "unchanged" {
		t.Errorf("Zero width should be a no-op, got %q", got)
	}
}

func TestCalculateContentWidth(t *testing.T) {
	if got := calculateContentWidth(80); got != 70 {
		t.Errorf("calculateContentWidth(80) = %d, want 70", got)
	}
	if got := calculateContentWidth(10); got != 20 {
		t.Errorf("Narrow terminals should clamp to 20, got %d", got)
	}
}

func TestTruncateToWidth(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
		{"anything", 0, ""},
	}

	for _, tt := range tests {
		if got := truncateToWidth(tt.input, tt.width); got != tt.expected {
			t.Errorf("truncateToWidth(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
		}
	}
}

// =============================================================================
// COMPLETION START TESTS
// =============================================================================

func TestFindCompletionStartCommand(t *testing.T) {
	if got := findCompletionStart("/mod", 4); got != 0 {
		t.Errorf("Command completion should start at the slash, got %d", got)
	}
}

func TestFindCompletionStartArgument(t *testing.T) {
	input := "/model qwen"
	if got := findCompletionStart(input, len(input)); got != 7 {
		t.Errorf("Argument completion should start after the space, got %d", got)
	}
}

func TestFindCompletionStartPlainWord(t *testing.T) {
	if got := findCompletionStart("hello wor", 9); got != 6 {
		t.Errorf("Plain word completion should start at last space, got %d", got)
	}
}
