// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// maxVisibleCompletions caps the popup height.
const maxVisibleCompletions = 8

// =============================================================================
// COMPLETION POPUP
// =============================================================================

// renderCompletionPopup renders the tab completion list above the
// input area. Returns "" when there is nothing to show.
func (m Model) renderCompletionPopup() string {
	if !m.showCompletions || !m.completionState.Visible {
		return ""
	}
	completions := m.completionState.Completions
	if len(completions) == 0 {
		return ""
	}

	popupWidth := 60
	if m.width-4 < popupWidth {
		popupWidth = m.width - 4
	}
	if popupWidth < 20 {
		popupWidth = 20
	}

	// Keep the selection visible inside the window.
	selected := m.completionState.Selected
	start := 0
	if selected >= maxVisibleCompletions {
		start = selected - maxVisibleCompletions + 1
	}
	end := start + maxVisibleCompletions
	if end > len(completions) {
		end = len(completions)
	}

	rows := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		c := completions[i]

		label := c.Display
		if label == "" {
			label = c.Value
		}
		line := label
		if c.Description != "" {
			line += "  " + c.Description
		}
		line = truncateToWidth(line, popupWidth-4)

		if i == selected {
			rows = append(rows, m.theme.CompletionSelected.Render("> "+line))
		} else {
			rows = append(rows, m.theme.CompletionItem.Render("  "+line))
		}
	}

	if len(completions) > maxVisibleCompletions {
		more := formatInt(len(completions)) + " matches, tab to cycle"
		rows = append(rows, m.theme.CompletionItem.Render("  "+more))
	}

	return m.theme.CompletionPopup.
		Width(popupWidth).
		Render(strings.Join(rows, "\n"))
}

// renderCompletionHint nudges toward tab completion when the input
// holds a partial slash command and the popup is closed.
func (m Model) renderCompletionHint() string {
	if m.showCompletions {
		return ""
	}
	value := m.input.Value()
	if !strings.HasPrefix(value, "/") || strings.Contains(value, " ") {
		return ""
	}

	hint := lipgloss.NewStyle().Inherit(m.theme.InputPlaceholder).Italic(true)
	return hint.Render("tab to complete")
}
