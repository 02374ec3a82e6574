// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// TAB COMPLETION
// =============================================================================

// handleTabCompletion handles the Tab key. The first press shows
// completions, repeat presses cycle through them.
func (m Model) handleTabCompletion() (tea.Model, tea.Cmd) {
	input := m.input.Value()
	cursorPos := m.input.Position()

	// Already showing: cycle.
	if m.showCompletions && m.completionState.Visible {
		m.completionCycleCount++
		m.completionState.Next()
		return m.applyCompletion()
	}

	completions := m.completer.Complete(input, cursorPos)
	if len(completions) == 0 {
		return m, nil
	}

	m.completionState.Update(input, completions)
	m.showCompletions = true
	m.completionCycleCount = 1

	if len(completions) == 1 {
		return m.applyCompletion()
	}
	return m, nil
}

// applyCompletion writes the selected completion into the input.
func (m Model) applyCompletion() (tea.Model, tea.Cmd) {
	if !m.completionState.Visible {
		return m, nil
	}
	selected := m.completionState.GetSelected()
	if selected == nil {
		return m, nil
	}

	value := selected.Value
	input := m.input.Value()
	cursorPos := m.input.Position()
	start := findCompletionStart(input, cursorPos)

	newInput := input[:start] + value

	// Commands that take arguments get a trailing space so the user
	// can keep typing (or keep tabbing into argument completion).
	if strings.HasPrefix(value, "/") {
		if cmd := m.completer.GetCommand(value); cmd != nil && len(cmd.Args) > 0 {
			newInput += " "
		}
	}

	m.input.SetValue(newInput)
	m.input.CursorEnd()

	if m.completionCycleCount > len(m.completionState.Completions) {
		m.clearCompletions()
	}
	return m, textinput.Blink
}

// findCompletionStart returns the index where the token being
// completed begins.
func findCompletionStart(input string, cursorPos int) int {
	if cursorPos > len(input) {
		cursorPos = len(input)
	}

	// Command name: complete from the leading slash.
	trimmed := strings.TrimSpace(input[:cursorPos])
	if strings.HasPrefix(trimmed, "/") && !strings.Contains(trimmed, " ") {
		return strings.Index(input, "/")
	}

	// Argument: complete from the last space.
	for i := cursorPos - 1; i >= 0; i-- {
		if input[i] == ' ' {
			return i + 1
		}
	}
	return 0
}

// clearCompletions hides the popup and resets cycling.
func (m *Model) clearCompletions() {
	m.showCompletions = false
	m.completionCycleCount = 0
	m.completionState.Clear()
}
