// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/commands"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// =============================================================================
// STREAM STARTER
// =============================================================================

// streamStarter holds the function that launches a streaming request.
// The Bubble Tea program owns the send loop, so the binding can only
// happen after the program exists; the holder pointer is shared by
// every Model copy, which makes the late bind visible to all of them.
type streamStarter struct {
	mu sync.Mutex
	fn func(ctx context.Context, message, model string)
}

func (s *streamStarter) bind(fn func(ctx context.Context, message, model string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
}

func (s *streamStarter) run(ctx context.Context, message, model string) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(ctx, message, model)
	}
}

// BindStreamRunner connects the model to the function that performs
// streaming requests. Call once, after the program is created:
//
//	runner := chat.NewStreamRunner(p, client)
//	chatModel.BindStreamRunner(func(ctx context.Context, message, model string) {
//		runner.Run(ctx, message, model)
//	})
func (m Model) BindStreamRunner(fn func(ctx context.Context, message, model string)) {
	m.starter.bind(fn)
}

// =============================================================================
// INPUT SUBMISSION
// =============================================================================

// submitInput sends the typed message, or runs it as a slash command.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		return m, nil
	}
	m.clearCompletions()

	if commands.IsCommand(raw) {
		m.input.SetValue("")
		return m.executeCommand(m.parser.Parse(raw))
	}

	// One streaming response at a time. submitInput is only reachable
	// from StateReady, but the guard keeps the invariant local.
	if m.state != StateReady {
		return m, nil
	}

	m.conversation.AddUserMessage(raw)
	m.conversation.AddAssistantMessage()
	m.input.SetValue("")
	m.state = StateStreaming
	m.updateViewport()
	m.viewport.GotoBottom()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMgr.set(cancel)

	starter := m.starter
	modelName := m.currentModel
	logging.Info().Int("chars", len(raw)).Str("model", modelName).Msg("message submitted")
	return m, func() tea.Msg {
		// Blocks for the whole stream; results arrive via program.Send.
		starter.run(ctx, raw, modelName)
		return nil
	}
}
