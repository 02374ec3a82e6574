// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/commands"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// STREAM HANDLERS
// =============================================================================

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	m.state = StateStreaming
	m.streamBuffer.Reset()
	m.input.Blur()
	logging.Debug().Str("model", msg.Model).Msg("stream started")
	return m, tea.Batch(m.spinner.Tick, streamTickCmd())
}

func (m Model) handleStreamToken(msg StreamTokenMsg) (tea.Model, tea.Cmd) {
	// Tokens only accumulate here; the tick loop flushes them to the
	// conversation at frame rate.
	m.streamBuffer.Write(msg.Token)
	return m, nil
}

func (m Model) handleStreamTick(StreamTickMsg) (tea.Model, tea.Cmd) {
	if m.state != StateStreaming {
		// Stream ended; let the tick chain die.
		return m, nil
	}

	if batch := m.streamBuffer.Flush(); batch != "" {
		m.conversation.AppendToLast(batch)
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (tea.Model, tea.Cmd) {
	if tail := m.streamBuffer.ForceFlush(); tail != "" {
		m.conversation.AppendToLast(tail)
	}
	m.conversation.FinalizeLast(msg.Stats)
	m.cancelMgr.clear()

	m.state = StateReady
	m.input.Focus()
	m.updateViewport()
	m.viewport.GotoBottom()

	cmds := []tea.Cmd{textinput.Blink}
	if m.voiceEnabled && m.autoSpeak {
		if last := m.conversation.GetLastAssistantMessage(); last != nil && !last.IsEmpty() && !last.Spoken {
			last.Spoken = true
			cmds = append(cmds, m.speakCmd(last.Content))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleStreamError(msg StreamErrorMsg) (tea.Model, tea.Cmd) {
	// Keep whatever arrived before the failure.
	if tail := m.streamBuffer.ForceFlush(); tail != "" {
		m.conversation.AppendToLast(tail)
	}
	m.conversation.FinalizeLast(nil)
	m.cancelMgr.clear()
	m.updateViewport()

	if msg.Err != nil && errors.Is(msg.Err, context.Canceled) {
		// User cancellation is not an error.
		m.state = StateReady
		m.input.Focus()
		m.toasts.AddStatus("Response cancelled")
		return m, textinput.Blink
	}

	m.state = StateReady
	m.input.Focus()
	if last := m.conversation.GetLastAssistantMessage(); last != nil && !last.IsEmpty() {
		// Partial response survived; a toast is enough.
		m.toasts.AddError("Stream interrupted: " + msg.Err.Error())
		return m, textinput.Blink
	}

	errMsg := NewChatErrorMsg("Response failed", msg.Err)
	m.setError(errMsg.Title, errMsg.Message, errMsg.Tip)
	return m, nil
}

// =============================================================================
// BACKEND STATUS HANDLERS
// =============================================================================

func (m Model) handleBackendStatus(msg BackendStatusMsg) (tea.Model, tea.Cmd) {
	m.backendOnline = msg.Online
	if !msg.Online {
		logging.Warn().Err(msg.Err).Msg("backend offline")
	}
	return m, nil
}

func (m Model) handleBackendModels(msg BackendModelsMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Warn().Err(msg.Err).Msg("model list failed")
		return m, nil
	}
	names := make([]string, 0, len(msg.Models))
	for _, mi := range msg.Models {
		names = append(names, mi.Name)
	}
	m.availableModels = names
	m.completer.ModelsFn = func() []string { return names }
	return m, nil
}

func (m Model) handleBackendVoices(msg BackendVoicesMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		logging.Warn().Err(msg.Err).Msg("voice list failed")
		return m, nil
	}
	m.availableVoices = msg.Voices
	infos := make([]commands.VoiceInfo, 0, len(msg.Voices))
	for _, v := range msg.Voices {
		infos = append(infos, commands.VoiceInfo{ID: v.ID, Name: v.Name, Language: v.Language})
	}
	m.completer.VoicesFn = func() []commands.VoiceInfo { return infos }
	return m, nil
}

// =============================================================================
// ASYNC COMMANDS
// =============================================================================

const statusCheckTimeout = 5 * time.Second

// checkBackendCmd probes the health endpoint.
func checkBackendCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
		defer cancel()

		health, err := client.CheckHealth(ctx)
		if err != nil {
			return BackendStatusMsg{Online: false, Err: err}
		}
		return BackendStatusMsg{Online: health.Healthy(), Health: health}
	}
}

// listModelsCmd fetches the chat models the backend serves.
func listModelsCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
		defer cancel()

		models, err := client.ListModels(ctx)
		return BackendModelsMsg{Models: models, Err: err}
	}
}

// listVoicesCmd fetches the synthesis voices.
func listVoicesCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
		defer cancel()

		voices, err := client.ListVoices(ctx)
		return BackendVoicesMsg{Voices: voices, Err: err}
	}
}

// copyCmd writes text to the clipboard off the update loop.
func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		if err := copyToClipboard(text); err != nil {
			return commands.CopyCompleteMsg{Success: false, Error: err}
		}
		return commands.CopyCompleteMsg{Success: true}
	}
}

// =============================================================================
// STREAM RUNNER
// =============================================================================

// StreamRunner drives one streaming chat request and feeds the results
// back into the program. It runs on its own goroutine; every update
// crosses the program.Send boundary.
type StreamRunner struct {
	program *tea.Program
	client  *backend.Client

	mu           sync.Mutex
	completeSent bool
}

// NewStreamRunner creates a runner bound to a program and client.
func NewStreamRunner(program *tea.Program, client *backend.Client) *StreamRunner {
	return &StreamRunner{program: program, client: client}
}

// Run streams a chat response for message, sending Stream* messages to
// the program. Blocks until the stream ends; call from a goroutine.
func (r *StreamRunner) Run(ctx context.Context, message, modelName string) {
	r.mu.Lock()
	r.completeSent = false
	r.mu.Unlock()

	r.program.Send(StreamStartMsg{Model: modelName, Timestamp: time.Now()})

	stats := model.NewStatistics()
	tokens := 0

	err := r.client.ChatStream(ctx, message, modelName, func(event backend.StreamEvent) {
		switch {
		case event.Error != nil:
			r.sendTerminal(StreamErrorMsg{Err: event.Error})
		case event.Done:
			stats.Finalize(tokens)
			r.sendTerminal(StreamCompleteMsg{Stats: stats})
		case event.Token != "":
			if tokens == 0 {
				stats.RecordFirstToken()
			}
			tokens++
			r.program.Send(StreamTokenMsg{Token: event.Token, IsFirst: tokens == 1})
		}
	})

	if err != nil {
		r.sendTerminal(StreamErrorMsg{Err: err})
		return
	}

	// A stream that returns without a done event still has to
	// release the UI.
	stats.Finalize(tokens)
	r.sendTerminal(StreamCompleteMsg{Stats: stats})
}

// sendTerminal delivers at most one terminal message per run. The
// transport can surface both an error event and a transport error for
// the same failure; the UI must see only the first.
func (r *StreamRunner) sendTerminal(msg tea.Msg) {
	r.mu.Lock()
	if r.completeSent {
		r.mu.Unlock()
		return
	}
	r.completeSent = true
	r.mu.Unlock()
	r.program.Send(msg)
}
