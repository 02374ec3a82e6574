// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/voice"
)

// speechTimeout bounds the transcribe and synthesize round trips.
// Speech endpoints are slower than chat; first use may load a model.
const speechTimeout = 120 * time.Second

// =============================================================================
// RECORDING
// =============================================================================

// startRecording begins microphone capture. Gated to StateReady so a
// recording can never overlap streaming or another recording.
func (m Model) startRecording() (tea.Model, tea.Cmd) {
	if !m.voiceEnabled {
		m.toasts.AddWarning("Voice input is disabled. Enable it with /config voice.enabled true")
		return m, nil
	}
	if m.state != StateReady {
		return m, nil
	}

	t := m.transcriber
	return m, func() tea.Msg {
		return RecordStartedMsg{Err: t.Start()}
	}
}

func (m Model) handleRecordStarted(msg RecordStartedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		// Voice trouble degrades to text-only; never block typing.
		logging.Error().Err(msg.Err).Msg("recording failed to start")
		m.toasts.AddError("Microphone unavailable: " + msg.Err.Error())
		return m, nil
	}

	m.state = StateRecording
	m.input.Blur()
	return m, m.recording.Start()
}

// stopRecording ends capture and hands the clip to the backend.
func (m Model) stopRecording() (tea.Model, tea.Cmd) {
	if m.state != StateRecording {
		return m, nil
	}

	m.state = StateTranscribing
	m.recording.Stop()

	t := m.transcriber
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), speechTimeout)
		defer cancel()

		text, err := t.Stop(ctx)
		return TranscriptionMsg{Text: text, Err: err}
	})
}

// cancelRecording discards the clip without transcribing.
func (m Model) cancelRecording() (tea.Model, tea.Cmd) {
	if m.state != StateRecording {
		return m, nil
	}
	m.transcriber.Cancel()
	m.recording.Stop()
	m.state = StateReady
	m.input.Focus()
	m.toasts.AddStatus("Recording discarded")
	return m, textinput.Blink
}

func (m Model) handleTranscription(msg TranscriptionMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.input.Focus()

	if msg.Err != nil {
		if backend.IsNoSpeech(msg.Err) {
			// Nothing recognized; say so and leave the input alone.
			m.toasts.AddWarning("No speech detected")
			return m, textinput.Blink
		}
		logging.Error().Err(msg.Err).Msg("transcription failed")
		m.toasts.AddError("Transcription failed: " + msg.Err.Error())
		return m, textinput.Blink
	}

	// Insert at the cursor so a half-typed message is preserved.
	m.insertAtCursor(msg.Text)
	return m, textinput.Blink
}

// insertAtCursor splices text into the input at the cursor position.
func (m *Model) insertAtCursor(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	// Position and SetCursor are rune offsets, so splice on runes or
	// multi-byte input before the cursor shifts the insertion point.
	current := []rune(m.input.Value())
	pos := m.input.Position()
	if pos > len(current) {
		pos = len(current)
	}

	if pos > 0 && current[pos-1] != ' ' {
		text = " " + text
	}
	m.input.SetValue(string(current[:pos]) + text + string(current[pos:]))
	m.input.SetCursor(pos + utf8.RuneCountInString(text))
}

// =============================================================================
// SPEAKING
// =============================================================================

// speakLast reads the last assistant reply aloud.
func (m Model) speakLast() (tea.Model, tea.Cmd) {
	return m.speakBack(1)
}

// speakBack reads the nth assistant reply from the end, 1 being the
// most recent.
func (m Model) speakBack(back int) (tea.Model, tea.Cmd) {
	if !m.voiceEnabled {
		m.toasts.AddWarning("Voice output is disabled. Enable it with /voice on")
		return m, nil
	}
	if back < 1 {
		back = 1
	}

	target := m.conversation.NthLastAssistantMessage(back)
	if target == nil || target.IsEmpty() {
		m.toasts.AddWarning("No reply that far back to speak")
		return m, nil
	}
	return m, m.speakCmd(target.Content)
}

// handleVoiceEnable flips voice features on or off at runtime.
func (m Model) handleVoiceEnable(enabled bool) (tea.Model, tea.Cmd) {
	m.voiceEnabled = enabled
	if cfg := config.Global(); cfg != nil {
		cfg.Voice.Enabled = enabled
	}
	if enabled {
		m.toasts.AddSuccess("Voice features enabled")
	} else {
		m.speaker.Stop()
		m.speaking.Stop()
		m.toasts.AddStatus("Voice features disabled")
	}
	return m, nil
}

// speakCmd synthesizes text and starts playback. One playback at a
// time: the player stops any clip already running.
func (m Model) speakCmd(text string) tea.Cmd {
	s := m.speaker
	voiceID := m.currentVoice
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), speechTimeout)
		defer cancel()

		done := make(chan struct{})
		err := s.Speak(ctx, text, voiceID, func() { close(done) })
		return SpeakStartedMsg{Err: err, done: done}
	}
}

func (m Model) handleSpeakStarted(msg SpeakStartedMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil {
		// A second command parks on the done channel so the UI
		// learns when to drop the speaking indicator.
		done := msg.done
		wait := func() tea.Msg {
			<-done
			return SpeakDoneMsg{}
		}
		return m, tea.Batch(m.speaking.Start(), wait)
	}

	m.speaking.Stop()
	if errors.Is(msg.Err, voice.ErrNothingToSpeak) {
		m.toasts.AddWarning("Nothing to speak")
		return m, nil
	}
	logging.Error().Err(msg.Err).Msg("speech synthesis failed")
	m.toasts.AddError("Speech failed: " + msg.Err.Error())
	return m, nil
}

func (m Model) handleSpeakDone(SpeakDoneMsg) (tea.Model, tea.Cmd) {
	m.speaking.Stop()
	return m, nil
}

// stopSpeaking halts playback immediately.
func (m Model) stopSpeaking() (tea.Model, tea.Cmd) {
	m.speaker.Stop()
	m.speaking.Stop()
	return m, nil
}
