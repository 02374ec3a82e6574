// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamStartMsg indicates a streaming response has started.
type StreamStartMsg struct {
	Model     string
	Timestamp time.Time
}

// StreamTokenMsg carries a single token from the streaming response.
type StreamTokenMsg struct {
	Token   string
	IsFirst bool
}

// StreamTickMsg drives periodic flushes of the streaming buffer.
type StreamTickMsg struct {
	Time time.Time
}

// StreamCompleteMsg indicates the streaming response finished.
type StreamCompleteMsg struct {
	Stats *model.Statistics
}

// StreamErrorMsg indicates the stream failed.
type StreamErrorMsg struct {
	Err error
}

// StreamCancelMsg indicates the user cancelled the stream.
type StreamCancelMsg struct{}

// =============================================================================
// BACKEND STATUS MESSAGES
// =============================================================================

// BackendStatusMsg carries the result of a health check.
type BackendStatusMsg struct {
	Online bool
	Health *backend.Health
	Err    error
}

// BackendModelsMsg carries the chat model list from the backend.
type BackendModelsMsg struct {
	Models []backend.ModelInfo
	Err    error
}

// BackendVoicesMsg carries the synthesis voice list from the backend.
type BackendVoicesMsg struct {
	Voices []backend.Voice
	Err    error
}

// ModelChangedMsg indicates the active chat model changed.
type ModelChangedMsg struct {
	Model string
}

// =============================================================================
// VOICE MESSAGES
// =============================================================================

// RecordStartedMsg indicates microphone capture began (or failed to).
type RecordStartedMsg struct {
	Err error
}

// TranscriptionMsg carries the result of transcribing a recording.
// An empty Text with a nil Err never occurs; no-speech clips arrive
// as backend.ErrNoSpeech.
type TranscriptionMsg struct {
	Text string
	Err  error
}

// SpeakStartedMsg indicates synthesis finished and playback began.
// done closes when playback ends.
type SpeakStartedMsg struct {
	Err  error
	done chan struct{}
}

// SpeakDoneMsg indicates playback of a spoken reply finished.
type SpeakDoneMsg struct{}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationClearedMsg indicates the history was cleared.
type ConversationClearedMsg struct{}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// ChatErrorMsg carries an error with display metadata. The Tip gives the
// user a concrete next step for the known failure categories.
type ChatErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// NewChatErrorMsg builds a ChatErrorMsg from an error, attaching a
// recovery tip where the failure category suggests one.
func NewChatErrorMsg(title string, err error) ChatErrorMsg {
	msg := ChatErrorMsg{Title: title}
	if err != nil {
		msg.Message = err.Error()
	}
	switch {
	case backend.IsNotRunning(err):
		msg.Tip = "Start the backend, or enable auto_start in ~/.parley/config.toml"
	case backend.IsTimeout(err):
		msg.Tip = "The backend may still be loading a model. Try again shortly"
	case backend.IsNoSpeech(err):
		msg.Tip = "No speech detected. Speak closer to the microphone and try again"
	}
	return msg
}
