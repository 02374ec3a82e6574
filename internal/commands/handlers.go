// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/config"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HandlerContext provides runtime state for command handlers.
// This is populated by the main application when executing commands.
type HandlerContext struct {
	// CurrentModel is the currently selected chat model
	CurrentModel string

	// CurrentVoice is the currently selected synthesis voice
	CurrentVoice string

	// AutoSpeak indicates whether replies are being read aloud
	AutoSpeak bool

	// ConversationID is the current conversation ID
	ConversationID string

	// LastResponse is the last assistant response (for /copy and /speak)
	LastResponse string

	// AvailableModels from the backend
	AvailableModels []string

	// AvailableVoices from the backend
	AvailableVoices []VoiceInfo
}

// VoiceInfo contains metadata about a synthesis voice.
type VoiceInfo struct {
	ID       string
	Name     string
	Language string
}

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// These messages are sent by command handlers to update the application state.

// ShowHelpMsg triggers the help display.
type ShowHelpMsg struct {
	Topic string // Optional topic for specific help
}

// ModelSwitchMsg indicates a model switch request.
type ModelSwitchMsg struct {
	Model   string // The model to switch to
	Message string // Optional message to display after switching
	Error   error
}

// ClearConversationMsg triggers clearing the conversation.
type ClearConversationMsg struct{}

// ShowStatusMsg triggers showing detailed status.
type ShowStatusMsg struct{}

// ShowStatsMsg triggers showing statistics for the last reply.
type ShowStatsMsg struct{}

// CopyToClipboardMsg triggers copying to clipboard.
type CopyToClipboardMsg struct {
	Content string
}

// CopyCompleteMsg indicates copy completion.
type CopyCompleteMsg struct {
	Success bool
	Error   error
}

// ShowModelsMsg triggers showing the model list.
type ShowModelsMsg struct {
	Models []string
}

// SpeakLastMsg triggers reading a reply aloud. Back counts assistant
// replies from the end: 1 (or 0) is the most recent.
type SpeakLastMsg struct {
	Back int
}

// VoiceEnableMsg switches voice features on or off.
type VoiceEnableMsg struct {
	Enabled bool
}

// StopSpeakingMsg halts speech playback.
type StopSpeakingMsg struct{}

// ToggleAutoSpeakMsg flips automatic reading of replies.
type ToggleAutoSpeakMsg struct{}

// VoiceSwitchMsg indicates a synthesis voice switch request.
type VoiceSwitchMsg struct {
	Voice   string
	Message string
	Error   error
}

// ShowVoicesMsg triggers showing the voice list.
type ShowVoicesMsg struct{}

// SttModelSwitchMsg indicates a transcription model switch request.
type SttModelSwitchMsg struct {
	Size  string
	Error error
}

// ShowConfigMsg triggers showing configuration.
type ShowConfigMsg struct {
	Key   string // Optional specific key
	Value string // For setting
}

// ConfigUpdateMsg indicates a config value was updated.
type ConfigUpdateMsg struct {
	Key      string
	Value    interface{}
	OldValue interface{}
	Error    error
}

// ErrorMsg indicates an error occurred.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// SystemMessageMsg adds a system message to the chat.
type SystemMessageMsg struct {
	Content string
}

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

// HandleHelp shows help information.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}
	return func() tea.Msg {
		return ShowHelpMsg{Topic: topic}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleNew starts a new conversation.
func HandleNew(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearConversationMsg{}
	}
}

// HandleClear clears the conversation history.
func HandleClear(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearConversationMsg{}
	}
}

// HandleCopy copies the last response to clipboard.
func HandleCopy(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		// The actual content will be filled by the app
		return CopyToClipboardMsg{}
	}
}

// HandleStats shows statistics for the last reply.
func HandleStats(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowStatsMsg{}
	}
}

// HandleModel switches or shows the current model.
// When called without arguments, lists the models the backend serves.
// When called with a model name, switches to that model.
func HandleModel(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		var sb strings.Builder
		sb.WriteString("Available models:\n\n")

		var currentModel string
		if ctx != nil && ctx.Backend != nil {
			currentModel = ctx.Backend.GetDefaultModel()
		}

		var models []string
		if ctx != nil && ctx.HandlerCtx != nil {
			models = ctx.HandlerCtx.AvailableModels
		}

		if len(models) == 0 {
			sb.WriteString("  (no models reported by the backend; try /models)\n")
		}
		for _, name := range models {
			current := ""
			if name == currentModel {
				current = " (current)"
			}
			sb.WriteString(fmt.Sprintf("  %s%s\n", name, current))
		}
		sb.WriteString("\nUsage: /model <name> to switch models")

		return func() tea.Msg {
			return SystemMessageMsg{Content: sb.String()}
		}
	}

	// Switch to specified model
	modelName := args[0]
	if ctx != nil && ctx.Backend != nil {
		ctx.Backend.SetModel(modelName)
	}
	if ctx != nil && ctx.Config != nil {
		ctx.Config.Backend.DefaultModel = modelName
	}

	return func() tea.Msg {
		return ModelSwitchMsg{
			Model:   modelName,
			Message: fmt.Sprintf("Switched to %s", modelName),
		}
	}
}

// HandleModels lists models available on the backend.
func HandleModels(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowModelsMsg{}
	}
}

// HandleSpeak reads a reply aloud. An optional count selects an
// earlier reply: /speak 2 reads the one before the latest.
func HandleSpeak(ctx *Context, args []string) tea.Cmd {
	back := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return func() tea.Msg {
				return ErrorMsg{
					Title:   "Bad reply count",
					Message: fmt.Sprintf("%q is not a reply count", args[0]),
					Tip:     "Usage: /speak [n], where 1 is the latest reply",
				}
			}
		}
		back = n
	}
	return func() tea.Msg {
		return SpeakLastMsg{Back: back}
	}
}

// HandleStop halts speech playback.
func HandleStop(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return StopSpeakingMsg{}
	}
}

// HandleMute toggles automatic reading of replies.
func HandleMute(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ToggleAutoSpeakMsg{}
	}
}

// HandleVoice switches or shows the synthesis voice.
func HandleVoice(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		var sb strings.Builder

		current := ""
		if ctx != nil && ctx.Config != nil {
			current = ctx.Config.Voice.Voice
		}
		sb.WriteString(fmt.Sprintf("Current voice: %s\n", current))

		if ctx != nil && ctx.HandlerCtx != nil && len(ctx.HandlerCtx.AvailableVoices) > 0 {
			sb.WriteString("\nAvailable voices:\n")
			for _, v := range ctx.HandlerCtx.AvailableVoices {
				marker := ""
				if v.ID == current {
					marker = " (current)"
				}
				sb.WriteString(fmt.Sprintf("  %s - %s [%s]%s\n", v.ID, v.Name, v.Language, marker))
			}
		}
		sb.WriteString("\nUsage: /voice <id> to switch voices, /voice on|off to toggle voice features")

		return func() tea.Msg {
			return SystemMessageMsg{Content: sb.String()}
		}
	}

	// "on" and "off" flip voice features rather than naming a voice.
	switch strings.ToLower(args[0]) {
	case "on":
		return func() tea.Msg { return VoiceEnableMsg{Enabled: true} }
	case "off":
		return func() tea.Msg { return VoiceEnableMsg{Enabled: false} }
	}

	voiceID := args[0]
	if ctx != nil && ctx.Config != nil {
		ctx.Config.Voice.Voice = voiceID
	}
	return func() tea.Msg {
		return VoiceSwitchMsg{
			Voice:   voiceID,
			Message: fmt.Sprintf("Voice set to %s", voiceID),
		}
	}
}

// HandleVoices lists voices available on the backend.
func HandleVoices(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowVoicesMsg{}
	}
}

// HandleStt switches the transcription model size.
func HandleStt(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Missing model size",
				Message: "No transcription model size given",
				Tip:     "Usage: /stt <" + strings.Join(config.WhisperModels, "|") + ">",
			}
		}
	}

	size := args[0]
	if !config.ValidWhisperModel(size) {
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Unknown model size",
				Message: fmt.Sprintf("'%s' is not a valid transcription model", size),
				Tip:     "Valid sizes: " + strings.Join(config.WhisperModels, ", "),
			}
		}
	}

	return func() tea.Msg {
		return SttModelSwitchMsg{Size: size}
	}
}

// HandleConfig shows or edits configuration.
func HandleConfig(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		// Show full config summary
		return func() tea.Msg {
			if ctx == nil || ctx.Config == nil {
				return ErrorMsg{Title: "Config unavailable", Message: "No configuration loaded"}
			}
			return SystemMessageMsg{Content: formatConfig(ctx.Config)}
		}
	}

	key := strings.ToLower(args[0])
	if len(args) == 1 {
		return func() tea.Msg {
			return ShowConfigMsg{Key: key}
		}
	}

	value := strings.Join(args[1:], " ")
	return func() tea.Msg {
		return ShowConfigMsg{Key: key, Value: value}
	}
}

// HandleStatus shows backend and session status.
func HandleStatus(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowStatusMsg{}
	}
}

// HandleTheme changes the color theme.
func HandleTheme(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		theme := ""
		if ctx != nil && ctx.Config != nil {
			theme = ctx.Config.UI.Theme
		}
		return func() tea.Msg {
			return SystemMessageMsg{Content: fmt.Sprintf("Current theme: %s", theme)}
		}
	}

	name := strings.ToLower(args[0])
	if ctx != nil && ctx.Config != nil {
		ctx.Config.UI.Theme = name
	}
	return func() tea.Msg {
		return ConfigUpdateMsg{Key: "ui.theme", Value: name}
	}
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// ConfigKeys lists the keys /config accepts for display and editing.
var ConfigKeys = []string{
	"backend.url",
	"backend.default_model",
	"backend.timeout_secs",
	"voice.enabled",
	"voice.auto_speak",
	"voice.voice",
	"voice.whisper_model",
	"ui.theme",
	"ui.show_tokens",
	"ui.markdown",
	"log.level",
}

// formatConfig renders the current configuration for display.
func formatConfig(cfg *config.Config) string {
	entries := map[string]string{
		"backend.url":           cfg.Backend.URL,
		"backend.default_model": cfg.Backend.DefaultModel,
		"backend.timeout_secs":  fmt.Sprintf("%d", cfg.Backend.TimeoutSecs),
		"voice.enabled":         fmt.Sprintf("%t", cfg.Voice.Enabled),
		"voice.auto_speak":      fmt.Sprintf("%t", cfg.Voice.AutoSpeak),
		"voice.voice":           cfg.Voice.Voice,
		"voice.whisper_model":   cfg.Voice.WhisperModel,
		"ui.theme":              cfg.UI.Theme,
		"ui.show_tokens":        fmt.Sprintf("%t", cfg.UI.ShowTokens),
		"ui.markdown":           fmt.Sprintf("%t", cfg.UI.Markdown),
		"log.level":             cfg.Log.Level,
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Configuration:\n\n")
	for _, k := range keys {
		v := entries[k]
		if v == "" {
			v = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("  %-24s %s\n", k, v))
	}
	sb.WriteString("\nUsage: /config <key> <value> to change a setting")
	return sb.String()
}
