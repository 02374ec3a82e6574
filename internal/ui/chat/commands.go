// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"context"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/commands"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// =============================================================================
// COMMAND EXECUTION
// =============================================================================

// executeCommand runs a parsed slash command through its handler.
func (m Model) executeCommand(result commands.ParseResult) (tea.Model, tea.Cmd) {
	if result.Error != nil {
		m.toasts.AddError(result.Error.Error())
		return m, nil
	}
	if result.Command == nil || result.Command.Handler == nil {
		m.toasts.AddError("Unknown command: " + result.CommandName)
		return m, nil
	}

	ctx := m.commandContext()
	logging.Debug().Str("command", result.Command.Name).Msg("executing command")
	return m, result.Command.Handler(ctx, result.Args)
}

// commandContext snapshots the state command handlers may read.
func (m Model) commandContext() *commands.Context {
	lastResponse := ""
	if last := m.conversation.GetLastAssistantMessage(); last != nil {
		lastResponse = last.Content
	}

	infos := make([]commands.VoiceInfo, 0, len(m.availableVoices))
	for _, v := range m.availableVoices {
		infos = append(infos, commands.VoiceInfo{ID: v.ID, Name: v.Name, Language: v.Language})
	}

	return commands.NewContext(config.Global(), m.client).WithHandlerContext(&commands.HandlerContext{
		CurrentModel:    m.currentModel,
		CurrentVoice:    m.currentVoice,
		AutoSpeak:       m.autoSpeak,
		ConversationID:  m.conversation.GetTitle(),
		LastResponse:    lastResponse,
		AvailableModels: m.availableModels,
		AvailableVoices: infos,
	})
}

// =============================================================================
// COMMAND OUTCOME HANDLERS
// =============================================================================

func (m Model) handleClearConversation() (tea.Model, tea.Cmd) {
	if m.state == StateStreaming {
		m.cancelMgr.fire()
	}
	m.conversation.ClearHistory()
	m.streamBuffer.Reset()
	m.vpOptimizer.Reset()
	m.state = StateReady
	m.input.Focus()
	m.updateViewport()
	m.viewport.GotoTop()
	m.toasts.AddStatus("Conversation cleared")
	return m, nil
}

func (m Model) handleModelSwitch(msg commands.ModelSwitchMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Model switch failed: " + msg.Error.Error())
		return m, nil
	}

	m.currentModel = msg.Model
	if m.client != nil {
		m.client.SetModel(msg.Model)
	}
	if msg.Message != "" {
		m.conversation.AddSystemMessage(msg.Message)
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m Model) handleShowModels(commands.ShowModelsMsg) (tea.Model, tea.Cmd) {
	// Refresh from the backend, then report through a system message.
	client := m.client
	current := m.currentModel
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
		defer cancel()

		models, err := client.ListModels(ctx)
		if err != nil {
			return NewChatErrorMsg("Cannot list models", err)
		}
		return commands.SystemMessageMsg{Content: formatModelList(models, current)}
	}
}

// formatModelList renders the model inventory for a system message.
func formatModelList(models []backend.ModelInfo, current string) string {
	if len(models) == 0 {
		return "The backend reports no chat models."
	}

	var sb strings.Builder
	sb.WriteString("Available models:\n")
	for _, mi := range models {
		sb.WriteString("\n  ")
		sb.WriteString(mi.Name)
		if mi.Name == current {
			sb.WriteString("  (current)")
		}
	}
	sb.WriteString("\n\nSwitch with /model <name>")
	return sb.String()
}

func (m Model) handleShowStatus() (tea.Model, tea.Cmd) {
	var sb strings.Builder
	sb.WriteString("Status\n\n")

	if m.backendOnline {
		sb.WriteString("  Backend:  online\n")
	} else {
		sb.WriteString("  Backend:  offline\n")
	}

	modelName := m.currentModel
	if modelName == "" {
		modelName = "(backend default)"
	}
	sb.WriteString("  Model:    " + modelName + "\n")

	if m.voiceEnabled {
		voiceName := m.currentVoice
		if voiceName == "" {
			voiceName = "default"
		}
		sb.WriteString("  Voice:    " + voiceName)
		if m.autoSpeak {
			sb.WriteString(" (auto-speak on)")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("  Voice:    disabled\n")
	}

	sb.WriteString("  Messages: " + formatInt(m.conversation.MessageCount()) + "\n")
	sb.WriteString("  Tokens:   ~" + formatNumberWithCommas(m.conversation.EstimateTokens()))

	m.conversation.AddSystemMessage(sb.String())
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(checkBackendCmd(m.client))
}

func (m Model) handleShowStats() (tea.Model, tea.Cmd) {
	last := m.conversation.GetLastAssistantMessage()
	if last == nil || last.IsEmpty() {
		m.toasts.AddWarning("No reply to report on yet")
		return m, nil
	}

	stats := last.FormatStats()
	if stats == "" {
		m.toasts.AddWarning("No statistics recorded for the last reply")
		return m, nil
	}
	m.conversation.AddSystemMessage("Last reply: " + stats)
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleCopyRequest(msg commands.CopyToClipboardMsg) (tea.Model, tea.Cmd) {
	content := msg.Content
	if content == "" {
		last := m.conversation.GetLastAssistantMessage()
		if last == nil || last.IsEmpty() {
			m.toasts.AddWarning("Nothing to copy yet")
			return m, nil
		}
		content = last.Content
	}
	return m, copyCmd(content)
}

func (m Model) handleToggleAutoSpeak() (tea.Model, tea.Cmd) {
	m.autoSpeak = !m.autoSpeak
	if cfg := config.Global(); cfg != nil {
		cfg.Voice.AutoSpeak = m.autoSpeak
	}
	if m.autoSpeak {
		m.toasts.AddStatus("Auto-speak on: replies will be read aloud")
	} else {
		m.toasts.AddStatus("Auto-speak off")
	}
	return m, nil
}

func (m Model) handleVoiceSwitch(msg commands.VoiceSwitchMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Voice switch failed: " + msg.Error.Error())
		return m, nil
	}

	m.currentVoice = msg.Voice
	if msg.Message != "" {
		m.toasts.AddSuccess(msg.Message)
	}
	return m, nil
}

func (m Model) handleShowVoices() (tea.Model, tea.Cmd) {
	client := m.client
	current := m.currentVoice
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
		defer cancel()

		voices, err := client.ListVoices(ctx)
		if err != nil {
			return NewChatErrorMsg("Cannot list voices", err)
		}
		return commands.SystemMessageMsg{Content: formatVoiceList(voices, current)}
	}
}

// formatVoiceList renders the voice inventory for a system message.
func formatVoiceList(voices []backend.Voice, current string) string {
	if len(voices) == 0 {
		return "The backend reports no synthesis voices."
	}

	var sb strings.Builder
	sb.WriteString("Available voices:\n")
	for _, v := range voices {
		sb.WriteString("\n  ")
		sb.WriteString(v.ID)
		if v.Name != "" && v.Name != v.ID {
			sb.WriteString(" - " + v.Name)
		}
		if v.Language != "" {
			sb.WriteString(" [" + v.Language + "]")
		}
		if v.ID == current {
			sb.WriteString("  (current)")
		}
	}
	sb.WriteString("\n\nSwitch with /voice <id>")
	return sb.String()
}

func (m Model) handleSttModelSwitch(msg commands.SttModelSwitchMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Transcription model switch failed: " + msg.Error.Error())
		return m, nil
	}

	client := m.client
	size := msg.Size
	m.toasts.AddStatus("Loading transcription model " + size + "...")
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), speechTimeout)
		defer cancel()

		if err := client.ChangeWhisperModel(ctx, size); err != nil {
			return NewChatErrorMsg("Cannot switch transcription model", err)
		}
		if cfg := config.Global(); cfg != nil {
			cfg.Voice.WhisperModel = size
		}
		return commands.SystemMessageMsg{Content: "Transcription model switched to " + size}
	}
}

func (m Model) handleConfigUpdate(msg commands.ConfigUpdateMsg) (tea.Model, tea.Cmd) {
	if msg.Error != nil {
		m.toasts.AddError("Setting failed: " + msg.Error.Error())
		return m, nil
	}

	if cfg := config.Global(); cfg != nil {
		if err := config.Save(cfg); err != nil {
			logging.Warn().Err(err).Msg("config save failed")
		}
	}
	if value, ok := msg.Value.(string); ok {
		m.toasts.AddSuccess(msg.Key + " set to " + value)
	} else {
		m.toasts.AddSuccess(msg.Key + " updated")
	}
	return m, nil
}

func (m Model) handleShowConfig(msg commands.ShowConfigMsg) (tea.Model, tea.Cmd) {
	cfg := config.Global()
	if cfg == nil {
		m.toasts.AddError("No configuration loaded")
		return m, nil
	}

	if msg.Value == "" {
		value, ok := configValue(cfg, msg.Key)
		if !ok {
			m.toasts.AddError("Unknown config key: " + msg.Key)
			return m, nil
		}
		m.conversation.AddSystemMessage(msg.Key + " = " + value)
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil
	}

	if err := applyConfigValue(cfg, msg.Key, msg.Value); err != nil {
		m.toasts.AddError(err.Error())
		return m, nil
	}

	// Some keys feed model state the view reads every frame.
	m.voiceEnabled = cfg.Voice.Enabled
	m.autoSpeak = cfg.Voice.AutoSpeak
	m.currentVoice = cfg.Voice.Voice
	m.showStats = cfg.UI.ShowTokens

	if err := config.Save(cfg); err != nil {
		logging.Warn().Err(err).Msg("config save failed")
		m.toasts.AddWarning("Setting applied but not saved: " + err.Error())
		return m, nil
	}
	m.toasts.AddSuccess(msg.Key + " set to " + msg.Value)
	return m, nil
}

// =============================================================================
// CONFIG KEY ACCESS
// =============================================================================

// configValue reads one config key by its dotted name.
func configValue(cfg *config.Config, key string) (string, bool) {
	switch key {
	case "backend.url":
		return cfg.Backend.URL, true
	case "backend.default_model":
		return cfg.Backend.DefaultModel, true
	case "backend.timeout_secs":
		return strconv.Itoa(cfg.Backend.TimeoutSecs), true
	case "backend.auto_start":
		return formatBoolValue(cfg.Backend.AutoStart), true
	case "voice.enabled":
		return formatBoolValue(cfg.Voice.Enabled), true
	case "voice.auto_speak":
		return formatBoolValue(cfg.Voice.AutoSpeak), true
	case "voice.voice":
		return cfg.Voice.Voice, true
	case "voice.whisper_model":
		return cfg.Voice.WhisperModel, true
	case "ui.theme":
		return cfg.UI.Theme, true
	case "ui.show_tokens":
		return formatBoolValue(cfg.UI.ShowTokens), true
	case "ui.markdown":
		return formatBoolValue(cfg.UI.Markdown), true
	case "log.level":
		return cfg.Log.Level, true
	}
	return "", false
}

// applyConfigValue writes one config key by its dotted name.
func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "backend.url":
		cfg.Backend.URL = value
	case "backend.default_model":
		cfg.Backend.DefaultModel = value
	case "backend.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return &configKeyError{key: key, detail: "must be a positive integer"}
		}
		cfg.Backend.TimeoutSecs = n
	case "backend.auto_start":
		cfg.Backend.AutoStart = parseBoolValue(value)
	case "voice.enabled":
		cfg.Voice.Enabled = parseBoolValue(value)
	case "voice.auto_speak":
		cfg.Voice.AutoSpeak = parseBoolValue(value)
	case "voice.voice":
		cfg.Voice.Voice = value
	case "voice.whisper_model":
		if !config.ValidWhisperModel(value) {
			return &configKeyError{key: key, detail: "valid sizes: " + strings.Join(config.WhisperModels, ", ")}
		}
		cfg.Voice.WhisperModel = value
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.show_tokens":
		cfg.UI.ShowTokens = parseBoolValue(value)
	case "ui.markdown":
		cfg.UI.Markdown = parseBoolValue(value)
	case "log.level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			cfg.Log.Level = strings.ToLower(value)
		default:
			return &configKeyError{key: key, detail: "valid levels: debug, info, warn, error"}
		}
	default:
		return &configKeyError{key: key, detail: "unknown key"}
	}
	return nil
}

type configKeyError struct {
	key    string
	detail string
}

func (e *configKeyError) Error() string {
	return "cannot set " + e.key + ": " + e.detail
}

func formatBoolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseBoolValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
