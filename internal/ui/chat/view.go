// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Starting parley..."
	}
	if m.state == StateError {
		return m.renderErrorView()
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderChat()
}

// renderChat assembles the full layout: header, messages, optional
// voice row, input, status bar. Sections are measured after render so
// the viewport gets exactly the leftover height.
func (m Model) renderChat() string {
	header := m.renderHeader()
	voiceRow := m.renderVoiceRow()
	toastRows := m.renderToastRows()
	popup := m.renderCompletionPopup()
	inputArea := m.renderInput()
	statusBar := m.renderStatusBar()

	used := lipgloss.Height(inputArea) + lipgloss.Height(statusBar)
	if header != "" {
		used += lipgloss.Height(header)
	}
	if voiceRow != "" {
		used += lipgloss.Height(voiceRow)
	}
	if toastRows != "" {
		used += lipgloss.Height(toastRows)
	}
	if popup != "" {
		used += lipgloss.Height(popup)
	}

	available := m.height - used
	if available < 1 {
		available = 1
	}

	messages := m.viewport.View()
	if h := lipgloss.Height(messages); h != available {
		// The viewport was sized from the conservative constants;
		// clamp to the measured space so the layout never overflows.
		messages = lipgloss.NewStyle().
			Height(available).
			MaxHeight(available).
			Render(messages)
	}

	sections := []string{}
	if header != "" {
		sections = append(sections, header)
	}
	sections = append(sections, messages)
	if voiceRow != "" {
		sections = append(sections, voiceRow)
	}
	if toastRows != "" {
		sections = append(sections, toastRows)
	}
	if popup != "" {
		sections = append(sections, popup)
	}
	sections = append(sections, inputArea, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	// Compact mode gives the header row back to the conversation.
	if m.compact {
		return ""
	}

	title := m.theme.HeaderTitle.Render("parley")

	subtitle := ""
	if t := m.conversation.GetTitle(); t != "" {
		subtitle = m.theme.HeaderSubtitle.Render(" - " + truncateToWidth(t, m.width/2))
	}

	line := title + subtitle
	return m.theme.Header.Width(m.width).Render(line)
}

// =============================================================================
// MESSAGES
// =============================================================================

// renderMessages renders the whole conversation for the viewport.
func (m Model) renderMessages() string {
	history := m.conversation.GetHistory()
	if len(history) == 0 {
		return m.renderEmptyState()
	}

	parts := make([]string, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case model.RoleUser:
			parts = append(parts, m.renderUserMessage(msg))
		case model.RoleAssistant:
			parts = append(parts, m.renderAssistantMessage(msg))
		case model.RoleSystem:
			parts = append(parts, m.renderSystemMessage(msg))
		}
	}
	return strings.Join(parts, "\n\n")
}

// renderUserMessage renders a right-aligned bubble.
func (m Model) renderUserMessage(msg *model.Message) string {
	contentWidth := calculateContentWidth(m.width)
	content := wrapText(msg.Content, contentWidth)

	bubble := m.theme.UserBubble.Render(content)
	meta := m.theme.StatsBar.Render(formatTimestamp(msg.Timestamp))

	block := lipgloss.JoinVertical(lipgloss.Right, bubble, meta)

	// Push to the right edge.
	margin := m.width - lipgloss.Width(block) - 2
	if margin < 0 {
		margin = 0
	}
	return lipgloss.NewStyle().MarginLeft(margin).Render(block)
}

// renderAssistantMessage renders a left-aligned bubble with code
// blocks highlighted and, while streaming, a cursor.
func (m Model) renderAssistantMessage(msg *model.Message) string {
	contentWidth := calculateContentWidth(m.width)

	content := msg.GetDisplayContent()
	if msg.IsStreaming {
		if content == "" {
			return m.renderThinking()
		}
		content += styles.TypingCursor[0]
	}

	rendered := components.ParseCodeBlocks(content, contentWidth)
	rendered = components.ParseInlineCode(rendered)
	bubble := m.theme.AssistantBubble.Render(wrapText(rendered, contentWidth))

	meta := formatTimestamp(msg.Timestamp)
	if m.showStats && !msg.IsStreaming {
		if stats := msg.FormatStats(); stats != "" {
			meta += "  " + stats
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, bubble, m.theme.StatsBar.Render(meta))
}

// renderThinking shows the spinner while no tokens have arrived yet.
func (m Model) renderThinking() string {
	return m.theme.ThinkingText.Render(m.spinner.View() + " Thinking...")
}

// renderSystemMessage renders a centered notice.
func (m Model) renderSystemMessage(msg *model.Message) string {
	contentWidth := calculateContentWidth(m.width)
	bubble := m.theme.SystemBubble.Render(wrapText(msg.Content, contentWidth))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, bubble)
}

// renderEmptyState shows the welcome screen inside the viewport.
func (m Model) renderEmptyState() string {
	w := components.NewWelcome(m.theme)
	w.SetModelName(m.currentModel)
	w.SetVoice(m.currentVoice, m.voiceEnabled)
	if m.client != nil {
		w.SetBackendURL(m.client.GetConfig().BaseURL)
	}
	w.SetSize(m.width, m.viewport.Height)
	return w.View()
}

// =============================================================================
// VOICE ROW
// =============================================================================

// renderVoiceRow shows the active voice pipeline state, if any.
func (m Model) renderVoiceRow() string {
	switch m.state {
	case StateRecording:
		return m.recording.View()
	case StateTranscribing:
		return m.theme.TranscribingText.Render(m.spinner.View() + " Transcribing...")
	}
	if m.speaking.IsActive() {
		return m.speaking.View()
	}
	return ""
}

// =============================================================================
// TOASTS
// =============================================================================

// renderToastRows renders active toasts as rows above the input. The
// terminal has no real z-axis, so "overlay" means its own rows.
func (m Model) renderToastRows() string {
	toasts := m.toasts.GetToasts()
	if len(toasts) == 0 {
		return ""
	}

	rows := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rows = append(rows, components.RenderToast(t, m.width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rows...)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack)
}

// =============================================================================
// INPUT AREA
// =============================================================================

func (m Model) renderInput() string {
	var inputLine string
	switch m.state {
	case StateStreaming:
		inputLine = m.theme.InputPlaceholder.Render("Streaming... press esc to cancel")
	case StateRecording:
		inputLine = m.theme.InputPlaceholder.Render("Recording... ctrl+r to stop, esc to discard")
	case StateTranscribing:
		inputLine = m.theme.InputPlaceholder.Render("Waiting for transcription...")
	default:
		inputLine = m.input.View()
	}

	count := m.renderCharCount()
	if count == "" {
		count = m.renderCompletionHint()
	}
	content := inputLine
	if count != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, inputLine, count)
	}

	// Forced height so the layout math stays stable across states.
	return m.theme.InputContainer.
		Width(m.width - 2).
		Height(3).
		MaxHeight(5).
		Render(content)
}

// renderCharCount shows remaining capacity once input grows long.
func (m Model) renderCharCount() string {
	length := len([]rune(m.input.Value()))
	if length == 0 {
		return ""
	}

	percent := length * 100 / maxInputChars
	text := formatInt(length) + "/" + formatInt(maxInputChars)

	switch {
	case percent >= 90:
		return m.theme.CharCountDanger.Render(text)
	case percent >= 75:
		return m.theme.CharCountWarning.Render(text)
	default:
		return m.theme.CharCount.Render(text)
	}
}

// =============================================================================
// STATUS BAR
// =============================================================================

// renderStatusBar shows backend state, model, voice, and key hints.
// Segments drop from the right as the terminal narrows.
func (m Model) renderStatusBar() string {
	var segments []string

	if m.backendOnline {
		segments = append(segments, m.theme.BackendOnline.Render(styles.StatusIndicators.Success+" backend"))
	} else {
		segments = append(segments, m.theme.BackendOffline.Render(styles.StatusIndicators.Error+" backend"))
	}

	modelName := m.currentModel
	if modelName == "" {
		modelName = "default"
	}
	segments = append(segments, m.theme.ModelBadge.Render(util.TruncateWidth(modelName, 24)))

	if m.voiceEnabled {
		voiceSeg := styles.StatusIndicators.Speaking + " " + m.currentVoice
		if m.autoSpeak {
			voiceSeg += " auto"
		}
		segments = append(segments, m.theme.VoiceBadge.Render(voiceSeg))
	} else {
		segments = append(segments, m.theme.VoiceMuted.Render("voice off"))
	}

	if tokens := m.conversation.EstimateTokens(); tokens > 0 {
		segments = append(segments, m.theme.ShortcutDesc.Render("~"+formatNumberWithCommas(tokens)+" tok"))
	}

	hints := m.theme.ShortcutKey.Render("ctrl+h") + m.theme.ShortcutDesc.Render(" help")

	// Progressive truncation: drop trailing segments until it fits.
	for len(segments) > 1 {
		line := strings.Join(segments, " | ")
		if lipgloss.Width(line)+lipgloss.Width(hints)+3 <= m.width {
			break
		}
		segments = segments[:len(segments)-1]
	}

	left := strings.Join(segments, " | ")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		gap = 1
	}

	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + hints)
}

// =============================================================================
// ERROR VIEW
// =============================================================================

// renderErrorView renders the blocking error screen.
func (m Model) renderErrorView() string {
	title := m.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + m.errTitle)
	message := m.theme.ErrorMessage.Render(wrapText(m.errMessage, 60))

	parts := []string{title, "", message}
	if m.errTip != "" {
		parts = append(parts, "", m.theme.ErrorTip.Render("Tip: "+m.errTip))
	}
	parts = append(parts, "", m.theme.ShortcutDesc.Render("press enter to continue"))

	box := m.theme.ErrorBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

// renderHelpOverlay renders context-sensitive key bindings.
func (m Model) renderHelpOverlay() string {
	ctx := m.helpContext()

	var sb strings.Builder
	sb.WriteString(m.theme.HeaderTitle.Render("Keys - " + GetContextDisplayName(ctx)))
	sb.WriteString("\n\n")

	keyStyle := m.theme.ShortcutKey.Width(12)
	for _, item := range GetHelpItemsForContext(ctx) {
		sb.WriteString(keyStyle.Render(item.Key))
		sb.WriteString(m.theme.ShortcutDesc.Render(item.Desc))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.HeaderTitle.Render("Commands"))
	sb.WriteString("\n\n")
	for _, cmd := range m.registry.All() {
		if cmd.Hidden {
			continue
		}
		sb.WriteString(keyStyle.Render(cmd.Name))
		sb.WriteString(m.theme.ShortcutDesc.Render(cmd.Description))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.ShortcutDesc.Render("press any key to close"))

	box := m.theme.WelcomeBox.Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
