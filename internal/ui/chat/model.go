// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/commands"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/components"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/voice"
)

// =============================================================================
// STATE
// =============================================================================

// State is the chat view's top-level mode. Exactly one response can
// stream, one recording can run, and one transcription can be in
// flight at a time; the state gate enforces it.
type State int

const (
	// StateReady accepts input.
	StateReady State = iota
	// StateStreaming is receiving a response; input is locked.
	StateStreaming
	// StateRecording is capturing from the microphone.
	StateRecording
	// StateTranscribing is waiting for speech-to-text.
	StateTranscribing
	// StateError shows a blocking error until dismissed.
	StateError
)

// maxInputChars caps a single message.
const maxInputChars = 4000

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat view. It is a value type; shared mutable state
// (streaming buffer, cancel manager, toasts) lives behind pointers so
// Bubble Tea's copy-on-update semantics stay correct.
type Model struct {
	state  State
	width  int
	height int
	ready  bool

	conversation *model.Conversation

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	theme    *styles.Theme
	keys     KeyMap

	streamBuffer *StreamingBuffer
	cancelMgr    *cancelManager
	vpOptimizer  *ViewportOptimizer
	starter      *streamStarter

	client          *backend.Client
	backendOnline   bool
	currentModel    string
	availableModels []string
	availableVoices []backend.Voice

	transcriber  *voice.Transcriber
	speaker      *voice.Speaker
	voiceEnabled bool
	autoSpeak    bool
	currentVoice string
	maxRecord    time.Duration
	recording    components.RecordingIndicator
	speaking     components.SpeakingIndicator

	registry             *commands.Registry
	parser               *commands.Parser
	completer            *commands.Completer
	completionState      *commands.CompletionState
	showCompletions      bool
	completionCycleCount int

	toasts *components.ToastManager

	errTitle   string
	errMessage string
	errTip     string

	showHelp  bool
	showStats bool
	compact   bool
}

// New creates a chat model wired to the given backend client. The
// config decides voice availability and the starting chat model.
func New(cfg *config.Config, client *backend.Client) Model {
	theme := styles.NewTheme()

	input := textinput.New()
	input.Placeholder = "Type a message or /command..."
	input.CharLimit = maxInputChars
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.TextStyle = theme.InputText
	input.PlaceholderStyle = theme.InputPlaceholder
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.DotsSpinner.Frames,
		FPS:    styles.DotsSpinner.Duration(),
	}
	sp.Style = theme.Spinner

	registry := commands.NewRegistry()

	maxRecord := 120 * time.Second
	if cfg != nil && cfg.Voice.MaxRecordSecs > 0 {
		maxRecord = time.Duration(cfg.Voice.MaxRecordSecs) * time.Second
	}

	m := Model{
		state:        StateReady,
		conversation: model.NewConversation(),
		input:        input,
		spinner:      sp,
		theme:        theme,
		keys:         DefaultKeyMap(),

		streamBuffer: NewStreamingBuffer(),
		cancelMgr:    newCancelManager(),
		vpOptimizer:  NewViewportOptimizer(),
		starter:      &streamStarter{},

		client: client,

		transcriber: voice.NewTranscriber(client),
		speaker:     voice.NewSpeaker(client),
		maxRecord:   maxRecord,
		recording:   components.NewRecordingIndicator(maxRecord),
		speaking:    components.NewSpeakingIndicator(),

		registry:        registry,
		parser:          commands.NewParser(registry),
		completer:       commands.NewCompleter(registry),
		completionState: commands.NewCompletionState(),

		toasts: components.NewToastManager(),
	}
	m.transcriber.SetMaxDuration(maxRecord)

	if cfg != nil {
		m.currentModel = cfg.Backend.DefaultModel
		m.voiceEnabled = cfg.Voice.Enabled
		m.autoSpeak = cfg.Voice.AutoSpeak
		m.currentVoice = cfg.Voice.Voice
		m.showStats = cfg.UI.ShowTokens
		m.compact = cfg.UI.CompactMode
	}
	m.completer.ConfigFn = func() []string { return commands.ConfigKeys }

	return m
}

// Init starts the background checks that populate the status bar and
// completion lists.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		checkBackendCmd(m.client),
		listModelsCmd(m.client),
		listVoicesCmd(m.client),
		components.ToastTickCmd(),
	)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// GetState returns the current view state.
func (m Model) GetState() State { return m.state }

// CurrentModel returns the active chat model name. Empty means the
// backend default.
func (m Model) CurrentModel() string { return m.currentModel }

// Conversation exposes the history for export and tests.
func (m Model) Conversation() *model.Conversation { return m.conversation }

// Streaming reports whether a response is in flight.
func (m Model) Streaming() bool { return m.state == StateStreaming }

// Client returns the backend client the view talks to.
func (m Model) Client() *backend.Client { return m.client }

// helpContext maps the state to the matching help bindings.
func (m Model) helpContext() HelpContext {
	switch m.state {
	case StateStreaming:
		return ContextStreaming
	case StateRecording, StateTranscribing:
		return ContextRecording
	case StateError:
		return ContextError
	}
	if m.speaker != nil && m.speaker.Speaking() {
		return ContextSpeaking
	}
	return ContextReady
}

// =============================================================================
// UPDATE
// =============================================================================

// Update is the Bubble Tea message dispatcher.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		return m.handleStreamStart(msg)
	case StreamTokenMsg:
		return m.handleStreamToken(msg)
	case StreamTickMsg:
		return m.handleStreamTick(msg)
	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)
	case StreamErrorMsg:
		return m.handleStreamError(msg)

	case BackendStatusMsg:
		return m.handleBackendStatus(msg)
	case BackendModelsMsg:
		return m.handleBackendModels(msg)
	case BackendVoicesMsg:
		return m.handleBackendVoices(msg)

	case RecordStartedMsg:
		return m.handleRecordStarted(msg)
	case TranscriptionMsg:
		return m.handleTranscription(msg)
	case SpeakStartedMsg:
		return m.handleSpeakStarted(msg)
	case SpeakDoneMsg:
		return m.handleSpeakDone(msg)
	case components.RecordingTickMsg:
		var cmd tea.Cmd
		m.recording, cmd = m.recording.Update(msg)
		if m.state == StateRecording && m.recording.Elapsed() >= m.maxRecord {
			return m.stopRecording()
		}
		return m, cmd
	case components.SpeakingTickMsg:
		var cmd tea.Cmd
		m.speaking, cmd = m.speaking.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.TickToasts()
		return m, components.ToastTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	// Slash command outcomes
	case commands.ShowHelpMsg:
		m.showHelp = true
		return m, nil
	case commands.ClearConversationMsg:
		return m.handleClearConversation()
	case commands.ModelSwitchMsg:
		return m.handleModelSwitch(msg)
	case commands.ShowModelsMsg:
		return m.handleShowModels(msg)
	case commands.ShowStatusMsg:
		return m.handleShowStatus()
	case commands.ShowStatsMsg:
		return m.handleShowStats()
	case commands.CopyToClipboardMsg:
		return m.handleCopyRequest(msg)
	case commands.CopyCompleteMsg:
		if msg.Success {
			m.toasts.AddSuccess("Copied to clipboard")
		} else {
			m.toasts.AddError("Copy failed: " + msg.Error.Error())
		}
		return m, nil
	case commands.SpeakLastMsg:
		return m.speakBack(msg.Back)
	case commands.VoiceEnableMsg:
		return m.handleVoiceEnable(msg.Enabled)
	case commands.StopSpeakingMsg:
		return m.stopSpeaking()
	case commands.ToggleAutoSpeakMsg:
		return m.handleToggleAutoSpeak()
	case commands.VoiceSwitchMsg:
		return m.handleVoiceSwitch(msg)
	case commands.ShowVoicesMsg:
		return m.handleShowVoices()
	case commands.SttModelSwitchMsg:
		return m.handleSttModelSwitch(msg)
	case commands.ShowConfigMsg:
		return m.handleShowConfig(msg)
	case commands.ConfigUpdateMsg:
		return m.handleConfigUpdate(msg)
	case commands.ErrorMsg:
		m.setError(msg.Title, msg.Message, msg.Tip)
		return m, nil
	case commands.SystemMessageMsg:
		m.conversation.AddSystemMessage(msg.Content)
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case ChatErrorMsg:
		m.setError(msg.Title, msg.Message, msg.Tip)
		return m, nil
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

// Height reserved outside the viewport: header, input area, status
// bar. The view renderer measures the real heights; these constants
// keep the viewport conservative so content never pushes the status
// bar off screen.
const (
	headerHeight    = 2
	inputAreaHeight = 4
	statusBarHeight = 2
)

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	chrome := headerHeight + inputAreaHeight + statusBarHeight
	if m.compact {
		chrome -= headerHeight
	}
	vpHeight := msg.Height - chrome
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}

	inputWidth := msg.Width - 6 - len(m.input.Prompt)
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.input.Width = inputWidth
	m.recording.SetWidth(msg.Width - 4)

	m.vpOptimizer.ForceUpdate()
	m.updateViewport()
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Emergency exit works in every state.
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	// Help overlay swallows keys until dismissed.
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	// Global bindings.
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	}

	switch m.state {
	case StateError:
		return m.handleErrorKey(msg)
	case StateStreaming:
		return m.handleStreamingKey(msg)
	case StateRecording:
		return m.handleRecordingKey(msg)
	case StateTranscribing:
		// Waiting on the backend; only scrolling.
		return m.handleScrollKey(msg)
	}
	return m.handleReadyKey(msg)
}

func (m Model) handleErrorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.clearError()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) handleStreamingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		logging.Info().Msg("stream cancelled by user")
		m.cancelMgr.fire()
		return m, nil
	}
	return m.handleScrollKey(msg)
}

func (m Model) handleRecordingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Record):
		return m.stopRecording()
	case key.Matches(msg, m.keys.Cancel):
		return m.cancelRecording()
	}
	return m, nil
}

func (m Model) handleReadyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()
	case key.Matches(msg, m.keys.Record):
		return m.startRecording()
	case key.Matches(msg, m.keys.Speak):
		return m.speakLast()
	case key.Matches(msg, m.keys.Clear):
		return m.handleClearConversation()
	case key.Matches(msg, m.keys.Complete):
		return m.handleTabCompletion()
	case key.Matches(msg, m.keys.Cancel):
		if m.showCompletions {
			m.clearCompletions()
			return m, nil
		}
		if m.speaker.Speaking() {
			return m.stopSpeaking()
		}
		m.input.SetValue("")
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown),
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown),
		key.Matches(msg, m.keys.Home), key.Matches(msg, m.keys.End):
		return m.handleScrollKey(msg)
	}

	// Anything else edits the input. Typing invalidates completions.
	if m.showCompletions {
		m.clearCompletions()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleScrollKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// ERROR STATE
// =============================================================================

func (m *Model) setError(title, message, tip string) {
	m.state = StateError
	m.errTitle = title
	m.errMessage = message
	m.errTip = tip
	m.input.Blur()
	logging.Error().Str("title", title).Str("detail", message).Msg("chat error shown")
}

func (m *Model) clearError() {
	m.state = StateReady
	m.errTitle = ""
	m.errMessage = ""
	m.errTip = ""
	m.input.Focus()
}

// =============================================================================
// VIEWPORT CONTENT
// =============================================================================

// updateViewport re-renders the conversation into the viewport if the
// content changed.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}
	content := m.renderMessages()
	if !m.vpOptimizer.ShouldUpdate(content) {
		return
	}
	m.viewport.SetContent(content)
}
