// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the parley CLI.
//
// Handles the "parley chat" command which provides an interactive REPL
// for conversing with the backend without the full TUI.
//
// Command: chat
// Short:   Start an interactive chat session
//
// Examples:
//   parley chat                       Start interactive chat (default model)
//   parley chat --model qwen2.5:7b    Use specific model
//
// Interactive Commands (during chat):
//   /help, /h           Show available commands
//   /clear, /c          Clear conversation history
//   /model [name]       Show or switch model
//   /speak              Read the last response aloud
//   /status, /s         Show session statistics
//   /history            Show conversation history
//   /quit, /q           Exit chat
//   Ctrl+C              Cancel current generation
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/model"
	"github.com/jeranaias/parley-tui/internal/ui/styles"
	"github.com/jeranaias/parley-tui/internal/util"
	"github.com/jeranaias/parley-tui/internal/voice"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	cliWarningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	cliErrorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(styles.Cyan).
				Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
// Supports arrow keys for history navigation.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	historyFile := filepath.Join(configDir, "chat_history")

	cli := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}

	cli.LoadHistory()

	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}

	return input, nil
}

// SaveHistory persists command history to file with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// SESSION STATE
// =============================================================================

// ChatSession holds the state for an interactive chat session.
type ChatSession struct {
	// Conversation history
	Conversation *model.Conversation

	// Configuration
	Config *config.Config
	Model  string
	Voice  string
	Quiet  bool

	// Tracking
	StartTime   time.Time
	QueryCount  int
	TotalTokens int

	// Clients
	Client  *backend.Client
	Speaker *voice.Speaker

	// Cancel function for the in-flight stream. The REPL loop writes
	// it and the signal goroutine reads it, so access goes through
	// setCancel and cancelActive.
	cancelMu   sync.Mutex
	cancelFunc context.CancelFunc

	// Input history handler
	InputCLI *ChatCLI
}

func (s *ChatSession) setCancel(fn context.CancelFunc) {
	s.cancelMu.Lock()
	s.cancelFunc = fn
	s.cancelMu.Unlock()
}

// cancelActive cancels the in-flight stream, reporting whether one
// was running.
func (s *ChatSession) cancelActive() bool {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.cancelFunc == nil {
		return false
	}
	s.cancelFunc()
	s.cancelFunc = nil
	return true
}

// NewChatSession creates a new chat session.
func NewChatSession(args Args) *ChatSession {
	cfg := config.Global()

	client := newBackendClient(cfg)

	return &ChatSession{
		Conversation: model.NewConversation(),
		Config:       cfg,
		Model:        resolveModel(args, cfg),
		Voice:        resolveVoice(args, cfg),
		Quiet:        args.Quiet,
		StartTime:    time.Now(),
		Client:       client,
		Speaker:      voice.NewSpeaker(client),
		InputCLI:     NewChatCLI(),
	}
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command with full interactive support.
func HandleChatCommand(args Args) error {
	session := NewChatSession(args)

	ctx := context.Background()
	if err := connectBackend(ctx, session.Client, session.Config); err != nil {
		return err
	}

	if !session.Quiet {
		printWelcome(session)
	}

	defer session.InputCLI.Close()

	// First Ctrl+C cancels the current generation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig == os.Interrupt || sig == syscall.SIGTERM {
				if session.cancelActive() {
					fmt.Fprintln(os.Stderr, "\n"+cliWarningStyle.Render("[Cancelled]"))
				}
			}
		}
	}()

	for {
		input, err := session.InputCLI.ReadInput(promptStyle.Render("parley> "))
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println()
				printExitSummary(session)
				return nil
			}
			// EOF (Ctrl+D) or other error exits gracefully
			fmt.Println()
			printExitSummary(session)
			return nil
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := handleSlashCommand(input, session)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n",
					cliErrorStyle.Render("[Error]"),
					err)
			}
			if !shouldContinue {
				printExitSummary(session)
				return nil
			}
			continue
		}

		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			printExitSummary(session)
			return nil
		}

		if err := processMessage(session, input); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n",
				cliErrorStyle.Render("[Error]"),
				err)
		}
	}
}

// =============================================================================
// MESSAGE PROCESSING
// =============================================================================

// processMessage sends a message to the backend and streams the response.
func processMessage(session *ChatSession, input string) error {
	ctx, cancel := context.WithCancel(context.Background())
	session.setCancel(cancel)
	defer func() {
		session.setCancel(nil)
		cancel()
	}()

	useMarkdown := session.Config.UI.Markdown && IsStdoutTTY()

	fmt.Println() // Space before response

	session.Conversation.AddUserMessage(input)
	assistant := session.Conversation.AddAssistantMessage()

	stats := backend.NewStreamStats()
	var streamErr error

	err := session.Client.ChatStream(ctx, input, session.Model, func(event backend.StreamEvent) {
		switch {
		case event.Error != nil:
			streamErr = event.Error
		case event.Done:
			stats.Finalize()
		default:
			stats.RecordToken()
			session.Conversation.AppendToLast(event.Token)
			// Collect and render at the end for proper markdown formatting
			if !useMarkdown {
				streamToStdout(event.Token)
			}
		}
	})

	if err != nil || streamErr != nil {
		// Drop the half-finished message pair on error
		session.Conversation.RemoveMessage(assistant.ID)
		if last := session.Conversation.GetLastUserMessage(); last != nil {
			session.Conversation.RemoveMessage(last.ID)
		}
		if err != nil {
			return fmt.Errorf("streaming failed: %w", err)
		}
		return fmt.Errorf("generation failed: %w", streamErr)
	}

	// A stream that closes without a done event still gets a duration.
	stats.Finalize()

	session.Conversation.FinalizeLast(nil)
	responseContent := assistant.Content

	if useMarkdown {
		displayResponse(responseContent)
	}

	fmt.Println()
	fmt.Println()

	session.QueryCount++
	session.TotalTokens += stats.TokenCount

	if !session.Quiet {
		fmt.Fprintf(os.Stderr, "%s %d tokens | %s | %.1f tok/s\n",
			infoStyle.Render("[Stats]"),
			stats.TokenCount,
			formatDurationShort(stats.TotalDuration),
			stats.TokensPerSecond)
	}

	return nil
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, session *ChatSession) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true, nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printChatHelp()
		return true, nil

	case "/clear", "/c":
		session.Conversation.ClearHistory()
		fmt.Println(commandStyle.Render("[Conversation cleared]"))
		return true, nil

	case "/model", "/m":
		return handleModelCommand(session, args)

	case "/speak":
		return handleSpeakCommand(session)

	case "/status", "/s":
		printStatus(session)
		return true, nil

	case "/quit", "/q", "/exit":
		return false, nil

	case "/history":
		printHistory(session)
		return true, nil

	case "/":
		printChatHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handleModelCommand handles the /model command.
func handleModelCommand(session *ChatSession, args []string) (bool, error) {
	if len(args) == 0 {
		name := session.Model
		if name == "" {
			name = "(backend default)"
		}
		fmt.Printf("%s Current model: %s\n",
			infoStyle.Render("[Model]"),
			commandStyle.Render(name))
		return true, nil
	}

	newModel := args[0]

	// Warn if the model is not in the backend's list, but switch anyway
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if models, err := session.Client.ListModels(ctx); err == nil {
		found := false
		for _, m := range models {
			if m.Name == newModel {
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s Model '%s' not reported by backend, will attempt to use anyway\n",
				cliWarningStyle.Render("[Warning]"),
				newModel)
		}
	}

	session.Model = newModel
	session.Client.SetModel(newModel)
	fmt.Printf("%s Switched to model: %s\n",
		commandStyle.Render("[OK]"),
		newModel)

	return true, nil
}

// handleSpeakCommand reads the last assistant response aloud.
func handleSpeakCommand(session *ChatSession) (bool, error) {
	last := session.Conversation.GetLastAssistantMessage()
	if last == nil || last.Content == "" {
		return true, fmt.Errorf("nothing to speak yet")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	fmt.Println(infoStyle.Render("[Speaking...]"))

	done := make(chan struct{})
	err := session.Speaker.Speak(ctx, last.Content, session.Voice, func() { close(done) })
	if err != nil {
		if err == voice.ErrNothingToSpeak {
			return true, fmt.Errorf("nothing to speak yet")
		}
		return true, fmt.Errorf("speech failed: %w", err)
	}
	<-done

	return true, nil
}

// =============================================================================
// DISPLAY FUNCTIONS
// =============================================================================

// printWelcome prints the welcome banner.
func printWelcome(session *ChatSession) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("parley interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))

	modelName := session.Model
	if modelName == "" {
		modelName = "(backend default)"
	}
	fmt.Printf("%s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(modelName))
	fmt.Printf("%s %s\n",
		infoStyle.Render("Backend:"),
		commandStyle.Render(session.Client.GetConfig().BaseURL))

	if session.Config.Voice.Enabled {
		voiceName := session.Voice
		if voiceName == "" {
			voiceName = "(backend default)"
		}
		fmt.Printf("%s %s\n",
			infoStyle.Render("Voice:"),
			commandStyle.Render(voiceName))
	} else {
		fmt.Printf("%s %s\n",
			infoStyle.Render("Voice:"),
			cliWarningStyle.Render("disabled"))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

// printChatHelp prints available commands.
func printChatHelp() {
	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/clear, /c", "Clear conversation history"},
		{"/model [name]", "Show or switch model"},
		{"/speak", "Read the last response aloud"},
		{"/status, /s", "Show session statistics"},
		{"/history", "Show conversation history"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+C cancels current generation, Ctrl+D exits"))
	fmt.Println()
}

// printStatus prints session statistics.
func printStatus(session *ChatSession) {
	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Status"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	modelName := session.Model
	if modelName == "" {
		modelName = "(backend default)"
	}
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Model:"),
		commandStyle.Render(modelName))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())
	fmt.Printf("  %s %d messages\n",
		infoStyle.Render("History:"),
		session.Conversation.MessageCount())
	fmt.Printf("  %s %d\n",
		infoStyle.Render("Queries:"),
		session.QueryCount)
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Tokens:"),
		formatNumber(session.TotalTokens))

	fmt.Println()
}

// printHistory prints conversation history.
func printHistory(session *ChatSession) {
	history := session.Conversation.GetHistory()
	if len(history) == 0 {
		fmt.Println(infoStyle.Render("[No messages yet]"))
		return
	}

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Conversation History"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 25)))
	fmt.Println()

	for i, msg := range history {
		role := string(msg.Role)
		switch msg.Role {
		case model.RoleUser:
			role = lipgloss.NewStyle().Foreground(styles.Cyan).Render("You")
		case model.RoleAssistant:
			role = lipgloss.NewStyle().Foreground(styles.Purple).Render("AI")
		case model.RoleSystem:
			role = lipgloss.NewStyle().Foreground(styles.Amber).Render("System")
		}

		// Rune-based truncation for Unicode safety
		content := util.TruncateRunes(msg.Content, 100)
		content = strings.ReplaceAll(content, "\n", " ")

		fmt.Printf("  %d. %s: %s\n", i+1, role, content)
	}

	fmt.Println()
}

// printExitSummary prints the session summary on exit.
func printExitSummary(session *ChatSession) {
	if session.QueryCount == 0 {
		fmt.Println(infoStyle.Render("Goodbye!"))
		return
	}

	elapsed := time.Since(session.StartTime).Round(time.Second)

	fmt.Println()
	fmt.Println(summaryHeaderStyle.Render("Session Summary"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 15)))

	fmt.Printf("  %s %d\n",
		infoStyle.Render("Queries:"),
		session.QueryCount)
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Tokens:"),
		formatNumber(session.TotalTokens))
	fmt.Printf("  %s %s\n",
		infoStyle.Render("Duration:"),
		elapsed.String())

	fmt.Println()
	fmt.Println(infoStyle.Render("Goodbye!"))
}
