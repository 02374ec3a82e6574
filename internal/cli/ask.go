// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the parley CLI.
//
// Handles the "parley ask" command which sends a single question to the
// backend and streams the response to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   parley ask "What is the capital of France?"
//   parley ask "Review this code:" --file main.go
//   parley ask --speak "Tell me a short story"
//   cat error.log | parley ask
//
// Flags:
//   -f, --file FILE     Include file content with the question
//   -m, --model NAME    Use specific model (overrides config)
//   --speak             Read the answer aloud when the stream finishes
//   --json              Output response as JSON
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/voice"
)

// MaxFileSize is the maximum file size to include (50KB).
const MaxFileSize = 50 * 1024

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fall back to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a response with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// streamToStdout prints tokens directly to stdout.
func streamToStdout(token string) {
	fmt.Print(token)
}

// =============================================================================
// FILE READING
// =============================================================================

// readFileForContext reads a file and formats it for inclusion in a prompt.
// Files larger than MaxFileSize are rejected.
func readFileForContext(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("cannot access file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d bytes)", info.Size(), MaxFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("\n--- File: %s ---\n", path))
	builder.Write(content)
	builder.WriteString("\n--- End of file ---\n")

	return builder.String(), nil
}

// =============================================================================
// CLIENT SETUP
// =============================================================================

// newBackendClient builds a backend client from the loaded configuration.
func newBackendClient(cfg *config.Config) *backend.Client {
	clientCfg := backend.DefaultConfig()
	if cfg.Backend.URL != "" {
		clientCfg.BaseURL = cfg.Backend.URL
	}
	if cfg.Backend.TimeoutSecs > 0 {
		clientCfg.Timeout = time.Duration(cfg.Backend.TimeoutSecs) * time.Second
	}
	if cfg.Backend.SpeechTimeoutSecs > 0 {
		clientCfg.SpeechTimeout = time.Duration(cfg.Backend.SpeechTimeoutSecs) * time.Second
	}
	clientCfg.DefaultModel = cfg.Backend.DefaultModel
	return backend.NewClientWithConfig(clientCfg)
}

// connectBackend verifies the backend is reachable, starting it first when
// auto-start is configured.
func connectBackend(ctx context.Context, client *backend.Client, cfg *config.Config) error {
	if cfg.Backend.AutoStart {
		if err := client.EnsureRunning(ctx); err != nil {
			return fmt.Errorf("backend is not running and could not be started: %w", err)
		}
		return nil
	}
	if err := client.CheckRunning(ctx); err != nil {
		return fmt.Errorf("backend is not running at %s. Start it with: parley-server", client.GetConfig().BaseURL)
	}
	return nil
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// AskData is the JSON payload for the ask command.
type AskData struct {
	Question   string  `json:"question"`
	Response   string  `json:"response"`
	Model      string  `json:"model"`
	Tokens     int     `json:"tokens"`
	DurationMs int64   `json:"duration_ms"`
	TokensPerS float64 `json:"tokens_per_second"`
}

// HandleAskCommand handles the "ask" command with full streaming support.
func HandleAskCommand(args Args) error {
	cfg := config.Global()

	// Question comes from positional args, or stdin when piped
	question := args.Query
	if question == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			reader := bufio.NewReader(os.Stdin)
			stdinData, err := io.ReadAll(reader)
			if err == nil && len(stdinData) > 0 {
				question = strings.TrimSpace(string(stdinData))
				if !args.Quiet {
					fmt.Fprintf(os.Stderr, "%s Read question from stdin (%d bytes)\n",
						lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render("[+]"),
						len(stdinData))
				}
			}
		}
	}

	if question == "" {
		err := fmt.Errorf("no question provided. Usage: parley ask \"your question\"")
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
		}
		return err
	}

	// Attach file content when requested
	if args.File != "" {
		fileContent, err := readFileForContext(args.File)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		question = question + "\n" + fileContent

		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s Including file: %s\n",
				lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render("[+]"),
				args.File)
		}
	}

	client := newBackendClient(cfg)
	ctx := context.Background()

	if err := connectBackend(ctx, client, cfg); err != nil {
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
		}
		return err
	}

	modelName := resolveModel(args, cfg)

	// Render markdown at the end on a TTY; stream plain text otherwise.
	// ui.markdown=false forces plain text even on a TTY.
	useMarkdown := cfg.UI.Markdown && IsStdoutTTY() && !args.JSON

	stats := backend.NewStreamStats()
	var response strings.Builder
	var streamErr error

	err := client.ChatStream(ctx, question, modelName, func(event backend.StreamEvent) {
		switch {
		case event.Error != nil:
			streamErr = event.Error
		case event.Done:
			stats.Finalize()
		default:
			stats.RecordToken()
			response.WriteString(event.Token)
			if !useMarkdown && !args.JSON {
				streamToStdout(event.Token)
			}
		}
	})
	if err != nil {
		if args.JSON {
			NewJSONErrorResponse("ask", err).Print()
		}
		return fmt.Errorf("streaming failed: %w", err)
	}
	if streamErr != nil {
		if args.JSON {
			NewJSONErrorResponse("ask", streamErr).Print()
		}
		return fmt.Errorf("generation failed: %w", streamErr)
	}

	// A stream that closes without a done event still gets a duration.
	stats.Finalize()

	content := response.String()

	if args.JSON {
		data := AskData{
			Question:   args.Query,
			Response:   content,
			Model:      modelName,
			Tokens:     stats.TokenCount,
			DurationMs: stats.TotalDuration.Milliseconds(),
			TokensPerS: stats.TokensPerSecond,
		}
		if err := NewJSONResponse("ask", data).Print(); err != nil {
			return err
		}
	} else if useMarkdown {
		displayResponse(content)
		fmt.Println()
	} else {
		fmt.Println()
	}

	// Brief stats on stderr
	if !args.Quiet && !args.JSON {
		fmt.Fprintf(os.Stderr, "%s %d tokens | %s | %.1f tok/s\n",
			DimStyle.Render("[Stats]"),
			stats.TokenCount,
			formatDurationShort(stats.TotalDuration),
			stats.TokensPerSecond)
	}

	// Read the answer aloud when requested
	if args.Speak && content != "" {
		if err := speakResponse(ctx, client, cfg, args, content); err != nil {
			// Voice failure degrades to text-only; the answer is already printed
			logging.Warn().Err(err).Msg("ask: speech playback failed")
			fmt.Fprintf(os.Stderr, "%s Could not play speech: %v\n",
				WarningStyle.Render("[!]"), err)
		}
	}

	return nil
}

// speakResponse synthesizes and plays the response, blocking until playback ends.
func speakResponse(ctx context.Context, client *backend.Client, cfg *config.Config, args Args, text string) error {
	speaker := voice.NewSpeaker(client)
	voiceName := resolveVoice(args, cfg)

	if !args.Quiet {
		fmt.Fprintf(os.Stderr, "%s Speaking...\n", DimStyle.Render("[<))]"))
	}

	done := make(chan struct{})
	if err := speaker.Speak(ctx, text, voiceName, func() { close(done) }); err != nil {
		return err
	}
	<-done
	return nil
}
