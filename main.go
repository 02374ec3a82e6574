// parley TUI - A voice-enabled terminal client for a local LLM backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/cli"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
	"github.com/jeranaias/parley-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	cfg := config.Global()
	initLogging(cfg, args)
	defer logging.Close()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdConfig:
		if err := cli.HandleConfig(args); err != nil {
			cli.DisplayError(err, args.JSON)
			os.Exit(cli.GetExitCode(err))
		}
	case cli.CmdDoctor:
		if err := cli.HandleDoctor(args); err != nil {
			os.Exit(cli.ExitGeneralError)
		}
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	}
}

// initLogging sets up the file logger; a failure here is not fatal.
func initLogging(cfg *config.Config, args cli.Args) {
	dir, err := logging.ResolveDir(cfg.Log.Path)
	if err != nil {
		return
	}

	level := cfg.Log.Level
	if args.Verbose {
		level = "debug"
	}

	if err := logging.Init(dir, level); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not initialize logging: %v\n", err)
	}
}

// newClient builds the backend client from configuration.
func newClient(cfg *config.Config) *backend.Client {
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

// runTUI starts the full-screen chat interface.
func runTUI(args cli.Args) {
	cfg := config.Global()

	client := newClient(cfg)

	// CLI args override config
	if args.Model != "" {
		cfg.Backend.DefaultModel = args.Model
		client.SetModel(args.Model)
	}
	if args.Voice != "" {
		cfg.Voice.Voice = args.Voice
	}

	// Optionally launch the backend process; the TUI degrades to an
	// offline banner if this fails, so only log the error.
	if cfg.Backend.AutoStart {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := client.EnsureRunning(ctx); err != nil {
			logging.Warn().Err(err).Msg("backend auto-start failed")
		}
		cancel()
	}

	// Reload config on external edits while the TUI runs. The watcher
	// installs the new config and logs the reload itself.
	watcher, err := config.NewWatcher(nil)
	if err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	chatModel := chat.New(cfg, client)

	p := tea.NewProgram(
		chatModel,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// The stream runner needs the program handle to deliver tokens, and
	// the model needs the runner to start streams. Bind after both exist;
	// the binding is shared by every copy of the model.
	runner := chat.NewStreamRunner(p, client)
	chatModel.BindStreamRunner(func(ctx context.Context, message, model string) {
		runner.Run(ctx, message, model)
	})

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
