// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for parley.
//
// Command: status
// Short:   Display backend and voice status
// Aliases: s, info
//
// Examples:
//   parley status                 Show system status
//   parley s                      Show status (short alias)
//   parley status --json          Status in JSON format
//
// Status Sections:
//   Backend:   URL, reachability, inference engine connection
//   Model:     Configured model and available models
//   Voice:     Enabled flag, TTS voice, whisper model, available voices
//   Paths:     Config file and log directory
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// statusCheckTimeout bounds each backend probe.
const statusCheckTimeout = 5 * time.Second

// StatusData is the JSON payload for the status command.
type StatusData struct {
	Backend StatusBackend `json:"backend"`
	Model   StatusModel   `json:"model"`
	Voice   StatusVoice   `json:"voice"`
	Paths   StatusPaths   `json:"paths"`
}

// StatusBackend describes backend reachability.
type StatusBackend struct {
	URL     string `json:"url"`
	Online  bool   `json:"online"`
	Status  string `json:"status,omitempty"`
	Ollama  string `json:"ollama,omitempty"`
	Healthy bool   `json:"healthy"`
}

// StatusModel describes the configured and available models.
type StatusModel struct {
	Configured string   `json:"configured"`
	Available  []string `json:"available,omitempty"`
}

// StatusVoice describes the voice pipeline configuration.
type StatusVoice struct {
	Enabled      bool     `json:"enabled"`
	AutoSpeak    bool     `json:"auto_speak"`
	Voice        string   `json:"voice,omitempty"`
	WhisperModel string   `json:"whisper_model,omitempty"`
	Available    []string `json:"available_voices,omitempty"`
}

// StatusPaths describes on-disk locations.
type StatusPaths struct {
	ConfigFile string `json:"config_file,omitempty"`
	LogDir     string `json:"log_dir,omitempty"`
}

// collectStatus probes the backend and assembles the status report.
func collectStatus(args Args) StatusData {
	cfg := config.Global()
	client := newBackendClient(cfg)

	data := StatusData{
		Backend: StatusBackend{URL: client.GetConfig().BaseURL},
		Model:   StatusModel{Configured: cfg.Backend.DefaultModel},
		Voice: StatusVoice{
			Enabled:      cfg.Voice.Enabled,
			AutoSpeak:    cfg.Voice.AutoSpeak,
			Voice:        cfg.Voice.Voice,
			WhisperModel: cfg.Voice.WhisperModel,
		},
	}

	if path, err := config.ConfigPathTOML(); err == nil {
		data.Paths.ConfigFile = path
	}
	if dir, err := logging.ResolveDir(cfg.Log.Path); err == nil {
		data.Paths.LogDir = dir
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusCheckTimeout)
	defer cancel()

	health, err := client.CheckHealth(ctx)
	if err != nil {
		return data
	}
	data.Backend.Online = true
	data.Backend.Status = health.Status
	data.Backend.Ollama = health.Ollama
	data.Backend.Healthy = health.Healthy()

	if models, err := client.ListModels(ctx); err == nil {
		for _, m := range models {
			data.Model.Available = append(data.Model.Available, m.Name)
		}
	}

	if cfg.Voice.Enabled {
		if voices, err := client.ListVoices(ctx); err == nil {
			for _, v := range voices {
				data.Voice.Available = append(data.Voice.Available, v.ID)
			}
		}
	}

	return data
}

// HandleStatus handles the "status" command.
func HandleStatus(args Args) {
	data := collectStatus(args)

	if args.JSON {
		NewJSONResponse("status", data).Print()
		return
	}

	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(TitleStyle.Render("parley Status"))
	fmt.Println(CLISeparatorStyle.Render(separator))

	// Backend section
	fmt.Println(SectionStyle.Render("Backend"))
	fmt.Printf("  %s %s\n", LabelStyle.Render("URL"), ValueStyle.Render(data.Backend.URL))
	if data.Backend.Online {
		state := SuccessStyle.Render("online")
		if !data.Backend.Healthy {
			state = WarningStyle.Render("degraded")
		}
		fmt.Printf("  %s %s\n", LabelStyle.Render("Status"), state)
		ollamaState := data.Backend.Ollama
		if ollamaState == "connected" {
			ollamaState = SuccessStyle.Render(ollamaState)
		} else {
			ollamaState = WarningStyle.Render(ollamaState)
		}
		fmt.Printf("  %s %s\n", LabelStyle.Render("Ollama"), ollamaState)
	} else {
		fmt.Printf("  %s %s\n", LabelStyle.Render("Status"), ErrorStyle.Render("offline"))
		fmt.Printf("  %s %s\n", LabelStyle.Render(""), DimStyle.Render("Start it with: parley-server"))
	}

	// Model section
	fmt.Println(SectionStyle.Render("Model"))
	configured := data.Model.Configured
	if configured == "" {
		configured = "(backend default)"
	}
	fmt.Printf("  %s %s\n", LabelStyle.Render("Configured"), ValueStyle.Render(configured))
	if len(data.Model.Available) > 0 {
		fmt.Printf("  %s %s\n", LabelStyle.Render("Available"), ValueStyle.Render(strings.Join(data.Model.Available, ", ")))
	}

	// Voice section
	fmt.Println(SectionStyle.Render("Voice"))
	if data.Voice.Enabled {
		fmt.Printf("  %s %s\n", LabelStyle.Render("Enabled"), SuccessStyle.Render("yes"))
		voiceName := data.Voice.Voice
		if voiceName == "" {
			voiceName = "(backend default)"
		}
		fmt.Printf("  %s %s\n", LabelStyle.Render("TTS voice"), ValueStyle.Render(voiceName))
		fmt.Printf("  %s %s\n", LabelStyle.Render("Whisper"), ValueStyle.Render(data.Voice.WhisperModel))
		autoSpeak := "off"
		if data.Voice.AutoSpeak {
			autoSpeak = "on"
		}
		fmt.Printf("  %s %s\n", LabelStyle.Render("Auto-speak"), ValueStyle.Render(autoSpeak))
		if len(data.Voice.Available) > 0 {
			fmt.Printf("  %s %s\n", LabelStyle.Render("Voices"), ValueStyle.Render(strings.Join(data.Voice.Available, ", ")))
		}
	} else {
		fmt.Printf("  %s %s\n", LabelStyle.Render("Enabled"), DimStyle.Render("no"))
	}

	// Paths section
	fmt.Println(SectionStyle.Render("Paths"))
	if data.Paths.ConfigFile != "" {
		fmt.Printf("  %s %s\n", LabelStyle.Render("Config"), DimStyle.Render(data.Paths.ConfigFile))
	}
	if data.Paths.LogDir != "" {
		fmt.Printf("  %s %s\n", LabelStyle.Render("Logs"), DimStyle.Render(data.Paths.LogDir))
	}

	fmt.Println()
}
