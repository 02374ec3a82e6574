// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for parley.
//
// Command: config [subcommand]
// Short:   Show or modify configuration
//
// Subcommands:
//   (default), show     Show current configuration
//   get KEY             Print a single value
//   set KEY VALUE       Set a value and save
//   reset               Restore default configuration
//   path                Print config file location
//
// Keys use dotted section notation, e.g.:
//   backend.url, backend.default_model, backend.auto_start,
//   voice.enabled, voice.auto_speak, voice.voice, voice.whisper_model,
//   ui.theme, ui.show_tokens, log.level
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/parley-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "get":
		return handleConfigGet(args)
	case "set":
		return handleConfigSet(args)
	case "reset":
		return handleConfigReset(args)
	case "path":
		return handleConfigPath(args)
	default:
		return NewValidationError("subcommand", args.Subcommand,
			"expected one of: show, get, set, reset, path")
	}
}

// configKeyList is the set of dotted keys exposed on the CLI, paired with
// a reader over the loaded config.
var configKeyList = []string{
	"backend.url",
	"backend.default_model",
	"backend.timeout_secs",
	"backend.speech_timeout_secs",
	"backend.auto_start",
	"voice.enabled",
	"voice.auto_speak",
	"voice.voice",
	"voice.whisper_model",
	"voice.max_record_secs",
	"ui.theme",
	"ui.show_tokens",
	"ui.markdown",
	"log.level",
}

// configGet reads a dotted key from the config.
func configGet(cfg *config.Config, key string) (string, error) {
	switch key {
	case "backend.url":
		return cfg.Backend.URL, nil
	case "backend.default_model":
		return cfg.Backend.DefaultModel, nil
	case "backend.timeout_secs":
		return strconv.Itoa(cfg.Backend.TimeoutSecs), nil
	case "backend.speech_timeout_secs":
		return strconv.Itoa(cfg.Backend.SpeechTimeoutSecs), nil
	case "backend.auto_start":
		return strconv.FormatBool(cfg.Backend.AutoStart), nil
	case "voice.enabled":
		return strconv.FormatBool(cfg.Voice.Enabled), nil
	case "voice.auto_speak":
		return strconv.FormatBool(cfg.Voice.AutoSpeak), nil
	case "voice.voice":
		return cfg.Voice.Voice, nil
	case "voice.whisper_model":
		return cfg.Voice.WhisperModel, nil
	case "voice.max_record_secs":
		return strconv.Itoa(cfg.Voice.MaxRecordSecs), nil
	case "ui.theme":
		return cfg.UI.Theme, nil
	case "ui.show_tokens":
		return strconv.FormatBool(cfg.UI.ShowTokens), nil
	case "ui.markdown":
		return strconv.FormatBool(cfg.UI.Markdown), nil
	case "log.level":
		return cfg.Log.Level, nil
	default:
		return "", NewNotFoundError("config key", key)
	}
}

// configSet writes a dotted key into the config. The caller saves.
func configSet(cfg *config.Config, key, value string) error {
	switch key {
	case "backend.url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return NewValidationError("backend.url", value, "must start with http:// or https://")
		}
		cfg.Backend.URL = value
	case "backend.default_model":
		cfg.Backend.DefaultModel = value
	case "backend.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return NewValidationError("backend.timeout_secs", value, "must be a positive integer")
		}
		cfg.Backend.TimeoutSecs = n
	case "backend.speech_timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return NewValidationError("backend.speech_timeout_secs", value, "must be a positive integer")
		}
		cfg.Backend.SpeechTimeoutSecs = n
	case "backend.auto_start":
		cfg.Backend.AutoStart = parseBool(value)
	case "voice.enabled":
		cfg.Voice.Enabled = parseBool(value)
	case "voice.auto_speak":
		cfg.Voice.AutoSpeak = parseBool(value)
	case "voice.voice":
		cfg.Voice.Voice = value
	case "voice.whisper_model":
		if !config.ValidWhisperModel(value) {
			return NewValidationErrorWithExample("voice.whisper_model", value,
				"unknown whisper model size",
				strings.Join(config.WhisperModels, ", "))
		}
		cfg.Voice.WhisperModel = value
	case "voice.max_record_secs":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return NewValidationError("voice.max_record_secs", value, "must be a positive integer")
		}
		cfg.Voice.MaxRecordSecs = n
	case "ui.theme":
		if value != "dark" && value != "light" {
			return NewValidationError("ui.theme", value, "must be dark or light")
		}
		cfg.UI.Theme = value
	case "ui.show_tokens":
		cfg.UI.ShowTokens = parseBool(value)
	case "ui.markdown":
		cfg.UI.Markdown = parseBool(value)
	case "log.level":
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			cfg.Log.Level = strings.ToLower(value)
		default:
			return NewValidationError("log.level", value, "must be debug, info, warn, or error")
		}
	default:
		return NewNotFoundError("config key", key)
	}
	return nil
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Reason:  reason,
		Example: example,
	}
}

// handleConfigShow prints the full configuration.
func handleConfigShow(args Args) error {
	cfg := config.Global()

	if args.JSON {
		values := make(map[string]string, len(configKeyList))
		for _, key := range configKeyList {
			if v, err := configGet(cfg, key); err == nil {
				values[key] = v
			}
		}
		return NewJSONResponse("config", values).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("parley Configuration"))
	fmt.Println(CLISeparatorStyle.Render(strings.Repeat("=", 41)))

	var section string
	for _, key := range configKeyList {
		s := key[:strings.Index(key, ".")]
		if s != section {
			section = s
			fmt.Println(SectionStyle.Render(strings.ToUpper(section[:1]) + section[1:]))
		}
		value, err := configGet(cfg, key)
		if err != nil {
			continue
		}
		if value == "" {
			value = DimStyle.Render("(unset)")
		} else {
			value = ValueStyle.Render(value)
		}
		fmt.Printf("  %s %s\n", LabelStyle.Render(key), value)
	}

	if path, err := config.ConfigPathTOML(); err == nil {
		fmt.Println()
		fmt.Printf("%s %s\n", DimStyle.Render("File:"), DimStyle.Render(path))
	}
	fmt.Println()

	return nil
}

// handleConfigGet prints a single configuration value.
func handleConfigGet(args Args) error {
	if args.ConfigKey == "" {
		return NewValidationError("key", "", "usage: parley config get KEY")
	}

	cfg := config.Global()
	value, err := configGet(cfg, args.ConfigKey)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]string{args.ConfigKey: value}).Print()
	}

	fmt.Println(value)
	return nil
}

// handleConfigSet updates a configuration value and saves the file.
func handleConfigSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return NewValidationError("arguments", "", "usage: parley config set KEY VALUE")
	}

	cfg := config.Global()
	if err := configSet(cfg, args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]string{args.ConfigKey: args.ConfigVal}).Print()
	}

	fmt.Printf("%s %s = %s\n",
		SuccessStyle.Render("[OK]"),
		args.ConfigKey,
		args.ConfigVal)
	return nil
}

// handleConfigReset restores the default configuration.
func handleConfigReset(args Args) error {
	cfg := config.Default()
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	config.SetGlobal(cfg)

	if args.JSON {
		return NewJSONResponse("config", map[string]bool{"reset": true}).Print()
	}

	fmt.Printf("%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	return nil
}

// handleConfigPath prints the config file location.
func handleConfigPath(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return fmt.Errorf("cannot resolve config path: %w", err)
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]string{"path": path}).Print()
	}

	fmt.Println(path)
	return nil
}

// parseBool interprets common truthy strings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	}
	return false
}
