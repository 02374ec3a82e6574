// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal() can
// be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Backend.DefaultModel = "test-model"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			cfg := Global()
			if cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly
// initializes the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}
	if cfg.Version == "" {
		t.Error("Config version should not be empty")
	}
	if cfg.Backend.URL == "" {
		t.Error("Backend URL should have a default")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Backend.URL != "http://127.0.0.1:8000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("Backend.TimeoutSecs = %d, want 30", cfg.Backend.TimeoutSecs)
	}
	if cfg.Backend.SpeechTimeoutSecs != 120 {
		t.Errorf("Backend.SpeechTimeoutSecs = %d, want 120", cfg.Backend.SpeechTimeoutSecs)
	}
	if cfg.Voice.WhisperModel != "base.en" {
		t.Errorf("Voice.WhisperModel = %q, want base.en", cfg.Voice.WhisperModel)
	}
	if cfg.Voice.Voice != "default" {
		t.Errorf("Voice.Voice = %q, want default", cfg.Voice.Voice)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad backend URL",
			mutate:  func(c *Config) { c.Backend.URL = "not a url" },
			wantErr: "backend.url",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Backend.TimeoutSecs = -5 },
			wantErr: "backend.timeout_secs",
		},
		{
			name:    "unknown whisper model",
			mutate:  func(c *Config) { c.Voice.WhisperModel = "giant.en" },
			wantErr: "voice.whisper_model",
		},
		{
			name:    "unknown theme",
			mutate:  func(c *Config) { c.UI.Theme = "solarized" },
			wantErr: "ui.theme",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "log.level",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q should mention %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestValidWhisperModel(t *testing.T) {
	for _, m := range WhisperModels {
		if !ValidWhisperModel(m) {
			t.Errorf("ValidWhisperModel(%q) = false", m)
		}
	}
	if ValidWhisperModel("huge.en") {
		t.Error("ValidWhisperModel(huge.en) = true")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_BACKEND_URL", "http://10.0.0.5:9000")
	t.Setenv("PARLEY_MODEL", "llama3.2")
	t.Setenv("PARLEY_WHISPER_MODEL", "small.en")
	t.Setenv("PARLEY_AUTO_SPEAK", "true")
	t.Setenv("PARLEY_TIMEOUT_SECS", "45")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Backend.URL != "http://10.0.0.5:9000" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.DefaultModel != "llama3.2" {
		t.Errorf("Backend.DefaultModel = %q", cfg.Backend.DefaultModel)
	}
	if cfg.Voice.WhisperModel != "small.en" {
		t.Errorf("Voice.WhisperModel = %q", cfg.Voice.WhisperModel)
	}
	if !cfg.Voice.AutoSpeak {
		t.Error("Voice.AutoSpeak should be true")
	}
	if cfg.Backend.TimeoutSecs != 45 {
		t.Errorf("Backend.TimeoutSecs = %d", cfg.Backend.TimeoutSecs)
	}
}

func TestApplyEnvOverrides_BadTimeoutIgnored(t *testing.T) {
	t.Setenv("PARLEY_TIMEOUT_SECS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("bad timeout should keep default, got %d", cfg.Backend.TimeoutSecs)
	}
}

func TestLoadFromPath_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[backend]
url = "http://127.0.0.1:8000"
default_model = "qwen2.5:7b"

[voice]
enabled = true
whisper_model = "tiny.en"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Backend.DefaultModel != "qwen2.5:7b" {
		t.Errorf("DefaultModel = %q", cfg.Backend.DefaultModel)
	}
	if cfg.Voice.WhisperModel != "tiny.en" {
		t.Errorf("WhisperModel = %q", cfg.Voice.WhisperModel)
	}
	// Missing values fall back to defaults.
	if cfg.Backend.TimeoutSecs != 30 {
		t.Errorf("TimeoutSecs = %d, want default 30", cfg.Backend.TimeoutSecs)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{"backend": {"url": "http://localhost:8000"}, "ui": {"theme": "light"}}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
}

func TestLoadFromPath_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[voice]
whisper_model = "enormous.en"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("invalid whisper model should fail validation")
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir) // keep EnsureConfigDir inside the sandbox
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Backend.DefaultModel = "mistral:7b"
	cfg.Voice.AutoSpeak = true

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Backend.DefaultModel != "mistral:7b" {
		t.Errorf("DefaultModel = %q", loaded.Backend.DefaultModel)
	}
	if !loaded.Voice.AutoSpeak {
		t.Error("AutoSpeak should round-trip")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 0600", info.Mode().Perm())
	}
}

func TestWatcherReloadInstallsAndNotifiesOnce(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	confDir := filepath.Join(dir, ".parley")
	if err := os.MkdirAll(confDir, 0755); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Backend.DefaultModel = "reloaded:latest"
	if err := SaveTOML(cfg, filepath.Join(confDir, "config.toml")); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	calls := 0
	w := &Watcher{onChange: func(c *Config) {
		calls++
		if c.Backend.DefaultModel != "reloaded:latest" {
			t.Errorf("callback model = %q", c.Backend.DefaultModel)
		}
	}}
	w.reload()

	if calls != 1 {
		t.Errorf("onChange calls = %d, want 1", calls)
	}
	if Global().Backend.DefaultModel != "reloaded:latest" {
		t.Error("reload should install the new global config")
	}

	// A watcher without a callback reloads without panicking.
	(&Watcher{}).reload()
}
