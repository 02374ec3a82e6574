// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for parley.
//
// Command: doctor [subcommand]
// Short:   Run system health checks and diagnostics
// Aliases: diag, diagnose
//
// Subcommands:
//   (default)           Run all health checks
//   fix                 Run checks and attempt auto-fixes
//
// Health Checks Performed:
//   1. Config Valid     - Validates configuration file
//   2. Config Writable  - Checks config directory permissions
//   3. Log Writable     - Checks log directory permissions
//   4. Backend Running  - Checks if the backend server is responding
//   5. Backend Healthy  - Checks the inference engine connection
//   6. Model Available  - Checks if the configured model is served
//   7. Voices Available - Checks TTS voices (when voice is enabled)
//   8. Audio Devices    - Checks for a capture device (when voice is enabled)
//
// Exit Codes:
//   0   All checks passed
//   1   One or more checks failed
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/parley-tui/internal/audio"
	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/config"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// backendProber is the slice of the backend client doctor needs.
// Narrowed to an interface so checks can be exercised with fakes.
type backendProber interface {
	CheckRunning(ctx context.Context) error
	CheckHealth(ctx context.Context) (*backend.Health, error)
	ListModels(ctx context.Context) ([]backend.ModelInfo, error)
	ListVoices(ctx context.Context) ([]backend.Voice, error)
}

// deviceLister is the slice of the audio context doctor needs.
type deviceLister interface {
	Devices() ([]audio.DeviceInfo, error)
	Close()
}

// openAudioContext is swapped in tests so checks never touch hardware.
var openAudioContext = func() (deviceLister, error) {
	ctx, err := audio.NewContext()
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the rendered status marker.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return SuccessStyle.Render("[OK]")
	case CheckWarn:
		return WarningStyle.Render("[!!]")
	case CheckFail:
		return ErrorStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix command or instruction
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), ValueStyle.Render(c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + DimStyle.Render("  -> "+c.Fix)
	}
	return result
}

// allowedFixCommands whitelists the commands doctor may execute itself.
// Everything else stays a printed suggestion.
var allowedFixCommands = map[string][]string{
	"ollama serve":        {"ollama", "serve"},
	"parley config reset": {"parley", "config", "reset"},
}

// TryFix attempts to automatically fix the issue if possible.
func (c *HealthCheck) TryFix() error {
	if c.Fix == "" || c.Status == CheckPass {
		return nil
	}

	fixCmd := c.Fix
	if !strings.HasPrefix(fixCmd, "Run: ") {
		return fmt.Errorf("manual fix required: %s", c.Fix)
	}
	fixCmd = strings.TrimSpace(strings.TrimPrefix(fixCmd, "Run: "))

	args, ok := allowedFixCommands[fixCmd]
	if !ok {
		return fmt.Errorf("fix command not permitted: %s", fixCmd)
	}

	fmt.Printf("  Attempting fix: %s\n", fixCmd)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	return nil
}

// =============================================================================
// CHECK IMPLEMENTATIONS
// =============================================================================

// runAllChecks executes every health check and returns the results in order.
func runAllChecks() []*HealthCheck {
	cfg := config.Global()
	checks := []*HealthCheck{
		checkConfigValid(cfg),
		checkConfigWritable(),
		checkLogWritable(cfg),
	}

	client := newBackendClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	running := checkBackendRunning(ctx, client)
	checks = append(checks, running)

	if running.Status == CheckPass {
		checks = append(checks, checkBackendHealthy(ctx, client))
		checks = append(checks, checkModelAvailable(ctx, client, cfg))
		if cfg.Voice.Enabled {
			checks = append(checks, checkVoicesAvailable(ctx, client))
		}
	}

	if cfg.Voice.Enabled {
		checks = append(checks, checkAudioDevices())
	}

	return checks
}

func checkConfigValid(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Config Valid"}

	if err := cfg.Validate(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Configuration invalid: %v", err)
		check.Fix = "Run: parley config reset"
		return check
	}

	check.Status = CheckPass
	check.Message = "Configuration valid"
	return check
}

func checkConfigWritable() *HealthCheck {
	check := &HealthCheck{Name: "Config Writable"}

	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Cannot resolve config directory: %v", err)
		return check
	}

	if err := config.EnsureConfigDir(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config directory not writable: %s", dir)
		check.Fix = fmt.Sprintf("Check permissions on %s", dir)
		return check
	}

	probe := filepath.Join(dir, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0600); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config directory not writable: %s", dir)
		check.Fix = fmt.Sprintf("Check permissions on %s", dir)
		return check
	}
	os.Remove(probe)

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Config directory writable (%s)", dir)
	return check
}

func checkLogWritable(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Log Writable"}

	dir, err := logging.ResolveDir(cfg.Log.Path)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Cannot resolve log directory: %v", err)
		return check
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Log directory not writable: %s", dir)
		check.Fix = fmt.Sprintf("Check permissions on %s", dir)
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Log directory writable (%s)", dir)
	return check
}

func checkBackendRunning(ctx context.Context, client backendProber) *HealthCheck {
	check := &HealthCheck{Name: "Backend Running"}

	if err := client.CheckRunning(ctx); err != nil {
		check.Status = CheckFail
		check.Message = "Backend server is not responding"
		check.Fix = "Start the backend with: parley-server"
		return check
	}

	check.Status = CheckPass
	check.Message = "Backend server is running"
	return check
}

func checkBackendHealthy(ctx context.Context, client backendProber) *HealthCheck {
	check := &HealthCheck{Name: "Backend Healthy"}

	health, err := client.CheckHealth(ctx)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Health endpoint error: %v", err)
		return check
	}

	if !health.Healthy() {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Backend degraded (ollama: %s)", health.Ollama)
		check.Fix = "Run: ollama serve"
		return check
	}

	check.Status = CheckPass
	check.Message = "Backend healthy, inference engine connected"
	return check
}

func checkModelAvailable(ctx context.Context, client backendProber, cfg *config.Config) *HealthCheck {
	check := &HealthCheck{Name: "Model Available"}

	models, err := client.ListModels(ctx)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Could not list models: %v", err)
		return check
	}

	if len(models) == 0 {
		check.Status = CheckFail
		check.Message = "No models available on the backend"
		check.Fix = "Pull a model with: ollama pull qwen2.5:7b"
		return check
	}

	configured := cfg.Backend.DefaultModel
	if configured == "" {
		check.Status = CheckPass
		check.Message = fmt.Sprintf("%d model(s) available, using backend default", len(models))
		return check
	}

	for _, m := range models {
		if m.Name == configured {
			check.Status = CheckPass
			check.Message = fmt.Sprintf("Configured model %q is available", configured)
			return check
		}
	}

	check.Status = CheckWarn
	check.Message = fmt.Sprintf("Configured model %q not reported by backend", configured)
	check.Fix = fmt.Sprintf("Pull it with: ollama pull %s", configured)
	return check
}

func checkVoicesAvailable(ctx context.Context, client backendProber) *HealthCheck {
	check := &HealthCheck{Name: "Voices Available"}

	voices, err := client.ListVoices(ctx)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Could not list TTS voices: %v", err)
		return check
	}

	if len(voices) == 0 {
		check.Status = CheckWarn
		check.Message = "Voice is enabled but the backend reports no TTS voices"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("%d TTS voice(s) available", len(voices))
	return check
}

func checkAudioDevices() *HealthCheck {
	check := &HealthCheck{Name: "Audio Devices"}

	audioCtx, err := openAudioContext()
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Audio subsystem unavailable: %v", err)
		check.Fix = "Disable voice with: parley config set voice.enabled false"
		return check
	}
	defer audioCtx.Close()

	devices, err := audioCtx.Devices()
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Could not enumerate capture devices: %v", err)
		return check
	}

	if len(devices) == 0 {
		check.Status = CheckWarn
		check.Message = "Voice is enabled but no capture device was found"
		check.Fix = "Connect a microphone, or disable voice"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("%d capture device(s) found", len(devices))
	return check
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// DoctorCheck is the JSON form of a single health check.
type DoctorCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Fix     string `json:"fix,omitempty"`
}

// DoctorSummary aggregates check counts.
type DoctorSummary struct {
	Passed  int  `json:"passed"`
	Warned  int  `json:"warned"`
	Failed  int  `json:"failed"`
	Healthy bool `json:"healthy"`
}

// DoctorData is the JSON payload for the doctor command.
type DoctorData struct {
	Checks  []DoctorCheck `json:"checks"`
	Summary DoctorSummary `json:"summary"`
}

// HandleDoctor handles the "doctor" command.
// Runs system health checks and optionally attempts auto-fixes.
func HandleDoctor(args Args) error {
	checks := runAllChecks()

	passed, warned, failed := 0, 0, 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	if args.JSON {
		return handleDoctorJSON(checks, passed, warned, failed)
	}

	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(TitleStyle.Render("parley Doctor"))
	fmt.Println(CLISeparatorStyle.Render(separator))
	fmt.Println()

	for _, check := range checks {
		fmt.Println(check.Render())
	}

	fmt.Println()
	fmt.Println(CLISeparatorStyle.Render(strings.Repeat("-", 41)))

	summaryParts := []string{
		fmt.Sprintf("%d passed", passed),
	}
	if warned > 0 {
		summaryParts = append(summaryParts, WarningStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		summaryParts = append(summaryParts, ErrorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}

	fmt.Println(DimStyle.Render(strings.Join(summaryParts, ", ")))
	fmt.Println()

	if args.Subcommand == "fix" && (warned > 0 || failed > 0) {
		fmt.Println(TitleStyle.Render("Attempting Auto-Fix..."))
		fmt.Println()

		for _, check := range checks {
			if check.Status != CheckPass && check.Fix != "" {
				if err := check.TryFix(); err != nil {
					fmt.Printf("  %s Could not fix %s: %s\n",
						WarningStyle.Render("[!!]"),
						check.Name,
						err)
				} else {
					fmt.Printf("  %s Fixed %s\n",
						SuccessStyle.Render("[OK]"),
						check.Name)
				}
			}
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}

	return nil
}

// handleDoctorJSON outputs doctor results in JSON format.
func handleDoctorJSON(checks []*HealthCheck, passed, warned, failed int) error {
	jsonChecks := make([]DoctorCheck, 0, len(checks))
	for _, check := range checks {
		status := "pass"
		switch check.Status {
		case CheckWarn:
			status = "warn"
		case CheckFail:
			status = "fail"
		}

		jsonChecks = append(jsonChecks, DoctorCheck{
			Name:    check.Name,
			Status:  status,
			Message: check.Message,
			Fix:     check.Fix,
		})
	}

	data := DoctorData{
		Checks: jsonChecks,
		Summary: DoctorSummary{
			Passed:  passed,
			Warned:  warned,
			Failed:  failed,
			Healthy: failed == 0,
		},
	}

	resp := NewJSONResponse("doctor", data)
	if failed > 0 {
		errMsg := fmt.Sprintf("%d health check(s) failed", failed)
		resp.Success = false
		resp.Error = &errMsg
	}
	if err := resp.Print(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}
	return nil
}
