// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley-tui/internal/config"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/help", true},
		{"/model qwen", true},
		{"  /help", true},
		{"hello", false},
		{"hello /help", false},
		{"", false},
		{"/", true},
	}

	for _, tc := range tests {
		got := IsCommand(tc.input)
		if got != tc.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/help", "/help"},
		{"/model qwen", "/model"},
		{"/stt base.en", "/stt"},
		{"  /help  ", "/help"},
		{"hello", ""},
		{"/", "/"},
	}

	for _, tc := range tests {
		got := ExtractCommandName(tc.input)
		if got != tc.want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestGetPartialCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/hel", "/hel"},
		{"/help", "/help"},
		{"/model ", ""},     // Space after command means complete
		{"/model qwen", ""}, // Has arguments
		{"hello", ""},
	}

	for _, tc := range tests {
		got := GetPartialCommand(tc.input)
		if got != tc.want {
			t.Errorf("GetPartialCommand(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestGetPartialArg(t *testing.T) {
	tests := []struct {
		input    string
		wantIdx  int
		wantPart string
	}{
		{"/help", 0, ""},
		{"/model qwe", 0, "qwe"},
		// Note: trailing space is trimmed by the function before checking,
		// so it returns the last part as partial text
		{"/model qwen ", 0, "qwen"},
		{"/config backend.url http", 1, "http"},
	}

	for _, tc := range tests {
		gotIdx, gotPart := GetPartialArg(tc.input)
		if gotIdx != tc.wantIdx || gotPart != tc.wantPart {
			t.Errorf("GetPartialArg(%q) = (%d, %q), want (%d, %q)",
				tc.input, gotIdx, gotPart, tc.wantIdx, tc.wantPart)
		}
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"/help", []string{"/help"}},
		{"/model qwen", []string{"/model", "qwen"}},
		{`/config ui.theme "dark mode"`, []string{"/config", "ui.theme", "dark mode"}},
		{`/config ui.theme 'dark mode'`, []string{"/config", "ui.theme", "dark mode"}},
		{"/config key value", []string{"/config", "key", "value"}},
	}

	for _, tc := range tests {
		got := ParseArgs(tc.input)
		if len(got) != len(tc.want) {
			t.Errorf("ParseArgs(%q) = %v, want %v", tc.input, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("ParseArgs(%q)[%d] = %q, want %q", tc.input, i, got[i], tc.want[i])
			}
		}
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Should have built-in commands
	if len(r.commands) == 0 {
		t.Error("Registry should have built-in commands")
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	cmd := &Command{
		Name:        "/test",
		Aliases:     []string{"/t"},
		Description: "Test command",
	}

	r.Register(cmd)

	if r.Get("/test") == nil {
		t.Error("Should get command by name")
	}

	if r.Get("/t") == nil {
		t.Error("Should get command by alias")
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	// Built-in commands
	if r.Get("/help") == nil {
		t.Error("/help command should exist")
	}

	if r.Get("/h") == nil {
		t.Error("/h alias should resolve to /help")
	}

	if r.Get("/?") == nil {
		t.Error("/? alias should resolve to /help")
	}

	if r.Get("/say") == nil {
		t.Error("/say alias should resolve to /speak")
	}

	if r.Get("/nonexistent") != nil {
		t.Error("/nonexistent should return nil")
	}
}

func TestRegistry_All(t *testing.T) {
	r := NewRegistry()
	all := r.All()

	if len(all) == 0 {
		t.Error("All() should return commands")
	}

	// Check that essential commands are present
	found := make(map[string]bool)
	for _, cmd := range all {
		found[cmd.Name] = true
	}

	essentials := []string{"/help", "/quit", "/new", "/model", "/speak", "/voice", "/stt", "/mute"}
	for _, name := range essentials {
		if !found[name] {
			t.Errorf("Essential command %s not found in All()", name)
		}
	}
}

func TestRegistry_ByCategory(t *testing.T) {
	r := NewRegistry()
	byCategory := r.ByCategory()

	if len(byCategory) == 0 {
		t.Error("ByCategory() should return categories")
	}

	// Check that expected categories exist
	expectedCategories := []string{"Navigation", "Conversation", "Model", "Voice"}
	for _, cat := range expectedCategories {
		if _, ok := byCategory[cat]; !ok {
			t.Errorf("Expected category %q not found", cat)
		}
	}

	// Hidden commands should not appear
	for _, cmds := range byCategory {
		for _, cmd := range cmds {
			if cmd.Hidden {
				t.Errorf("Hidden command %s should not appear in ByCategory()", cmd.Name)
			}
		}
	}
}

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestParser_Parse(t *testing.T) {
	r := NewRegistry()
	p := NewParser(r)

	tests := []struct {
		input     string
		isCommand bool
		cmdName   string
		argsLen   int
	}{
		{"/help", true, "/help", 0},
		{"/model qwen", true, "/model", 1},
		{"hello world", false, "", 0},
		{"/nonexistent", true, "/nonexistent", 0},
		{"/stt base.en", true, "/stt", 1},
	}

	for _, tc := range tests {
		result := p.Parse(tc.input)

		if result.IsCommand != tc.isCommand {
			t.Errorf("Parse(%q).IsCommand = %v, want %v", tc.input, result.IsCommand, tc.isCommand)
		}

		if result.CommandName != tc.cmdName {
			t.Errorf("Parse(%q).CommandName = %q, want %q", tc.input, result.CommandName, tc.cmdName)
		}

		if len(result.Args) != tc.argsLen {
			t.Errorf("Parse(%q) args length = %d, want %d", tc.input, len(result.Args), tc.argsLen)
		}
	}
}

func TestParser_Parse_CommandLookup(t *testing.T) {
	r := NewRegistry()
	p := NewParser(r)

	// Existing command
	result := p.Parse("/help")
	if result.Command == nil {
		t.Error("Parse(/help).Command should not be nil")
	}

	// Alias lookup
	result = p.Parse("/h")
	if result.Command == nil {
		t.Error("Parse(/h).Command should not be nil (alias)")
	}

	// Non-existent command
	result = p.Parse("/nonexistent")
	if result.Command != nil {
		t.Error("Parse(/nonexistent).Command should be nil")
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidateArgs(t *testing.T) {
	// Command with required argument
	cmdWithRequired := &Command{
		Name: "/test",
		Args: []ArgDef{
			{Name: "required_arg", Required: true, Description: "A required argument"},
		},
	}

	// Missing required argument
	err := ValidateArgs(cmdWithRequired, []string{})
	if err == nil {
		t.Error("ValidateArgs should return error for missing required argument")
	}

	// Provided required argument
	err = ValidateArgs(cmdWithRequired, []string{"value"})
	if err != nil {
		t.Errorf("ValidateArgs should not error when required argument provided: %v", err)
	}

	// Command with enum argument
	cmdWithEnum := &Command{
		Name: "/stt",
		Args: []ArgDef{
			{Name: "size", Required: true, Type: ArgTypeEnum, Values: config.WhisperModels},
		},
	}

	// Valid enum value
	err = ValidateArgs(cmdWithEnum, []string{"base.en"})
	if err != nil {
		t.Errorf("ValidateArgs should accept valid enum value: %v", err)
	}

	// Invalid enum value
	err = ValidateArgs(cmdWithEnum, []string{"invalid"})
	if err == nil {
		t.Error("ValidateArgs should reject invalid enum value")
	}

	// Case insensitive enum
	err = ValidateArgs(cmdWithEnum, []string{"BASE.EN"})
	if err != nil {
		t.Errorf("ValidateArgs should accept case-insensitive enum: %v", err)
	}

	// Nil command should not error
	err = ValidateArgs(nil, []string{"anything"})
	if err != nil {
		t.Errorf("ValidateArgs(nil) should not error: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Command:  "/test",
		Arg:      "arg1",
		Message:  "invalid value",
		Got:      "bad",
		Expected: "good1, good2",
	}

	errStr := err.Error()

	if errStr == "" {
		t.Error("Error() should return non-empty string")
	}

	// Should contain command, argument, message, got, expected
	contains := []string{"/test", "arg1", "invalid value", "bad", "good1, good2"}
	for _, s := range contains {
		if !strings.Contains(errStr, s) {
			t.Errorf("Error() should contain %q, got: %s", s, errStr)
		}
	}
}

// =============================================================================
// CONTEXT TESTS
// =============================================================================

func TestNewContext(t *testing.T) {
	ctx := NewContext(nil, nil)
	if ctx == nil {
		t.Fatal("NewContext() returned nil")
	}
}

func TestContext_WithHandlerContext(t *testing.T) {
	ctx := NewContext(nil, nil)
	hctx := &HandlerContext{}

	result := ctx.WithHandlerContext(hctx)

	if result != ctx {
		t.Error("WithHandlerContext should return same context")
	}

	if ctx.HandlerCtx != hctx {
		t.Error("HandlerCtx should be set")
	}
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

// runCmd executes a tea.Cmd and returns the message it produces.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("handler returned nil tea.Cmd")
	}
	return cmd()
}

func TestHandleHelp(t *testing.T) {
	ctx := NewContext(nil, nil)

	msg := runCmd(t, HandleHelp(ctx, nil))
	help, ok := msg.(ShowHelpMsg)
	if !ok {
		t.Fatalf("expected ShowHelpMsg, got %T", msg)
	}
	if help.Topic != "" {
		t.Errorf("Topic = %q, want empty", help.Topic)
	}

	msg = runCmd(t, HandleHelp(ctx, []string{"voice"}))
	help = msg.(ShowHelpMsg)
	if help.Topic != "voice" {
		t.Errorf("Topic = %q, want 'voice'", help.Topic)
	}
}

func TestHandleQuit(t *testing.T) {
	msg := runCmd(t, HandleQuit(NewContext(nil, nil), nil))
	if _, ok := msg.(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", msg)
	}
}

func TestHandleNewAndClear(t *testing.T) {
	ctx := NewContext(nil, nil)

	for _, h := range []func(*Context, []string) tea.Cmd{HandleNew, HandleClear} {
		msg := runCmd(t, h(ctx, nil))
		if _, ok := msg.(ClearConversationMsg); !ok {
			t.Errorf("expected ClearConversationMsg, got %T", msg)
		}
	}
}

func TestHandleModel_NoArgs(t *testing.T) {
	cfg := config.Default()
	ctx := NewContext(cfg, nil).WithHandlerContext(&HandlerContext{
		AvailableModels: []string{"llama3", "qwen2"},
	})

	msg := runCmd(t, HandleModel(ctx, nil))
	sys, ok := msg.(SystemMessageMsg)
	if !ok {
		t.Fatalf("expected SystemMessageMsg, got %T", msg)
	}
	for _, name := range []string{"llama3", "qwen2"} {
		if !strings.Contains(sys.Content, name) {
			t.Errorf("model listing should contain %q:\n%s", name, sys.Content)
		}
	}
}

func TestHandleModel_Switch(t *testing.T) {
	cfg := config.Default()
	ctx := NewContext(cfg, nil)

	msg := runCmd(t, HandleModel(ctx, []string{"qwen2"}))
	sw, ok := msg.(ModelSwitchMsg)
	if !ok {
		t.Fatalf("expected ModelSwitchMsg, got %T", msg)
	}
	if sw.Model != "qwen2" {
		t.Errorf("Model = %q, want 'qwen2'", sw.Model)
	}
	if cfg.Backend.DefaultModel != "qwen2" {
		t.Errorf("config default model = %q, want 'qwen2'", cfg.Backend.DefaultModel)
	}
}

func TestHandleVoice_NoArgs(t *testing.T) {
	cfg := config.Default()
	cfg.Voice.Voice = "amy"
	ctx := NewContext(cfg, nil).WithHandlerContext(&HandlerContext{
		AvailableVoices: []VoiceInfo{
			{ID: "amy", Name: "Amy", Language: "en-US"},
			{ID: "brian", Name: "Brian", Language: "en-GB"},
		},
	})

	msg := runCmd(t, HandleVoice(ctx, nil))
	sys, ok := msg.(SystemMessageMsg)
	if !ok {
		t.Fatalf("expected SystemMessageMsg, got %T", msg)
	}
	if !strings.Contains(sys.Content, "amy") || !strings.Contains(sys.Content, "brian") {
		t.Errorf("voice listing missing voices:\n%s", sys.Content)
	}
	if !strings.Contains(sys.Content, "(current)") {
		t.Errorf("voice listing should mark the current voice:\n%s", sys.Content)
	}
}

func TestHandleVoice_Switch(t *testing.T) {
	cfg := config.Default()
	ctx := NewContext(cfg, nil)

	msg := runCmd(t, HandleVoice(ctx, []string{"brian"}))
	sw, ok := msg.(VoiceSwitchMsg)
	if !ok {
		t.Fatalf("expected VoiceSwitchMsg, got %T", msg)
	}
	if sw.Voice != "brian" {
		t.Errorf("Voice = %q, want 'brian'", sw.Voice)
	}
	if cfg.Voice.Voice != "brian" {
		t.Errorf("config voice = %q, want 'brian'", cfg.Voice.Voice)
	}
}

func TestHandleStt(t *testing.T) {
	ctx := NewContext(nil, nil)

	// Valid size
	msg := runCmd(t, HandleStt(ctx, []string{"small.en"}))
	sw, ok := msg.(SttModelSwitchMsg)
	if !ok {
		t.Fatalf("expected SttModelSwitchMsg, got %T", msg)
	}
	if sw.Size != "small.en" {
		t.Errorf("Size = %q, want 'small.en'", sw.Size)
	}

	// Invalid size
	msg = runCmd(t, HandleStt(ctx, []string{"enormous"}))
	if _, ok := msg.(ErrorMsg); !ok {
		t.Errorf("expected ErrorMsg for invalid size, got %T", msg)
	}

	// Missing size
	msg = runCmd(t, HandleStt(ctx, nil))
	if _, ok := msg.(ErrorMsg); !ok {
		t.Errorf("expected ErrorMsg for missing size, got %T", msg)
	}
}

func TestHandleMute(t *testing.T) {
	msg := runCmd(t, HandleMute(NewContext(nil, nil), nil))
	if _, ok := msg.(ToggleAutoSpeakMsg); !ok {
		t.Errorf("expected ToggleAutoSpeakMsg, got %T", msg)
	}
}

func TestHandleSpeakStop(t *testing.T) {
	ctx := NewContext(nil, nil)

	msg := runCmd(t, HandleSpeak(ctx, nil))
	speak, ok := msg.(SpeakLastMsg)
	if !ok {
		t.Errorf("expected SpeakLastMsg, got %T", msg)
	}
	if speak.Back != 1 {
		t.Errorf("default Back = %d, want 1", speak.Back)
	}

	msg = runCmd(t, HandleStop(ctx, nil))
	if _, ok := msg.(StopSpeakingMsg); !ok {
		t.Errorf("expected StopSpeakingMsg, got %T", msg)
	}
}

func TestHandleSpeakCount(t *testing.T) {
	ctx := NewContext(nil, nil)

	msg := runCmd(t, HandleSpeak(ctx, []string{"3"}))
	speak, ok := msg.(SpeakLastMsg)
	if !ok {
		t.Fatalf("expected SpeakLastMsg, got %T", msg)
	}
	if speak.Back != 3 {
		t.Errorf("Back = %d, want 3", speak.Back)
	}

	for _, bad := range []string{"0", "-1", "two"} {
		msg = runCmd(t, HandleSpeak(ctx, []string{bad}))
		if _, ok := msg.(ErrorMsg); !ok {
			t.Errorf("HandleSpeak(%q): expected ErrorMsg, got %T", bad, msg)
		}
	}
}

func TestHandleVoice_OnOff(t *testing.T) {
	ctx := NewContext(config.Default(), nil)

	msg := runCmd(t, HandleVoice(ctx, []string{"on"}))
	on, ok := msg.(VoiceEnableMsg)
	if !ok {
		t.Fatalf("expected VoiceEnableMsg, got %T", msg)
	}
	if !on.Enabled {
		t.Error("/voice on should enable voice")
	}

	msg = runCmd(t, HandleVoice(ctx, []string{"OFF"}))
	off, ok := msg.(VoiceEnableMsg)
	if !ok {
		t.Fatalf("expected VoiceEnableMsg, got %T", msg)
	}
	if off.Enabled {
		t.Error("/voice off should disable voice")
	}
}

func TestHandleConfig(t *testing.T) {
	cfg := config.Default()
	ctx := NewContext(cfg, nil)

	// No args: full summary
	msg := runCmd(t, HandleConfig(ctx, nil))
	sys, ok := msg.(SystemMessageMsg)
	if !ok {
		t.Fatalf("expected SystemMessageMsg, got %T", msg)
	}
	if !strings.Contains(sys.Content, "backend.url") {
		t.Errorf("config summary should list backend.url:\n%s", sys.Content)
	}

	// One arg: show single key
	msg = runCmd(t, HandleConfig(ctx, []string{"UI.Theme"}))
	show, ok := msg.(ShowConfigMsg)
	if !ok {
		t.Fatalf("expected ShowConfigMsg, got %T", msg)
	}
	if show.Key != "ui.theme" {
		t.Errorf("Key = %q, want lowercased 'ui.theme'", show.Key)
	}
	if show.Value != "" {
		t.Errorf("Value = %q, want empty", show.Value)
	}

	// Two args: set key
	msg = runCmd(t, HandleConfig(ctx, []string{"ui.theme", "light"}))
	show = msg.(ShowConfigMsg)
	if show.Key != "ui.theme" || show.Value != "light" {
		t.Errorf("ShowConfigMsg = %+v, want key ui.theme value light", show)
	}
}

func TestHandleStatus(t *testing.T) {
	msg := runCmd(t, HandleStatus(NewContext(nil, nil), nil))
	if _, ok := msg.(ShowStatusMsg); !ok {
		t.Errorf("expected ShowStatusMsg, got %T", msg)
	}
}

// =============================================================================
// ARGTYPE TESTS
// =============================================================================

func TestArgType_Values(t *testing.T) {
	// Verify ArgType constants are defined
	types := []ArgType{
		ArgTypeString,
		ArgTypeModel,
		ArgTypeVoice,
		ArgTypeEnum,
		ArgTypeConfig,
	}

	for i, at := range types {
		if int(at) != i {
			t.Errorf("ArgType constant %d has unexpected value %d", i, at)
		}
	}
}

// =============================================================================
// COMMAND DEFINITION TESTS
// =============================================================================

func TestCommand_Fields(t *testing.T) {
	cmd := &Command{
		Name:        "/test",
		Aliases:     []string{"/t", "/tst"},
		Description: "Test command",
		Usage:       "/test <arg>",
		Category:    "Testing",
		Hidden:      false,
		Args: []ArgDef{
			{Name: "arg", Required: true, Type: ArgTypeString, Description: "Test argument"},
		},
	}

	if cmd.Name != "/test" {
		t.Error("Command.Name not set correctly")
	}

	if len(cmd.Aliases) != 2 {
		t.Error("Command.Aliases not set correctly")
	}

	if cmd.Category != "Testing" {
		t.Error("Command.Category not set correctly")
	}

	if len(cmd.Args) != 1 {
		t.Error("Command.Args not set correctly")
	}
}
