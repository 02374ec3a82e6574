// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for the TUI.
package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult describes one line of user input after parsing.
type ParseResult struct {
	// IsCommand is true when the input starts with /
	IsCommand bool

	// Command is the matched registry entry, nil when unknown.
	Command *Command

	// CommandName is the typed name including the slash, e.g. "/model".
	CommandName string

	// Args are the tokenized arguments.
	Args []string

	// RawInput is the trimmed original input.
	RawInput string

	// RawArgs is everything after the command name, untokenized.
	RawArgs string

	// Error is set when parsing itself failed.
	Error error
}

// =============================================================================
// PARSER
// =============================================================================

// Parser resolves slash command input against a registry.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser backed by the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse classifies and tokenizes one input line. Plain chat text comes
// back with IsCommand=false and is otherwise untouched.
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)
	result := ParseResult{RawInput: input}

	if !strings.HasPrefix(input, "/") {
		return result
	}
	result.IsCommand = true

	tokens := tokenize(input)
	if len(tokens) == 0 {
		return result
	}

	result.CommandName = tokens[0]
	result.Args = tokens[1:]
	if len(result.Args) == 0 {
		result.Args = nil
	}
	result.RawArgs = strings.TrimSpace(strings.TrimPrefix(input, tokens[0]))
	result.Command = p.registry.Get(result.CommandName)

	return result
}

// ParseArgs tokenizes a raw argument string, honoring quotes.
func ParseArgs(input string) []string {
	return tokenize(input)
}

// =============================================================================
// TOKENIZER
// =============================================================================

// tokenize splits input on spaces while respecting single and double
// quotes, so `/speak "model not loaded"` yields one argument. Backslash
// escapes quotes inside a quoted token.
func tokenize(input string) []string {
	var (
		tokens  []string
		buf     strings.Builder
		quote   rune // active quote char, 0 when outside quotes
		runes   = []rune(input)
	)

	flush := func() {
		if buf.Len() > 0 {
			tokens = append(tokens, buf.String())
			buf.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r

		case quote != 0 && r == quote:
			quote = 0

		case quote != 0 && r == '\\' && i+1 < len(runes):
			next := runes[i+1]
			if next == '"' || next == '\'' || next == '\\' {
				buf.WriteRune(next)
				i++
			} else {
				buf.WriteRune(r)
			}

		case quote == 0 && unicode.IsSpace(r):
			flush()

		default:
			buf.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// =============================================================================
// INPUT INSPECTION
// =============================================================================

// IsCommand reports whether the input looks like a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName returns the command name portion of the input,
// e.g. "/model qwen2.5" -> "/model". Empty for non-commands.
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	if end := strings.IndexFunc(input, unicode.IsSpace); end >= 0 {
		return input[:end]
	}
	return input
}

// GetPartialCommand returns the command name still being typed, or ""
// once the name is complete (a space follows it).
func GetPartialCommand(input string) string {
	if !strings.HasPrefix(input, "/") {
		return ""
	}
	if strings.IndexFunc(input, unicode.IsSpace) >= 0 {
		return ""
	}
	return input
}

// GetPartialArg returns the index of the argument under the cursor and
// its partial text. A trailing space (or closing quote) means a fresh
// argument is starting.
func GetPartialArg(input string) (int, string) {
	tokens := tokenize(input)
	if len(tokens) <= 1 {
		return 0, ""
	}

	trimmed := strings.TrimSpace(input)
	startingNew := strings.HasSuffix(trimmed, " ") ||
		strings.HasSuffix(trimmed, "\"") ||
		strings.HasSuffix(trimmed, "'")
	if startingNew {
		return len(tokens) - 1, ""
	}
	return len(tokens) - 2, tokens[len(tokens)-1]
}

// =============================================================================
// ARGUMENT VALIDATION
// =============================================================================

// ValidateArgs checks tokenized arguments against a command's argument
// definitions: required arguments must be present and enum arguments
// must match one of the declared values (case-insensitive).
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}

	for i, def := range cmd.Args {
		if def.Required && i >= len(args) {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      def.Name,
				Message:  "required argument missing",
				Expected: def.Description,
			}
		}
		if i >= len(args) || def.Type != ArgTypeEnum || len(def.Values) == 0 {
			continue
		}

		ok := false
		for _, v := range def.Values {
			if strings.EqualFold(args[i], v) {
				ok = true
				break
			}
		}
		if !ok {
			return &ValidationError{
				Command:  cmd.Name,
				Arg:      def.Name,
				Message:  "invalid value",
				Got:      args[i],
				Expected: strings.Join(def.Values, ", "),
			}
		}
	}

	return nil
}

// ValidationError reports an argument that failed validation.
type ValidationError struct {
	Command  string
	Arg      string
	Message  string
	Got      string
	Expected string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Command + ": " + e.Message)
	if e.Arg != "" {
		b.WriteString(" for argument '" + e.Arg + "'")
	}
	if e.Got != "" {
		b.WriteString(" (got: " + e.Got + ")")
	}
	if e.Expected != "" {
		b.WriteString(" - expected: " + e.Expected)
	}
	return b.String()
}
