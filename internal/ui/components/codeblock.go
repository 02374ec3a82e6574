// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the parley TUI.
package components

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// FENCED CODE BLOCKS
// =============================================================================

const minCodeWidth = 20

var (
	gutterStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(4).
			Align(lipgloss.Right).
			MarginRight(1)

	langBadgeStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Background(styles.OverlayDim).
			Padding(0, 1).
			Bold(true)

	codeFrameStyle = lipgloss.NewStyle().
			Background(styles.SurfaceDim).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.Overlay).
			Padding(1, 2)
)

// ParseCodeBlocks replaces ``` fenced blocks in markdown text with
// syntax-highlighted, framed renderings. An unclosed trailing fence is
// rendered as if it were closed, so streaming partial markdown still
// displays sensibly.
func ParseCodeBlocks(text string, maxWidth int) string {
	var (
		out      []string
		fence    []string
		language string
		inFence  bool
	)

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "```"):
			if inFence {
				out = append(out, renderCodeBlock(language, strings.Join(fence, "\n"), maxWidth))
				fence, language, inFence = nil, "", false
			} else {
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inFence = true
			}
		case inFence:
			fence = append(fence, line)
		default:
			out = append(out, line)
		}
	}

	if inFence && len(fence) > 0 {
		out = append(out, renderCodeBlock(language, strings.Join(fence, "\n"), maxWidth))
	}

	return strings.Join(out, "\n")
}

// renderCodeBlock frames highlighted code with a line-number gutter and
// an optional language badge.
func renderCodeBlock(language, code string, maxWidth int) string {
	code = strings.TrimSpace(code)

	detected := language
	if detected == "" {
		detected = detectLanguage(code)
	}

	var body strings.Builder
	for i, line := range strings.Split(highlight(code, detected), "\n") {
		if i > 0 {
			body.WriteByte('\n')
		}
		// Chroma already colored the line; only the gutter gets styled.
		body.WriteString(gutterStyle.Render(toStr(i + 1)))
		body.WriteString(line)
	}

	content := body.String()
	if language != "" {
		content = langBadgeStyle.Render(language) + "\n" + content
	}

	width := maxWidth - 4
	if width < minCodeWidth {
		width = minCodeWidth
	}

	return codeFrameStyle.MaxWidth(width).Render(content)
}

// =============================================================================
// INLINE CODE
// =============================================================================

// ParseInlineCode styles `backtick` spans with a subtle background.
// An unterminated backtick is passed through literally.
func ParseInlineCode(text string) string {
	inlineStyle := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Foreground(styles.Cyan).
		Padding(0, 1)

	var out strings.Builder
	for {
		open := strings.IndexByte(text, '`')
		if open < 0 {
			out.WriteString(text)
			break
		}
		rest := text[open+1:]
		end := strings.IndexByte(rest, '`')
		if end < 0 {
			out.WriteString(text)
			break
		}
		out.WriteString(text[:open])
		out.WriteString(inlineStyle.Render(rest[:end]))
		text = rest[end+1:]
	}
	return out.String()
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlight runs code through chroma for ANSI terminal output. Returns
// the input unchanged when tokenizing or formatting fails.
func highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// detectLanguage guesses the language of a bare code block.
func detectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
