// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jeranaias/parley-tui/internal/audio"
	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// ============================================================================
// SPEAKER
// ============================================================================

// MaxSpeakChars is the backend's synthesis limit. Longer text is cut
// at the last sentence boundary that fits.
const MaxSpeakChars = 5000

// ErrNothingToSpeak indicates the text was empty after cleanup.
var ErrNothingToSpeak = errors.New("nothing to speak")

// TtsClient is the backend surface the speaker needs.
type TtsClient interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Speaker synthesizes text through the backend and plays the result.
type Speaker struct {
	client TtsClient
	player *audio.Player
}

// NewSpeaker creates a Speaker. The output device is opened lazily on
// the first clip.
func NewSpeaker(client TtsClient) *Speaker {
	return &Speaker{
		client: client,
		player: audio.NewPlayer(),
	}
}

// Speak synthesizes text with the given voice and plays it. It blocks
// only for the synthesis round trip; playback runs in the background
// and done (if non-nil) fires when it ends. Starting a new clip stops
// any clip already playing.
func (s *Speaker) Speak(ctx context.Context, text, voice string, done func()) error {
	prepared := PrepareSpeech(text)
	if prepared == "" {
		return ErrNothingToSpeak
	}

	logging.Debug().Str("voice", voice).Int("chars", utf8.RuneCountInString(prepared)).Msg("synthesizing speech")
	wav, err := s.client.Synthesize(ctx, prepared, voice)
	if err != nil {
		return err
	}
	return s.player.Play(wav, done)
}

// Speaking reports whether a clip is playing.
func (s *Speaker) Speaking() bool {
	return s.player.Playing()
}

// Stop halts playback.
func (s *Speaker) Stop() {
	s.player.Stop()
}

// ============================================================================
// TEXT PREPARATION
// ============================================================================

// PrepareSpeech strips markdown noise that reads badly aloud and
// enforces the synthesis length limit. Truncation prefers the last
// sentence boundary in the allowed range so the clip does not end
// mid-word.
func PrepareSpeech(text string) string {
	text = stripMarkdown(text)
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxSpeakChars {
		return text
	}

	runes := []rune(text)
	cut := MaxSpeakChars
	found := false
	for i := MaxSpeakChars - 1; i > MaxSpeakChars/2; i-- {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			cut = i + 1
			found = true
			break
		}
	}
	if !found {
		// No sentence boundary in range; fall back to a word boundary.
		for i := MaxSpeakChars - 1; i > MaxSpeakChars/2; i-- {
			if runes[i] == ' ' || runes[i] == '\n' {
				cut = i
				break
			}
		}
	}
	return strings.TrimSpace(string(runes[:cut]))
}

// stripMarkdown removes fenced code blocks and inline formatting
// markers. Reading source code aloud is useless, so code blocks are
// replaced with a short notice.
func stripMarkdown(text string) string {
	var out strings.Builder
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if !inFence {
				out.WriteString("Code block omitted.\n")
			}
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		line = strings.TrimLeft(line, "#")
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "__", "")
		line = strings.ReplaceAll(line, "`", "")
		out.WriteString(line)
		out.WriteString("\n")
	}
	return out.String()
}
