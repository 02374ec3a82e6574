// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the parley TUI.

This package defines the complete color palette and animation system used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection.

# Color System (colors.go)

## Primary Accent Colors

  - Purple - Primary accent for assistant messages and selections
  - Cyan - Brand color for info, commands, and user highlights
  - Emerald - Success states and backend online indicator
  - Amber - Warnings and degraded backend states
  - Rose - Errors and the recording indicator

## Voice State Colors

The voice pipeline has dedicated colors so each state reads at a glance:

	Recording    - Microphone capture in progress (red)
	Transcribing - Audio uploaded, waiting on text (amber)
	Speaking     - Synthesized reply playing (cyan)

# Theme (theme.go)

The Theme struct bundles every lipgloss style the chat surface needs:
message bubbles, the input area, the status bar, voice indicators,
completion popups, code blocks, and error boxes. Create one with
NewTheme(), which detects terminal color capability via termenv.

# Animations (animations.go)

Spinner frame sets for loading states, the blinking recording marker, and
the playback wave, plus a progress bar renderer used by the recording
timer.

# Accessibility

All status states pair color with an ASCII shape indicator ([OK], [X],
[REC]) so they remain legible for colorblind users and on terminals with
limited color support.
*/
package styles
