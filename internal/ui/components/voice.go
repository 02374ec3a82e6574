// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the parley TUI.
package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley-tui/internal/ui/styles"
)

// =============================================================================
// RECORDING INDICATOR
// =============================================================================

// RecordingIndicator shows live microphone capture state: a blinking REC
// marker, the elapsed time, and a meter filling toward the recording cap.
type RecordingIndicator struct {
	startTime   time.Time
	maxDuration time.Duration
	frame       int
	active      bool
	width       int
}

// RecordingTickMsg advances the recording indicator animation.
type RecordingTickMsg struct {
	Time time.Time
}

// NewRecordingIndicator creates a recording indicator with the given cap.
func NewRecordingIndicator(maxDuration time.Duration) RecordingIndicator {
	return RecordingIndicator{
		maxDuration: maxDuration,
		width:       20,
	}
}

// SetWidth sets the meter width in characters.
func (r *RecordingIndicator) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// Start begins the recording animation.
func (r *RecordingIndicator) Start() tea.Cmd {
	r.active = true
	r.startTime = time.Now()
	r.frame = 0
	return recordingTick()
}

// Stop ends the recording animation.
func (r *RecordingIndicator) Stop() {
	r.active = false
}

// IsActive reports whether a recording is being displayed.
func (r *RecordingIndicator) IsActive() bool {
	return r.active
}

// Elapsed returns time since the recording started.
func (r *RecordingIndicator) Elapsed() time.Duration {
	if r.startTime.IsZero() {
		return 0
	}
	return time.Since(r.startTime)
}

// Update handles animation ticks.
func (r RecordingIndicator) Update(msg tea.Msg) (RecordingIndicator, tea.Cmd) {
	if !r.active {
		return r, nil
	}
	if _, ok := msg.(RecordingTickMsg); ok {
		r.frame++
		return r, recordingTick()
	}
	return r, nil
}

// View renders the recording line.
func (r RecordingIndicator) View() string {
	if !r.active {
		return ""
	}

	frames := styles.RecordingPulse.Frames
	marker := lipgloss.NewStyle().
		Foreground(styles.Recording).
		Bold(true).
		Render(frames[r.frame%len(frames)])

	elapsed := r.Elapsed()
	timer := lipgloss.NewStyle().
		Foreground(styles.Recording).
		Bold(true).
		Render(formatElapsed(elapsed))

	line := marker + " " + timer

	if r.maxDuration > 0 {
		percent := float64(elapsed) / float64(r.maxDuration) * 100
		meter := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Render(" [" + styles.RenderProgressBar(r.width, percent) + "]")
		line += meter
	}

	hint := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("  Ctrl+R to stop, Esc to cancel")

	return line + hint
}

func recordingTick() tea.Cmd {
	return tea.Tick(styles.RecordingPulse.Duration(), func(t time.Time) tea.Msg {
		return RecordingTickMsg{Time: t}
	})
}

// =============================================================================
// SPEAKING INDICATOR
// =============================================================================

// SpeakingIndicator shows that a synthesized reply is playing.
type SpeakingIndicator struct {
	frame  int
	active bool
}

// SpeakingTickMsg advances the speaking indicator animation.
type SpeakingTickMsg struct {
	Time time.Time
}

// NewSpeakingIndicator creates a speaking indicator.
func NewSpeakingIndicator() SpeakingIndicator {
	return SpeakingIndicator{}
}

// Start begins the playback animation.
func (s *SpeakingIndicator) Start() tea.Cmd {
	s.active = true
	s.frame = 0
	return speakingTick()
}

// Stop ends the playback animation.
func (s *SpeakingIndicator) Stop() {
	s.active = false
}

// IsActive reports whether playback is being displayed.
func (s *SpeakingIndicator) IsActive() bool {
	return s.active
}

// Update handles animation ticks.
func (s SpeakingIndicator) Update(msg tea.Msg) (SpeakingIndicator, tea.Cmd) {
	if !s.active {
		return s, nil
	}
	if _, ok := msg.(SpeakingTickMsg); ok {
		s.frame++
		return s, speakingTick()
	}
	return s, nil
}

// View renders the speaking line.
func (s SpeakingIndicator) View() string {
	if !s.active {
		return ""
	}

	frames := styles.SpeakingWave.Frames
	wave := lipgloss.NewStyle().
		Foreground(styles.Speaking).
		Render(frames[s.frame%len(frames)])

	label := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render(" Speaking")

	hint := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("  /stop to interrupt")

	return wave + label + hint
}

func speakingTick() tea.Cmd {
	return tea.Tick(styles.SpeakingWave.Duration(), func(t time.Time) tea.Msg {
		return SpeakingTickMsg{Time: t}
	})
}
