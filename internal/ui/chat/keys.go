// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the key bindings for the chat view.
type KeyMap struct {
	Submit     key.Binding
	Record     key.Binding
	Speak      key.Binding
	Cancel     key.Binding
	Clear      key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
	Help       key.Binding
	Complete   key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Home       key.Binding
	End        key.Binding
}

// DefaultKeyMap returns the standard chat key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send message"),
		),
		Record: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "record / stop recording"),
		),
		Speak: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "speak last reply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear conversation"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+q"),
			key.WithHelp("ctrl+q", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "toggle help"),
		),
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete command"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("ctrl+home"),
			key.WithHelp("ctrl+home", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("ctrl+end"),
			key.WithHelp("ctrl+end", "go to bottom"),
		),
	}
}

// ShortHelp returns the bindings shown in the condensed help line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Record, k.Speak, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Record, k.Speak, k.Cancel},
		{k.Clear, k.Complete, k.Help},
		{k.ScrollUp, k.ScrollDown, k.PageUp, k.PageDown},
		{k.Quit, k.ForceQuit},
	}
}

// =============================================================================
// CONTEXTUAL HELP
// =============================================================================

// HelpContext identifies which UI state the help describes. Bindings
// differ between states: esc cancels a stream while streaming but
// discards a recording while recording.
type HelpContext int

const (
	ContextReady HelpContext = iota
	ContextStreaming
	ContextRecording
	ContextSpeaking
	ContextError
)

// HelpItem is one key/description pair in the help overlay.
type HelpItem struct {
	Key  string
	Desc string
}

// GetHelpItemsForContext returns the bindings relevant in the given state.
func GetHelpItemsForContext(ctx HelpContext) []HelpItem {
	switch ctx {
	case ContextStreaming:
		return []HelpItem{
			{"esc", "cancel response"},
			{"up/down", "scroll"},
			{"ctrl+q", "force quit"},
		}
	case ContextRecording:
		return []HelpItem{
			{"ctrl+r", "stop and transcribe"},
			{"esc", "discard recording"},
			{"ctrl+q", "force quit"},
		}
	case ContextSpeaking:
		return []HelpItem{
			{"esc", "stop speaking"},
			{"ctrl+s", "restart playback"},
			{"enter", "send message"},
		}
	case ContextError:
		return []HelpItem{
			{"enter/esc", "dismiss"},
			{"ctrl+c", "quit"},
		}
	default:
		return []HelpItem{
			{"enter", "send message"},
			{"ctrl+r", "record voice input"},
			{"ctrl+s", "speak last reply"},
			{"tab", "complete /command"},
			{"ctrl+l", "clear conversation"},
			{"ctrl+h", "toggle help"},
			{"up/down", "scroll history"},
			{"ctrl+c", "quit"},
		}
	}
}

// GetContextDisplayName returns a label for the help overlay header.
func GetContextDisplayName(ctx HelpContext) string {
	switch ctx {
	case ContextStreaming:
		return "Streaming"
	case ContextRecording:
		return "Recording"
	case ContextSpeaking:
		return "Speaking"
	case ContextError:
		return "Error"
	default:
		return "Ready"
	}
}
