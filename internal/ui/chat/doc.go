// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main conversation view of the parley TUI.
//
// The Model is a Bubble Tea component that owns the conversation
// history, the input line, and the viewport, and gates everything on a
// small state machine: Ready, Streaming, Recording, Transcribing,
// Error. Streamed tokens are batched through a StreamingBuffer so the
// terminal repaints at a fixed frame rate no matter how fast the
// backend emits, and a shared cancelManager lets esc abort the
// in-flight request from any Model copy.
//
// Voice input (ctrl+r) records from the microphone, transcribes the
// clip through the backend, and splices the text into the input line
// at the cursor. Voice output (ctrl+s, /speak, or auto-speak) reads
// the last assistant reply aloud. Both pipelines degrade to toasts on
// failure; voice trouble never blocks typing.
package chat
