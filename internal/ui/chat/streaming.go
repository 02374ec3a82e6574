// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// Default batching parameters. Flushing on every token would force a
// full re-render per token; batching keeps the UI at a steady frame
// rate regardless of how fast the backend emits.
const (
	defaultBatchSize = 15
	defaultMaxFPS    = 30
)

// StreamingBuffer accumulates tokens between UI flushes. The stream
// callback writes from its own goroutine while the Bubble Tea update
// loop drains on a timer, so all state is mutex-protected.
type StreamingBuffer struct {
	mu sync.Mutex

	pending   strings.Builder
	count     int
	lastFlush time.Time

	batchSize  int
	minFlushMs int64
}

// NewStreamingBuffer creates a buffer with the default batch size and
// frame rate.
func NewStreamingBuffer() *StreamingBuffer {
	b := &StreamingBuffer{
		batchSize: defaultBatchSize,
		lastFlush: time.Now(),
	}
	b.setMaxFPS(defaultMaxFPS)
	return b
}

// Write appends a token to the pending batch.
func (b *StreamingBuffer) Write(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.WriteString(token)
	b.count++
}

// ShouldFlush reports whether the pending batch is due, either because
// it reached the batch size or because the frame interval elapsed with
// tokens waiting.
func (b *StreamingBuffer) ShouldFlush() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return false
	}
	if b.count >= b.batchSize {
		return true
	}
	return time.Since(b.lastFlush).Milliseconds() >= b.minFlushMs
}

// Flush returns the pending batch if it is due and resets the buffer.
// Returns "" when nothing is due.
func (b *StreamingBuffer) Flush() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return ""
	}
	if b.count < b.batchSize && time.Since(b.lastFlush).Milliseconds() < b.minFlushMs {
		return ""
	}
	return b.drain()
}

// ForceFlush returns whatever is pending regardless of thresholds.
// Used on stream completion so the tail of the response is never lost.
func (b *StreamingBuffer) ForceFlush() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drain()
}

// drain empties the buffer. Caller must hold the mutex.
func (b *StreamingBuffer) drain() string {
	out := b.pending.String()
	b.pending.Reset()
	b.count = 0
	b.lastFlush = time.Now()
	return out
}

// Pending returns the number of tokens waiting in the buffer.
func (b *StreamingBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Reset discards pending tokens. Used when a new stream starts.
func (b *StreamingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.Reset()
	b.count = 0
	b.lastFlush = time.Now()
}

// SetBatchSize overrides the token batch size. Values below 1 are ignored.
func (b *StreamingBuffer) SetBatchSize(n int) {
	if n < 1 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batchSize = n
}

// SetMaxFPS overrides the flush frame rate. Values below 1 are ignored.
func (b *StreamingBuffer) SetMaxFPS(fps int) {
	if fps < 1 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setMaxFPS(fps)
}

// setMaxFPS converts fps to a minimum flush interval. Caller must hold
// the mutex (or be the constructor).
func (b *StreamingBuffer) setMaxFPS(fps int) {
	b.minFlushMs = int64(1000 / fps)
}

// GetConfig returns the current batch size and minimum flush interval.
func (b *StreamingBuffer) GetConfig() (batchSize int, minFlushMs int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batchSize, b.minFlushMs
}

// =============================================================================
// STREAM TICK
// =============================================================================

// streamTickInterval is the UI-side flush cadence during streaming.
const streamTickInterval = 33 * time.Millisecond

// streamTickCmd schedules the next buffer flush while a stream is
// active. The tick chain stops when the model stops rescheduling it.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamTickInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
