// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
package chat

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// =============================================================================
// VIEWPORT OPTIMIZER
// =============================================================================

// ViewportOptimizer skips redundant viewport re-renders during
// streaming. Flush ticks fire on a timer whether or not new tokens
// arrived, so many re-renders would repeat identical content. A
// content hash detects the no-change case cheaply.
type ViewportOptimizer struct {
	mu       sync.Mutex
	lastHash string
	updates  uint64
	skips    uint64
}

// NewViewportOptimizer creates an optimizer. The first update always
// proceeds.
func NewViewportOptimizer() *ViewportOptimizer {
	return &ViewportOptimizer{}
}

// ShouldUpdate reports whether the rendered content actually changed
// since the last update.
func (vo *ViewportOptimizer) ShouldUpdate(content string) bool {
	vo.mu.Lock()
	defer vo.mu.Unlock()

	vo.updates++
	h := hashContent(content)
	if vo.updates > 1 && h == vo.lastHash {
		vo.skips++
		return false
	}
	vo.lastHash = h
	return true
}

// ForceUpdate makes the next ShouldUpdate proceed regardless of
// content. Used after a resize, where the same content renders to a
// different layout.
func (vo *ViewportOptimizer) ForceUpdate() {
	vo.mu.Lock()
	defer vo.mu.Unlock()
	vo.lastHash = ""
}

// Reset clears the tracked content. Used when the conversation is
// cleared. Counters are kept for diagnostics.
func (vo *ViewportOptimizer) Reset() {
	vo.mu.Lock()
	defer vo.mu.Unlock()
	vo.lastHash = ""
}

// Stats returns total update attempts, skipped updates, and skip rate
// in percent.
func (vo *ViewportOptimizer) Stats() (total, skipped uint64, rate float64) {
	vo.mu.Lock()
	defer vo.mu.Unlock()
	total = vo.updates
	skipped = vo.skips
	if total > 0 {
		rate = float64(skipped) / float64(total) * 100.0
	}
	return
}

// hashContent computes a SHA-256 hex digest for change detection.
func hashContent(content string) string {
	if content == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
