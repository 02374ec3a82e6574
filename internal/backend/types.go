// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the parley assistant backend.
package backend

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the request body for POST /api/chat/stream.
type ChatRequest struct {
	// Message is the user message to send to the LLM.
	Message string `json:"message"`
	// Model selects the generation model (empty = backend default).
	Model string `json:"model,omitempty"`
}

// SynthesizeRequest is the request body for POST /api/tts/synthesize.
type SynthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ModelInfo describes an available generation model.
type ModelInfo struct {
	Name string `json:"name"`
}

// Health is the response from GET /health.
type Health struct {
	// Status is "healthy" or "degraded".
	Status string `json:"status"`
	// Ollama is "connected" or "disconnected".
	Ollama string `json:"ollama"`
}

// Healthy reports whether the backend and its inference engine are both up.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// Transcription is the response from POST /api/stt/transcribe.
type Transcription struct {
	Text string `json:"text"`
	// Warning is set when the backend accepted the audio but found no speech.
	Warning string `json:"warning,omitempty"`
}

// Voice describes an available TTS voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// VoicesResponse is the response from GET /api/tts/voices.
type VoicesResponse struct {
	Voices []Voice `json:"voices"`
}

// SttModelResponse is the response from POST /api/stt/change-model.
type SttModelResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// backendError is the JSON error body FastAPI-style backends return.
type backendError struct {
	Detail string `json:"detail"`
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// StreamEvent is a single decoded event from the chat SSE stream.
// Exactly one of Token, Done, or Error is meaningful per event.
type StreamEvent struct {
	// Token is the next piece of generated text ("token" events).
	Token string
	// Done is true for the terminal success event.
	Done bool
	// Error carries a backend-reported generation failure.
	Error error
}

// tokenPayload is the data payload of a "token" event.
type tokenPayload struct {
	Token string `json:"token"`
}

// donePayload is the data payload of a "done" event.
type donePayload struct {
	Done bool `json:"done"`
}

// errorPayload is the data payload of an "error" event.
type errorPayload struct {
	Error string `json:"error"`
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// StreamStats holds timing statistics collected during a streaming response.
type StreamStats struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	TokenCount int

	// Computed
	TTFT            time.Duration // Time to first token
	TotalDuration   time.Duration
	TokensPerSecond float64
}

// NewStreamStats creates a StreamStats with the start time set.
func NewStreamStats() *StreamStats {
	return &StreamStats{StartTime: time.Now()}
}

// RecordFirstToken marks the time of first token arrival.
func (s *StreamStats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// RecordToken counts a received token.
func (s *StreamStats) RecordToken() {
	if s.TokenCount == 0 {
		s.RecordFirstToken()
	}
	s.TokenCount++
}

// Finalize computes the derived statistics at stream end. Later calls
// keep the first end time, so callers may finalize again when a
// stream closes without a done event.
func (s *StreamStats) Finalize() {
	if !s.EndTime.IsZero() {
		return
	}
	s.EndTime = time.Now()
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
	if s.TotalDuration > 0 {
		s.TokensPerSecond = float64(s.TokenCount) / s.TotalDuration.Seconds()
	}
}
