// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the parley assistant backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/jeranaias/parley-tui/internal/logging"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeInvalidRequest
	ErrTypeGeneration
	ErrTypeNoSpeech
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning = &ClientError{Type: ErrTypeNotRunning, Message: "backend is not running"}
	ErrTimeout    = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrNoSpeech   = &ClientError{Type: ErrTypeNoSpeech, Message: "no speech detected in audio"}
)

// IsNotRunning checks if an error indicates the backend is not running.
func IsNotRunning(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNotRunning
	}
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeTimeout
	}
	return errors.Is(err, ErrTimeout)
}

// IsNoSpeech checks if an error indicates the audio contained no speech.
func IsNoSpeech(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == ErrTypeNoSpeech
	}
	return errors.Is(err, ErrNoSpeech)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6
	// resolution issues on Windows
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// SpeechTimeout for STT/TTS requests, which can be slow on CPU-only
	// machines (default: 120s)
	SpeechTimeout time.Duration

	// DefaultModel to use if none specified (empty = backend default)
	DefaultModel string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://127.0.0.1:8000",
		Timeout:       30 * time.Second,
		SpeechTimeout: 120 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the parley backend API.
// It provides methods for health checks, model listing, streaming chat,
// speech-to-text, and text-to-speech.
//
// The Client is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	httpClient   *http.Client
	speechClient *http.Client
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.SpeechTimeout == 0 {
		config.SpeechTimeout = 120 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		speechClient: &http.Client{
			Timeout: config.SpeechTimeout,
		},
	}
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth queries GET /health and returns the backend status.
func (c *Client) CheckHealth(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ClientError{
			Type:    ErrTypeConnection,
			Message: "unexpected status from backend: " + resp.Status,
		}
	}

	var health Health
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return &health, nil
}

// CheckRunning verifies that the backend is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	_, err := c.CheckHealth(ctx)
	return err
}

// EnsureRunning checks if the backend is running, and starts it if not.
// The actual start logic is platform-specific (see start_unix.go and
// start_windows.go).
func (c *Client) EnsureRunning(ctx context.Context) error {
	if err := c.CheckRunning(ctx); err == nil {
		return nil
	}
	return c.startBackendProcess(ctx)
}

// =============================================================================
// MODEL OPERATIONS
// =============================================================================

// ListModels retrieves the available generation models.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/models", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "failed to list models")
	}

	var models []ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return models, nil
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends a message to POST /api/chat/stream and calls the callback
// for each SSE event, in stream order. Returns when the stream delivers its
// terminal event, the connection drops, or the context is cancelled.
func (c *Client) ChatStream(ctx context.Context, message, model string, callback StreamCallback) error {
	if model == "" {
		model = c.config.DefaultModel
	}

	body, err := json.Marshal(ChatRequest{Message: message, Model: model})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
	}

	// Use a client without timeout for streaming (timeout handled via context).
	// The backend runs locally over plain HTTP, so no TLS configuration applies.
	streamClient := &http.Client{}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat/stream", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp, "stream request failed")
	}

	logging.Debug().Str("model", model).Int("message_len", len(message)).Msg("chat stream opened")

	reader := NewEventReader(resp.Body)
	return reader.Process(ctx, callback)
}

// ChatStreamChan sends a streaming chat request and returns a channel of
// events. The channel is closed when streaming completes or fails; transport
// errors are delivered as a terminal event with Error set.
func (c *Client) ChatStreamChan(ctx context.Context, message, model string) <-chan StreamEvent {
	ch := make(chan StreamEvent)

	go func() {
		defer close(ch)

		errorSent := false
		err := c.ChatStream(ctx, message, model, func(event StreamEvent) {
			if event.Error != nil {
				errorSent = true
			}
			select {
			case ch <- event:
			case <-ctx.Done():
			}
		})

		if err != nil && !errorSent {
			select {
			case ch <- StreamEvent{Error: err}:
			case <-ctx.Done():
			}
		}
	}()

	return ch
}

// =============================================================================
// SPEECH TO TEXT
// =============================================================================

// Transcribe uploads WAV audio to POST /api/stt/transcribe and returns the
// recognized text. Returns ErrNoSpeech when the backend found no speech.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", &ClientError{Type: ErrTypeInvalidRequest, Message: "empty audio"}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build multipart body", Cause: err}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build multipart body", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to build multipart body", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/stt/transcribe", &body)
	if err != nil {
		return "", &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.speechClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.decodeError(resp, "transcription failed")
	}

	var result Transcription
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	logging.Debug().
		Int("audio_bytes", len(audio)).
		Dur("elapsed", time.Since(start)).
		Int("text_len", len(result.Text)).
		Msg("transcription complete")

	if result.Text == "" {
		return "", ErrNoSpeech
	}

	return result.Text, nil
}

// ChangeWhisperModel switches the backend's speech-recognition model size.
// Valid sizes: tiny.en, base.en, small.en, medium.en, large.
func (c *Client) ChangeWhisperModel(ctx context.Context, size string) error {
	endpoint := c.config.BaseURL + "/api/stt/change-model?model_size=" + url.QueryEscape(size)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.speechClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.decodeError(resp, "failed to change speech model")
	}

	var result SttModelResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return nil
}

// =============================================================================
// TEXT TO SPEECH
// =============================================================================

// Synthesize sends text to POST /api/tts/synthesize and returns WAV audio.
func (c *Client) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "text cannot be empty"}
	}
	if voice == "" {
		voice = "default"
	}

	body, err := json.Marshal(SynthesizeRequest{Text: text, Voice: voice})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/tts/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.speechClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "synthesis failed")
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read audio", Cause: err}
	}

	logging.Debug().
		Int("text_len", len(text)).
		Int("audio_bytes", len(audio)).
		Dur("elapsed", time.Since(start)).
		Msg("synthesis complete")

	return audio, nil
}

// ListVoices retrieves the available TTS voices.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tts/voices", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ErrNotRunning
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp, "failed to list voices")
	}

	var result VoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	return result.Voices, nil
}

// =============================================================================
// UTILITY METHODS
// =============================================================================

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *ClientConfig {
	return c.config
}

// SetModel updates the default generation model.
func (c *Client) SetModel(model string) {
	c.config.DefaultModel = model
}

// GetDefaultModel returns the current default generation model.
func (c *Client) GetDefaultModel() string {
	return c.config.DefaultModel
}

// decodeError builds a ClientError from a non-200 response, preferring the
// backend's JSON error detail when present.
func (c *Client) decodeError(resp *http.Response, fallback string) error {
	errType := ErrTypeInvalidResponse
	if resp.StatusCode == http.StatusBadRequest {
		errType = ErrTypeInvalidRequest
	}

	var backendErr backendError
	if err := json.NewDecoder(resp.Body).Decode(&backendErr); err == nil && backendErr.Detail != "" {
		return &ClientError{Type: errType, Message: backendErr.Detail}
	}
	return &ClientError{Type: errType, Message: fallback + ": " + resp.Status}
}
