// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jeranaias/parley-tui/internal/audio"
	"github.com/jeranaias/parley-tui/internal/backend"
	"github.com/jeranaias/parley-tui/internal/logging"
)

// ============================================================================
// TRANSCRIBER
// ============================================================================

// SttClient is the backend surface the transcriber needs.
type SttClient interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Transcriber records from the microphone and sends the clip to the
// backend for speech-to-text.
type Transcriber struct {
	client     SttClient
	newContext func() (audio.Context, error)

	mu          sync.Mutex
	audioCtx    audio.Context
	recorder    *audio.Recorder
	maxDuration time.Duration
	initErr     error
}

// NewTranscriber creates a Transcriber that uploads clips through the
// given client. The audio device is not opened until the first Start.
func NewTranscriber(client SttClient) *Transcriber {
	return &Transcriber{client: client, newContext: audio.NewContext}
}

// SetMaxDuration caps a single recording. The cap is applied to the
// recorder when the audio device is opened, or immediately if it
// already is.
func (t *Transcriber) SetMaxDuration(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxDuration = d
	if t.recorder != nil {
		t.recorder.SetMaxDuration(d)
	}
}

// ensureRecorder opens the audio context on first use. A permanent
// init failure is cached so every Start reports it without retrying
// the hardware.
func (t *Transcriber) ensureRecorder() (*audio.Recorder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.recorder != nil {
		return t.recorder, nil
	}
	if t.initErr != nil {
		return nil, t.initErr
	}

	ctx, err := t.newContext()
	if err != nil {
		t.initErr = err
		logging.Error().Err(err).Msg("audio context init failed")
		return nil, err
	}
	t.audioCtx = ctx
	t.recorder = audio.NewRecorder(ctx)
	if t.maxDuration > 0 {
		t.recorder.SetMaxDuration(t.maxDuration)
	}
	return t.recorder, nil
}

// Start begins recording from the default microphone.
func (t *Transcriber) Start() error {
	rec, err := t.ensureRecorder()
	if err != nil {
		return err
	}
	if err := rec.Start(nil); err != nil {
		return err
	}
	logging.Debug().Msg("recording started")
	return nil
}

// Recording reports whether a capture is active.
func (t *Transcriber) Recording() bool {
	t.mu.Lock()
	rec := t.recorder
	t.mu.Unlock()
	return rec != nil && rec.Recording()
}

// Elapsed returns how long the active recording has been running.
func (t *Transcriber) Elapsed() time.Duration {
	t.mu.Lock()
	rec := t.recorder
	t.mu.Unlock()
	if rec == nil {
		return 0
	}
	return rec.Elapsed()
}

// Cancel discards the active recording without transcribing.
func (t *Transcriber) Cancel() {
	t.mu.Lock()
	rec := t.recorder
	t.mu.Unlock()
	if rec != nil {
		rec.Cancel()
		logging.Debug().Msg("recording cancelled")
	}
}

// Stop ends the recording and sends the clip for transcription.
// An empty or speech-free clip returns backend.ErrNoSpeech.
func (t *Transcriber) Stop(ctx context.Context) (string, error) {
	t.mu.Lock()
	rec := t.recorder
	t.mu.Unlock()
	if rec == nil {
		return "", audio.ErrNotRecording
	}

	wav, err := rec.Stop()
	if err != nil {
		if errors.Is(err, audio.ErrNoAudio) {
			return "", backend.ErrNoSpeech
		}
		return "", err
	}

	logging.Debug().Int("wav_bytes", len(wav)).Msg("uploading recording")
	text, err := t.client.Transcribe(ctx, wav)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Close releases the audio device.
func (t *Transcriber) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recorder != nil {
		t.recorder.Cancel()
		t.recorder = nil
	}
	if t.audioCtx != nil {
		t.audioCtx.Close()
		t.audioCtx = nil
	}
}
