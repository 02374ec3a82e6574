// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"errors"
	"sync"
	"time"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	// ErrAlreadyRecording indicates Start was called while a capture
	// session is active.
	ErrAlreadyRecording = errors.New("recording already in progress")

	// ErrNotRecording indicates Stop was called with no active session.
	ErrNotRecording = errors.New("no recording in progress")

	// ErrNoAudio indicates the session captured no samples.
	ErrNoAudio = errors.New("no audio captured")
)

// DefaultMaxDuration caps a single recording. Long clips make the
// transcription round trip slow and rarely hold a single utterance.
const DefaultMaxDuration = 2 * time.Minute

// ============================================================================
// RECORDER
// ============================================================================

// Recorder accumulates PCM from a capture device and packages it as a
// WAV clip on Stop. At most one session is active at a time.
type Recorder struct {
	ctx         Context
	maxDuration time.Duration

	mu        sync.Mutex
	device    CaptureDevice
	pcm       []byte
	startedAt time.Time
}

// NewRecorder creates a Recorder backed by the given audio context.
func NewRecorder(ctx Context) *Recorder {
	return &Recorder{
		ctx:         ctx,
		maxDuration: DefaultMaxDuration,
	}
}

// SetMaxDuration overrides the recording cap. Zero or negative values
// restore the default.
func (r *Recorder) SetMaxDuration(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d <= 0 {
		d = DefaultMaxDuration
	}
	r.maxDuration = d
}

// Recording reports whether a capture session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device != nil
}

// Elapsed returns how long the active session has been running, or
// zero when idle.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return 0
	}
	return time.Since(r.startedAt)
}

// Start opens a capture stream on the given device (nil selects the
// system default) and begins accumulating PCM.
func (r *Recorder) Start(device *DeviceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		return ErrAlreadyRecording
	}

	maxBytes := int(r.maxDuration.Seconds()) * SampleRate * bytesPerFrame

	dev, err := r.ctx.NewCapture(device, CaptureConfig{
		SampleRate: SampleRate,
		Channels:   Channels,
	}, func(data []byte, _ uint32) {
		r.mu.Lock()
		defer r.mu.Unlock()
		// Drop samples past the cap instead of growing without bound.
		if r.device == nil || len(r.pcm) >= maxBytes {
			return
		}
		if len(r.pcm)+len(data) > maxBytes {
			data = data[:maxBytes-len(r.pcm)]
		}
		r.pcm = append(r.pcm, data...)
	})
	if err != nil {
		return err
	}

	if err := dev.Start(); err != nil {
		dev.Close()
		return err
	}

	r.device = dev
	r.pcm = r.pcm[:0]
	r.startedAt = time.Now()
	return nil
}

// Stop ends the active session and returns the captured audio as a
// WAV clip.
func (r *Recorder) Stop() ([]byte, error) {
	r.mu.Lock()
	dev := r.device
	r.device = nil
	r.mu.Unlock()

	if dev == nil {
		return nil, ErrNotRecording
	}

	// Stop outside the lock: the data callback takes the same mutex
	// and the device may wait for in-flight callbacks to drain.
	dev.Stop()
	dev.Close()

	r.mu.Lock()
	pcm := r.pcm
	r.pcm = nil
	r.mu.Unlock()

	if len(pcm) == 0 {
		return nil, ErrNoAudio
	}
	return EncodeWAV(pcm), nil
}

// Cancel ends the active session and discards the captured audio.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	dev := r.device
	r.device = nil
	r.pcm = nil
	r.mu.Unlock()

	if dev != nil {
		dev.Stop()
		dev.Close()
	}
}
