// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeContext feeds a canned PCM buffer to the capture callback when
// the device starts.
type fakeContext struct {
	pcm      []byte
	captures int
}

func (f *fakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *fakeContext) Close()                         {}

func (f *fakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig, cb DataCallback) (CaptureDevice, error) {
	f.captures++
	return &fakeCapture{pcm: f.pcm, cb: cb}, nil
}

type fakeCapture struct {
	pcm     []byte
	cb      DataCallback
	stopped bool
	closed  bool
}

func (c *fakeCapture) Start() error {
	go func() {
		const chunk = 1024
		for pos := 0; pos < len(c.pcm); pos += chunk {
			end := pos + chunk
			if end > len(c.pcm) {
				end = len(c.pcm)
			}
			c.cb(c.pcm[pos:end], uint32((end-pos)/bytesPerFrame))
		}
	}()
	return nil
}

func (c *fakeCapture) Stop()  { c.stopped = true }
func (c *fakeCapture) Close() { c.closed = true }

func waitForPCM(t *testing.T, r *Recorder, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		n := len(r.pcm)
		r.mu.Unlock()
		if n >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for captured audio")
}

func TestRecorderStartStop(t *testing.T) {
	pcm := make([]byte, 4096)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	ctx := &fakeContext{pcm: pcm}
	rec := NewRecorder(ctx)

	require.NoError(t, rec.Start(nil))
	assert.True(t, rec.Recording())

	waitForPCM(t, rec, len(pcm))
	wav, err := rec.Stop()
	require.NoError(t, err)
	assert.False(t, rec.Recording())

	format, got, err := DecodeWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, SampleRate, format.SampleRate)
	assert.Equal(t, Channels, format.Channels)
	assert.Equal(t, pcm, got)
}

func TestRecorderRejectsConcurrentSessions(t *testing.T) {
	rec := NewRecorder(&fakeContext{pcm: make([]byte, 1024)})

	require.NoError(t, rec.Start(nil))
	err := rec.Start(nil)
	assert.ErrorIs(t, err, ErrAlreadyRecording)
	rec.Cancel()
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(&fakeContext{})
	_, err := rec.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorderEmptyCapture(t *testing.T) {
	rec := NewRecorder(&fakeContext{}) // no PCM fed
	require.NoError(t, rec.Start(nil))
	_, err := rec.Stop()
	assert.ErrorIs(t, err, ErrNoAudio)
}

func TestRecorderCancelDiscardsAudio(t *testing.T) {
	pcm := make([]byte, 2048)
	rec := NewRecorder(&fakeContext{pcm: pcm})

	require.NoError(t, rec.Start(nil))
	waitForPCM(t, rec, len(pcm))
	rec.Cancel()

	assert.False(t, rec.Recording())
	_, err := rec.Stop()
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestRecorderMaxDurationCapsBuffer(t *testing.T) {
	// 1 second cap; feed 2 seconds of audio.
	twoSeconds := make([]byte, 2*SampleRate*bytesPerFrame)
	rec := NewRecorder(&fakeContext{pcm: twoSeconds})
	rec.SetMaxDuration(time.Second)

	require.NoError(t, rec.Start(nil))
	waitForPCM(t, rec, SampleRate*bytesPerFrame)
	// Give the feeder time to overrun the cap.
	time.Sleep(50 * time.Millisecond)

	wav, err := rec.Stop()
	require.NoError(t, err)
	_, got, err := DecodeWAV(wav)
	require.NoError(t, err)
	assert.Len(t, got, SampleRate*bytesPerFrame)
}

func TestRecorderRestartAfterStop(t *testing.T) {
	pcm := make([]byte, 1024)
	ctx := &fakeContext{pcm: pcm}
	rec := NewRecorder(ctx)

	require.NoError(t, rec.Start(nil))
	waitForPCM(t, rec, len(pcm))
	_, err := rec.Stop()
	require.NoError(t, err)

	require.NoError(t, rec.Start(nil))
	waitForPCM(t, rec, len(pcm))
	wav, err := rec.Stop()
	require.NoError(t, err)
	_, got, err := DecodeWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
	assert.Equal(t, 2, ctx.captures)
}
