// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ============================================================================
// PLAYER
// ============================================================================

// Player plays WAV clips through the default output device. At most
// one clip plays at a time; starting a new clip stops the previous
// one.
//
// The underlying output context can only be opened once per process,
// so it is created lazily with the format of the first clip and later
// clips are converted to match.
type Player struct {
	mu        sync.Mutex
	otoCtx    *oto.Context
	ctxFormat WAVFormat
	current   *oto.Player
	gen       int
}

// NewPlayer creates an idle Player.
func NewPlayer() *Player {
	return &Player{}
}

// Play decodes the WAV clip and starts playback. It returns once
// playback has started; done (if non-nil) is invoked when the clip
// finishes or is stopped.
func (p *Player) Play(wav []byte, done func()) error {
	format, pcm, err := DecodeWAV(wav)
	if err != nil {
		return err
	}
	if format.BitsPerSample != 16 {
		return fmt.Errorf("%w: %d-bit samples not supported", ErrNotWAV, format.BitsPerSample)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureContextLocked(format); err != nil {
		return err
	}
	pcm = convertPCM16(pcm, format, p.ctxFormat)

	if p.current != nil {
		p.current.Close()
		p.current = nil
	}

	player := p.otoCtx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	p.current = player
	p.gen++
	gen := p.gen

	go func() {
		for player.IsPlaying() {
			time.Sleep(20 * time.Millisecond)
		}
		p.mu.Lock()
		// Only clear if no newer clip replaced this one.
		if p.gen == gen && p.current == player {
			p.current.Close()
			p.current = nil
		}
		p.mu.Unlock()
		if done != nil {
			done()
		}
	}()
	return nil
}

// Playing reports whether a clip is currently playing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil && p.current.IsPlaying()
}

// Stop halts the current clip, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Close()
		p.current = nil
	}
}

func (p *Player) ensureContextLocked(format WAVFormat) error {
	if p.otoCtx != nil {
		return nil
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   50 * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("audio output init: %w", err)
	}
	<-ready
	p.otoCtx = ctx
	p.ctxFormat = format
	return nil
}

// ============================================================================
// FORMAT CONVERSION
// ============================================================================

// convertPCM16 adapts 16-bit PCM from one format to another. Channel
// count is mixed down or duplicated; sample rate uses nearest-neighbor
// resampling, which is fine for speech.
func convertPCM16(pcm []byte, from, to WAVFormat) []byte {
	if from.SampleRate == to.SampleRate && from.Channels == to.Channels {
		return pcm
	}

	srcFrames := len(pcm) / (2 * from.Channels)
	mono := make([]int16, srcFrames)
	for i := 0; i < srcFrames; i++ {
		var sum int
		for c := 0; c < from.Channels; c++ {
			off := (i*from.Channels + c) * 2
			sum += int(int16(uint16(pcm[off]) | uint16(pcm[off+1])<<8))
		}
		mono[i] = int16(sum / from.Channels)
	}

	dstFrames := srcFrames * to.SampleRate / from.SampleRate
	out := make([]byte, dstFrames*2*to.Channels)
	for i := 0; i < dstFrames; i++ {
		src := i * from.SampleRate / to.SampleRate
		if src >= srcFrames {
			src = srcFrames - 1
		}
		s := uint16(mono[src])
		for c := 0; c < to.Channels; c++ {
			off := (i*to.Channels + c) * 2
			out[off] = byte(s)
			out[off+1] = byte(s >> 8)
		}
	}
	return out
}
