// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audio provides microphone capture and speaker playback for
// voice conversations.
//
// Capture runs at 16 kHz mono signed 16-bit PCM, the format the speech
// backend expects. The Context and CaptureDevice interfaces abstract
// the platform audio layer (miniaudio via malgo) so that recording
// logic can be tested against a fake device.
//
// # Key Types
//
//   - Context: platform audio context, enumerates devices and opens captures
//   - CaptureDevice: a single open capture stream
//   - Recorder: accumulates PCM from a capture into a WAV clip
//   - Player: plays WAV audio through the default output device
//
// # Usage
//
//	ctx, err := audio.NewContext()
//	if err != nil { ... }
//	defer ctx.Close()
//
//	rec := audio.NewRecorder(ctx)
//	if err := rec.Start(nil); err != nil { ... }
//	// ... user speaks ...
//	wav, err := rec.Stop()
package audio
