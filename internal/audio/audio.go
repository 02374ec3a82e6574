// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

// ============================================================================
// CAPTURE FORMAT
// ============================================================================

// Capture format constants. The transcription backend expects 16 kHz
// mono signed 16-bit little-endian PCM.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16

	bytesPerSample = BitsPerSample / 8
	bytesPerFrame  = bytesPerSample * Channels
)

// ============================================================================
// DEVICE ABSTRACTION
// ============================================================================

// DataCallback receives raw PCM from a capture device. data holds
// frameCount frames in the capture format.
type DataCallback func(data []byte, frameCount uint32)

// CaptureConfig selects the capture stream format.
type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

// DeviceInfo identifies a capture device.
type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

// Context is the platform audio context. Close must be called when no
// captures remain open.
type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig, callback DataCallback) (CaptureDevice, error)
	Close()
}

// CaptureDevice is a single open capture stream. The data callback
// fires on an internal audio thread between Start and Stop.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
}
