// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 3200) // 100ms at 16kHz mono 16-bit
	wav := EncodeWAV(pcm)

	require.Len(t, wav, WAVHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))
	assert.Equal(t, uint32(SampleRate), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint16(Channels), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint16(BitsPerSample), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestDecodeWAVRoundTrip(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	wav := EncodeWAVFormat(pcm, WAVFormat{SampleRate: 22050, Channels: 2, BitsPerSample: 16})

	format, got, err := DecodeWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, 22050, format.SampleRate)
	assert.Equal(t, 2, format.Channels)
	assert.Equal(t, 16, format.BitsPerSample)
	assert.Equal(t, pcm, got)
}

func TestDecodeWAVExtraChunks(t *testing.T) {
	// fmt chunk, then an unknown chunk, then data.
	pcm := []byte{10, 20, 30, 40}
	base := EncodeWAVFormat(pcm, WAVFormat{SampleRate: SampleRate, Channels: 1, BitsPerSample: 16})

	list := make([]byte, 8+6)
	copy(list[0:4], "LIST")
	binary.LittleEndian.PutUint32(list[4:8], 6)

	wav := make([]byte, 0, len(base)+len(list))
	wav = append(wav, base[:36]...) // RIFF header + fmt chunk
	wav = append(wav, list...)
	wav = append(wav, base[36:]...) // data chunk

	format, got, err := DecodeWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, SampleRate, format.SampleRate)
	assert.Equal(t, pcm, got)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, err := DecodeWAV([]byte("definitely not audio data, far too short anyway"))
	assert.ErrorIs(t, err, ErrNotWAV)

	_, _, err = DecodeWAV(nil)
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestDecodeWAVRejectsNonPCM(t *testing.T) {
	wav := EncodeWAV([]byte{0, 0})
	binary.LittleEndian.PutUint16(wav[20:22], 3) // IEEE float
	_, _, err := DecodeWAV(wav)
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestConvertPCM16Passthrough(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	f := WAVFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
	assert.Equal(t, pcm, convertPCM16(pcm, f, f))
}

func TestConvertPCM16StereoToMono(t *testing.T) {
	// Two stereo frames: (100, 300) and (-200, 200).
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:2], uint16(int16(100)))
	binary.LittleEndian.PutUint16(pcm[2:4], uint16(int16(300)))
	binary.LittleEndian.PutUint16(pcm[4:6], uint16(int16(-200)))
	binary.LittleEndian.PutUint16(pcm[6:8], uint16(int16(200)))

	out := convertPCM16(pcm,
		WAVFormat{SampleRate: 16000, Channels: 2, BitsPerSample: 16},
		WAVFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16})

	require.Len(t, out, 4)
	assert.Equal(t, int16(200), int16(binary.LittleEndian.Uint16(out[0:2])))
	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(out[2:4])))
}

func TestConvertPCM16Downsample(t *testing.T) {
	// 4 frames at 32kHz become 2 frames at 16kHz.
	pcm := make([]byte, 8)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(i*10)))
	}

	out := convertPCM16(pcm,
		WAVFormat{SampleRate: 32000, Channels: 1, BitsPerSample: 16},
		WAVFormat{SampleRate: 16000, Channels: 1, BitsPerSample: 16})

	require.Len(t, out, 4)
	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(out[0:2])))
	assert.Equal(t, int16(20), int16(binary.LittleEndian.Uint16(out[2:4])))
}
