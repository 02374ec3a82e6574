// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WAVHeaderSize is the size of a canonical RIFF/WAVE header with a
// single PCM "fmt " chunk followed by the "data" chunk.
const WAVHeaderSize = 44

// ErrNotWAV indicates the data is not a playable PCM WAV file.
var ErrNotWAV = errors.New("not a PCM WAV file")

// WAVFormat describes the PCM stream inside a WAV file.
type WAVFormat struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// EncodeWAV wraps raw PCM in a RIFF/WAVE header using the capture
// format constants.
func EncodeWAV(pcm []byte) []byte {
	return EncodeWAVFormat(pcm, WAVFormat{
		SampleRate:    SampleRate,
		Channels:      Channels,
		BitsPerSample: BitsPerSample,
	})
}

// EncodeWAVFormat wraps raw PCM in a RIFF/WAVE header for an arbitrary
// PCM format.
func EncodeWAVFormat(pcm []byte, f WAVFormat) []byte {
	blockAlign := f.Channels * f.BitsPerSample / 8
	byteRate := f.SampleRate * blockAlign

	buf := make([]byte, WAVHeaderSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(buf[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.BitsPerSample))
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[WAVHeaderSize:], pcm)
	return buf
}

// DecodeWAV extracts the PCM format and sample data from a WAV file.
// It walks the chunk list, so files with extra chunks (LIST, fact)
// decode correctly.
func DecodeWAV(data []byte) (WAVFormat, []byte, error) {
	if len(data) < WAVHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVFormat{}, nil, ErrNotWAV
	}

	var format WAVFormat
	var pcm []byte
	haveFmt := false

	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return WAVFormat{}, nil, fmt.Errorf("%w: fmt chunk too small", ErrNotWAV)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return WAVFormat{}, nil, fmt.Errorf("%w: unsupported format %d", ErrNotWAV, audioFormat)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			format.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	if !haveFmt || pcm == nil {
		return WAVFormat{}, nil, ErrNotWAV
	}
	if format.Channels == 0 || format.SampleRate == 0 {
		return WAVFormat{}, nil, fmt.Errorf("%w: invalid format chunk", ErrNotWAV)
	}
	return format, pcm, nil
}
