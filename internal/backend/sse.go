// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the parley assistant backend.
package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// =============================================================================
// SSE EVENT READER
// =============================================================================

// EventReader incrementally parses a Server-Sent-Events stream.
//
// The reader buffers partial lines across reads, so events split anywhere by
// the transport are reassembled correctly. Both LF and CRLF line endings are
// accepted, comment lines (leading ':') and unknown fields are ignored, and
// an event is dispatched on the blank line that terminates it, per the SSE
// framing rules.
type EventReader struct {
	reader *bufio.Reader

	// Fields of the event currently being assembled.
	eventType string
	data      []string

	// PERFORMANCE: strings.Builder avoids quadratic allocations
	accumulator strings.Builder
	stats       *StreamStats
}

// NewEventReader creates an EventReader over an io.Reader.
func NewEventReader(r io.Reader) *EventReader {
	return &EventReader{
		reader: bufio.NewReader(r),
		stats:  NewStreamStats(),
	}
}

// StreamCallback is called for each decoded event, in stream order.
type StreamCallback func(event StreamEvent)

// Process reads the stream and calls the callback for each event.
// Blocks until a terminal event (done or error) arrives, the stream ends,
// or the context is cancelled. An "error" event is delivered through the
// callback and also returned.
func (r *EventReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			event, err := r.next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}

			if event == nil {
				continue
			}

			callback(*event)

			if event.Error != nil {
				r.stats.Finalize()
				return event.Error
			}
			if event.Done {
				r.stats.Finalize()
				return nil
			}
		}
	}
}

// next reads lines until a complete event has been assembled.
// Returns (nil, nil) when a frame was consumed but produced no event
// (comments, unknown event types, malformed data).
func (r *EventReader) next() (*StreamEvent, error) {
	for {
		line, err := r.reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				// Final line without trailing newline; process it, then
				// dispatch whatever has been assembled.
				r.consumeLine(line)
				if event := r.dispatch(); event != nil {
					return event, nil
				}
			}
			return nil, err
		}

		if isBlank(line) {
			// Blank line terminates the event.
			if event := r.dispatch(); event != nil {
				return event, nil
			}
			return nil, nil
		}

		r.consumeLine(line)
	}
}

// consumeLine parses a single SSE field line into the pending event.
func (r *EventReader) consumeLine(line []byte) {
	line = trimLineEnding(line)

	// Comment lines start with ':'
	if len(line) > 0 && line[0] == ':' {
		return
	}

	field, value := splitField(line)
	switch field {
	case "event":
		r.eventType = value
	case "data":
		r.data = append(r.data, value)
	default:
		// id, retry, and unknown fields are ignored.
	}
}

// dispatch converts the assembled fields into a StreamEvent and resets
// the pending state. Returns nil for events we don't recognize or whose
// data payload is malformed.
func (r *EventReader) dispatch() *StreamEvent {
	eventType := r.eventType
	data := strings.Join(r.data, "\n")
	r.eventType = ""
	r.data = nil

	if data == "" {
		return nil
	}

	switch eventType {
	case "token", "": // token is also the implicit default event type
		var payload tokenPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			// Skip malformed data lines.
			return nil
		}
		if payload.Token != "" {
			r.accumulator.WriteString(payload.Token)
			r.stats.RecordToken()
		}
		return &StreamEvent{Token: payload.Token}

	case "done":
		var payload donePayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return nil
		}
		return &StreamEvent{Done: true}

	case "error":
		var payload errorPayload
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return nil
		}
		return &StreamEvent{Error: &ClientError{
			Type:    ErrTypeGeneration,
			Message: payload.Error,
		}}

	default:
		return nil
	}
}

// Accumulated returns all generated text received so far.
func (r *EventReader) Accumulated() string {
	return r.accumulator.String()
}

// Stats returns the statistics collected during streaming.
func (r *EventReader) Stats() *StreamStats {
	return r.stats
}

// =============================================================================
// LINE HELPERS
// =============================================================================

// trimLineEnding strips a trailing LF or CRLF.
func trimLineEnding(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return line
}

// isBlank reports whether the line is empty after removing its ending.
func isBlank(line []byte) bool {
	return len(trimLineEnding(line)) == 0
}

// splitField splits an SSE field line into name and value.
// A single space after the colon is stripped, per the SSE spec.
func splitField(line []byte) (string, string) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return string(line), ""
	}
	field := string(line[:idx])
	value := line[idx+1:]
	if len(value) > 0 && value[0] == ' ' {
		value = value[1:]
	}
	return field, string(value)
}
