// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectEvents runs Process over the stream and returns every delivered
// event plus the Process error.
func collectEvents(t *testing.T, reader *EventReader) ([]StreamEvent, error) {
	t.Helper()
	var events []StreamEvent
	err := reader.Process(context.Background(), func(event StreamEvent) {
		events = append(events, event)
	})
	return events, err
}

func TestProcessTokenStream(t *testing.T) {
	stream := "event: token\ndata: {\"token\": \"Hello\"}\n\n" +
		"event: token\ndata: {\"token\": \" world\"}\n\n" +
		"event: done\ndata: {\"done\": true}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Hello", events[0].Token)
	assert.Equal(t, " world", events[1].Token)
	assert.True(t, events[2].Done)
	assert.Equal(t, "Hello world", reader.Accumulated())
	assert.Equal(t, 2, reader.Stats().TokenCount)
}

func TestProcessEventsSplitAcrossReads(t *testing.T) {
	stream := "event: token\ndata: {\"token\": \"chunked\"}\n\n" +
		"event: done\ndata: {\"done\": true}\n\n"

	// One byte per read exercises line reassembly across transport reads.
	reader := NewEventReader(iotest.OneByteReader(strings.NewReader(stream)))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "chunked", events[0].Token)
	assert.True(t, events[1].Done)
}

func TestProcessCRLFLineEndings(t *testing.T) {
	stream := "event: token\r\ndata: {\"token\": \"crlf\"}\r\n\r\n" +
		"event: done\r\ndata: {\"done\": true}\r\n\r\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "crlf", events[0].Token)
	assert.True(t, events[1].Done)
}

func TestProcessIgnoresCommentsAndUnknownFields(t *testing.T) {
	stream := ": keep-alive\n" +
		"id: 7\n" +
		"retry: 500\n" +
		"event: token\ndata: {\"token\": \"ok\"}\n\n" +
		"event: done\ndata: {\"done\": true}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ok", events[0].Token)
}

func TestProcessImplicitTokenEventType(t *testing.T) {
	// No "event:" line at all; the default event type carries tokens.
	stream := "data: {\"token\": \"implicit\"}\n\n" +
		"event: done\ndata: {\"done\": true}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "implicit", events[0].Token)
	assert.Equal(t, "implicit", reader.Accumulated())
}

func TestProcessErrorEvent(t *testing.T) {
	stream := "event: token\ndata: {\"token\": \"partial\"}\n\n" +
		"event: error\ndata: {\"error\": \"model crashed\"}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.Error(t, err)
	var clientErr *ClientError
	require.True(t, errors.As(err, &clientErr))
	assert.Equal(t, ErrTypeGeneration, clientErr.Type)
	assert.Equal(t, "model crashed", clientErr.Message)

	// The error is also delivered through the callback, after the token.
	require.Len(t, events, 2)
	assert.Equal(t, "partial", events[0].Token)
	assert.Equal(t, err, events[1].Error)
}

func TestProcessSkipsMalformedData(t *testing.T) {
	stream := "event: token\ndata: {not json\n\n" +
		"event: token\ndata: {\"token\": \"after\"}\n\n" +
		"event: done\ndata: {\"done\": true}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "after", events[0].Token)
	assert.Equal(t, "after", reader.Accumulated())
}

func TestProcessIgnoresUnknownEventTypes(t *testing.T) {
	stream := "event: metrics\ndata: {\"tps\": 42}\n\n" +
		"event: done\ndata: {\"done\": true}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)
}

func TestProcessStopsAfterDone(t *testing.T) {
	stream := "event: done\ndata: {\"done\": true}\n\n" +
		"event: token\ndata: {\"token\": \"late\"}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Done)
	assert.Equal(t, "", reader.Accumulated())
}

func TestProcessFinalLineWithoutNewline(t *testing.T) {
	// Stream truncated before the terminating blank line; the assembled
	// event is still dispatched at EOF.
	stream := "event: token\ndata: {\"token\": \"tail\"}"

	reader := NewEventReader(strings.NewReader(stream))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "tail", events[0].Token)
}

func TestProcessEmptyStream(t *testing.T) {
	reader := NewEventReader(strings.NewReader(""))
	events, err := collectEvents(t, reader)

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestProcessCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := NewEventReader(strings.NewReader("event: token\ndata: {\"token\": \"x\"}\n\n"))
	calls := 0
	err := reader.Process(ctx, func(StreamEvent) { calls++ })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestProcessStatsFinalized(t *testing.T) {
	stream := "event: token\ndata: {\"token\": \"a\"}\n\n" +
		"event: token\ndata: {\"token\": \"b\"}\n\n" +
		"event: done\ndata: {\"done\": true}\n\n"

	reader := NewEventReader(strings.NewReader(stream))
	_, err := collectEvents(t, reader)
	require.NoError(t, err)

	stats := reader.Stats()
	assert.Equal(t, 2, stats.TokenCount)
	assert.False(t, stats.FirstTokenTime.IsZero())
	assert.False(t, stats.EndTime.IsZero())
	assert.Positive(t, stats.TotalDuration)
}

func TestStreamStatsFinalizeIdempotent(t *testing.T) {
	stats := NewStreamStats()
	stats.RecordToken()

	stats.Finalize()
	first := stats.TotalDuration
	assert.Positive(t, first)

	// A second finalize, as when the stream closes after the done
	// event already fired, keeps the original duration.
	time.Sleep(2 * time.Millisecond)
	stats.Finalize()
	assert.Equal(t, first, stats.TotalDuration)
}
