// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the parley assistant backend.
//
// The backend exposes a small local API: a streaming chat endpoint delivered
// over Server-Sent Events, a model listing endpoint, speech-to-text and
// text-to-speech endpoints, and a health check.
//
// # Key Types
//
//   - Client: HTTP client for the backend API
//   - EventReader: incremental SSE parser with partial-line buffering
//   - StreamEvent: a decoded token/done/error event from the chat stream
//   - ClientError: categorized client error with sentinel values
//
// # Usage
//
// Create a client and stream a chat response:
//
//	client := backend.NewClient()
//	err := client.ChatStream(ctx, "Hello", "", func(event backend.StreamEvent) {
//	    if event.Token != "" {
//	        fmt.Print(event.Token)
//	    }
//	})
//
// Voice round trips:
//
//	text, err := client.Transcribe(ctx, wavBytes)
//	audio, err := client.Synthesize(ctx, "Hello there", "default")
package backend
