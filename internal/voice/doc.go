// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice ties microphone capture and speaker playback to the
// backend speech endpoints.
//
// Transcriber runs the record, upload, transcribe round trip that
// turns a held hotkey into input text. Speaker runs the synthesize,
// play round trip that reads an assistant reply aloud.
//
// Both pipelines allow one operation at a time. Audio hardware is
// opened lazily so a machine with no microphone can still chat.
package voice
