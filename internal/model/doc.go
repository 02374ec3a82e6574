// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, and generation statistics.
// Conversations are held in memory only; there is no on-disk history.
//
// # Key Types
//
//   - Conversation: Container for a chat session with messages and metadata
//   - Message: Single message with role, content, timestamp, and voice flags
//   - Statistics: Timing and throughput for one generation
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a new conversation:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
//	msg := conv.AddAssistantMessage()
//	msg.AppendToken("Hi ")
//	msg.AppendToken("there!")
//	msg.FinalizeStream(stats)
package model
