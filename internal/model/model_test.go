// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"testing"
	"time"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")

	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want 'hello'", msg.Content)
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestMessage_Streaming(t *testing.T) {
	msg := NewAssistantMessage()

	if !msg.IsStreaming {
		t.Fatal("new assistant message should be streaming")
	}
	if !msg.IsEmpty() {
		t.Error("new assistant message should be empty")
	}

	msg.AppendToken("Hello")
	msg.AppendToken(", ")
	msg.AppendToken("world")

	if got := msg.GetDisplayContent(); got != "Hello, world" {
		t.Errorf("GetDisplayContent() = %q during stream", got)
	}
	if msg.Content != "" {
		t.Error("Content should be empty until finalized")
	}

	stats := &Statistics{
		TTFT:            50 * time.Millisecond,
		TotalDuration:   2 * time.Second,
		CompletionTokens: 3,
		TokensPerSecond: 1.5,
	}
	msg.FinalizeStream(stats)

	if msg.IsStreaming {
		t.Error("message should not be streaming after finalize")
	}
	if msg.Content != "Hello, world" {
		t.Errorf("Content = %q after finalize", msg.Content)
	}
	if msg.TokenCount != 3 {
		t.Errorf("TokenCount = %d, want 3", msg.TokenCount)
	}

	// Tokens appended after finalize are ignored.
	msg.AppendToken("extra")
	if msg.Content != "Hello, world" {
		t.Error("AppendToken after finalize should be a no-op")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("short")
	if got := msg.Preview(50); got != "short" {
		t.Errorf("Preview = %q, want 'short'", got)
	}

	long := NewUserMessage(strings.Repeat("a", 100))
	got := long.Preview(10)
	if len([]rune(got)) != 10 {
		t.Errorf("Preview length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Preview = %q, want ... suffix", got)
	}

	// Unicode must not be split mid-rune.
	uni := NewUserMessage(strings.Repeat("héllo wörld ", 20))
	_ = uni.Preview(15)
}

func TestMessage_FormatStats(t *testing.T) {
	msg := NewUserMessage("hi")
	if got := msg.FormatStats(); got != "" {
		t.Errorf("user message FormatStats = %q, want empty", got)
	}

	asst := NewAssistantMessage()
	asst.FinalizeStream(&Statistics{
		TTFT:             234 * time.Millisecond,
		TotalDuration:    2500 * time.Millisecond,
		CompletionTokens: 128,
		TokensPerSecond:  51.2,
	})

	stats := asst.FormatStats()
	for _, want := range []string{"2.5s", "128 tokens", "51.2 tok/s", "TTFT 234ms"} {
		if !strings.Contains(stats, want) {
			t.Errorf("FormatStats() = %q, want to contain %q", stats, want)
		}
	}
}

// =============================================================================
// STATISTICS TESTS
// =============================================================================

func TestStatistics_Lifecycle(t *testing.T) {
	stats := NewStatistics()
	if stats.StartTime.IsZero() {
		t.Fatal("StartTime should be set")
	}

	time.Sleep(5 * time.Millisecond)
	stats.RecordFirstToken()
	if stats.TTFT <= 0 {
		t.Error("TTFT should be positive after first token")
	}

	firstTTFT := stats.TTFT
	stats.RecordFirstToken() // second call is a no-op
	if stats.TTFT != firstTTFT {
		t.Error("RecordFirstToken should only record once")
	}

	stats.Finalize(42)
	if stats.CompletionTokens != 42 {
		t.Errorf("CompletionTokens = %d, want 42", stats.CompletionTokens)
	}
	if stats.TotalDuration <= 0 {
		t.Error("TotalDuration should be positive")
	}
	if stats.TokensPerSecond <= 0 {
		t.Error("TokensPerSecond should be positive")
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_AddAndRetrieve(t *testing.T) {
	conv := NewConversation()
	if !conv.IsEmpty() {
		t.Fatal("new conversation should be empty")
	}
	if !strings.HasPrefix(conv.ID, "conv_") {
		t.Errorf("ID = %q, want conv_ prefix", conv.ID)
	}

	user := conv.AddUserMessage("first question")
	asst := conv.AddAssistantMessage()

	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount = %d, want 2", conv.MessageCount())
	}
	if conv.GetLastMessage() != asst {
		t.Error("GetLastMessage should return the assistant message")
	}
	if conv.GetLastUserMessage() != user {
		t.Error("GetLastUserMessage should return the user message")
	}
	if conv.GetLastAssistantMessage() != asst {
		t.Error("GetLastAssistantMessage should return the assistant message")
	}
	if conv.GetMessageByID(user.ID) != user {
		t.Error("GetMessageByID should find the user message")
	}
}

func TestConversation_StreamingHelpers(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("question")
	conv.AddAssistantMessage()

	conv.AppendToLast("token ")
	conv.AppendToLast("stream")
	conv.FinalizeLast(nil)

	last := conv.GetLastMessage()
	if last.IsStreaming {
		t.Error("message should be finalized")
	}
	if last.Content != "token stream" {
		t.Errorf("Content = %q", last.Content)
	}
}

func TestConversation_AutoTitle(t *testing.T) {
	conv := NewConversation()
	if conv.GetTitle() != "New Conversation" {
		t.Errorf("default title = %q", conv.GetTitle())
	}

	conv.AddUserMessage("How do I sort a slice in Go?")
	if conv.Title != "How do I sort a slice in Go?" {
		t.Errorf("auto title = %q", conv.Title)
	}

	// Title sticks after the first user message.
	conv.AddUserMessage("different topic")
	if conv.Title != "How do I sort a slice in Go?" {
		t.Error("title should not change on later messages")
	}
}

func TestConversation_ClearHistory(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("one")
	conv.AddUserMessage("two")

	conv.ClearHistory()
	if !conv.IsEmpty() {
		t.Error("conversation should be empty after clear")
	}
}

func TestConversation_RemoveMessage(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddUserMessage("delete me")
	conv.AddUserMessage("keep me")

	if !conv.RemoveMessage(msg.ID) {
		t.Fatal("RemoveMessage should return true for existing ID")
	}
	if conv.MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", conv.MessageCount())
	}
	if conv.RemoveMessage("msg_nonexistent") {
		t.Error("RemoveMessage should return false for unknown ID")
	}
}

func TestConversation_Pruning(t *testing.T) {
	conv := NewConversation()
	conv.AddSystemMessage("system prompt")

	for i := 0; i < MaxMessages+50; i++ {
		conv.AddUserMessage("filler")
	}

	if conv.MessageCount() != MaxMessages+1 {
		t.Errorf("MessageCount = %d, want %d", conv.MessageCount(), MaxMessages+1)
	}
	if conv.Messages[0].Role != RoleSystem {
		t.Error("system message should survive pruning")
	}
}

func TestConversation_Clone(t *testing.T) {
	conv := NewConversationWithModel("llama3.2")
	conv.AddUserMessage("original")

	clone := conv.Clone()
	clone.Messages[0].Content = "modified"

	if conv.Messages[0].Content != "original" {
		t.Error("clone should not share message data")
	}
	if clone.Model != "llama3.2" {
		t.Errorf("clone Model = %q", clone.Model)
	}
}

func TestConversation_CloneMidStream(t *testing.T) {
	conv := NewConversation()
	msg := conv.AddAssistantMessage()
	msg.AppendToken("partial ")

	clone := conv.Clone()

	// Both copies keep an appendable stream buffer.
	msg.AppendToken("answer")
	clone.Messages[0].AppendToken("copy")

	if got := msg.GetDisplayContent(); got != "partial answer" {
		t.Errorf("original stream = %q, want %q", got, "partial answer")
	}
	if got := clone.Messages[0].GetDisplayContent(); got != "partial copy" {
		t.Errorf("clone stream = %q, want %q", got, "partial copy")
	}
}

func TestConversation_NthLastAssistantMessage(t *testing.T) {
	conv := NewConversation()
	conv.AddUserMessage("q1")
	first := conv.AddAssistantMessage()
	first.AppendToken("a1")
	first.FinalizeStream(nil)
	conv.AddUserMessage("q2")
	second := conv.AddAssistantMessage()
	second.AppendToken("a2")
	second.FinalizeStream(nil)

	if got := conv.NthLastAssistantMessage(1); got != second {
		t.Error("n=1 should be the latest assistant message")
	}
	if got := conv.NthLastAssistantMessage(2); got != first {
		t.Error("n=2 should skip back one assistant message")
	}
	if got := conv.NthLastAssistantMessage(3); got != nil {
		t.Error("n past history should be nil")
	}
	if got := conv.NthLastAssistantMessage(0); got != nil {
		t.Error("n below 1 should be nil")
	}
}

func TestConversation_EstimateTokens(t *testing.T) {
	conv := NewConversation()
	if conv.EstimateTokens() != 0 {
		t.Error("empty conversation should estimate 0 tokens")
	}

	conv.AddUserMessage(strings.Repeat("word ", 100)) // 500 chars, ~125 tokens
	est := conv.EstimateTokens()
	if est < 100 || est > 200 {
		t.Errorf("EstimateTokens = %d, want roughly 125", est)
	}
}
