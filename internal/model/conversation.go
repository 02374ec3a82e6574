// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxMessages bounds the in-memory history. Beyond it, the oldest
// non-system messages are pruned.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat session's history and metadata. History
// lives in memory only and is gone when the session ends.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"`

	// Model is the generation model this conversation uses.
	Model string `json:"model"`
}

// NewConversation creates a new conversation with a generated ID.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        "conv_" + uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []*Message{},
	}
}

// NewConversationWithModel creates a new conversation bound to a model.
func NewConversationWithModel(model string) *Conversation {
	conv := NewConversation()
	conv.Model = model
	return conv
}

// touch bumps the updated timestamp.
func (c *Conversation) touch() {
	c.UpdatedAt = time.Now()
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message, refreshing the title and pruning if the
// history grew past its bound.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.touch()
	c.updateTitle()
	c.prune()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds a streaming assistant message.
func (c *Conversation) AddAssistantMessage() *Message {
	msg := NewAssistantMessage()
	c.AddMessage(msg)
	return msg
}

// AddSystemMessage creates and adds a system message.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	c.AddMessage(msg)
	return msg
}

// lastWithRole scans backwards for the newest message with the role.
func (c *Conversation) lastWithRole(role Role) *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == role {
			return c.Messages[i]
		}
	}
	return nil
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// GetLastAssistantMessage returns the most recent assistant message.
func (c *Conversation) GetLastAssistantMessage() *Message {
	return c.lastWithRole(RoleAssistant)
}

// GetLastUserMessage returns the most recent user message.
func (c *Conversation) GetLastUserMessage() *Message {
	return c.lastWithRole(RoleUser)
}

// NthLastAssistantMessage returns the nth assistant message counting
// back from the end, 1 being the most recent. Nil when there are
// fewer than n assistant messages.
func (c *Conversation) NthLastAssistantMessage(n int) *Message {
	if n < 1 {
		return nil
	}
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role != RoleAssistant {
			continue
		}
		n--
		if n == 0 {
			return c.Messages[i]
		}
	}
	return nil
}

// AppendToLast routes a token to the trailing streaming message, if any.
func (c *Conversation) AppendToLast(token string) {
	if last := c.GetLastMessage(); last != nil && last.IsStreaming {
		last.AppendToken(token)
	}
}

// FinalizeLast completes the trailing streaming message with statistics.
func (c *Conversation) FinalizeLast(stats *Statistics) {
	if last := c.GetLastMessage(); last != nil && last.IsStreaming {
		last.FinalizeStream(stats)
	}
}

// RemoveMessage removes a message by ID, reporting whether it was found.
func (c *Conversation) RemoveMessage(id string) bool {
	for i, msg := range c.Messages {
		if msg.ID == id {
			c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
			c.touch()
			return true
		}
	}
	return false
}

// GetMessageByID returns a message by its ID, or nil.
func (c *Conversation) GetMessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// ClearHistory removes all messages from the conversation.
func (c *Conversation) ClearHistory() {
	c.Messages = []*Message{}
	c.touch()
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// GetHistory returns the message history for display.
func (c *Conversation) GetHistory() []*Message {
	return c.Messages
}

// EstimateTokens estimates the total token count of the conversation,
// including a small per-message framing overhead.
func (c *Conversation) EstimateTokens() int {
	total := 0
	for _, msg := range c.Messages {
		total += msg.EstimateTokens() + 4
	}
	return total
}

// =============================================================================
// TITLE
// =============================================================================

// updateTitle derives a title from the first user message, once.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.touch()
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title == "" {
		return "New Conversation"
	}
	return c.Title
}

// Preview returns a short preview of the conversation content.
func (c *Conversation) Preview() string {
	if c.IsEmpty() {
		return "Empty conversation"
	}
	msg := c.GetLastUserMessage()
	if msg == nil {
		msg = c.Messages[0]
	}
	return msg.Preview(100)
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Clone creates a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	clone := *c
	clone.Messages = make([]*Message, len(c.Messages))
	for i, msg := range c.Messages {
		dup := *msg
		// Builders must not be copied after use. Rebuild the stream
		// buffer so both copies stay appendable.
		dup.streamContent = strings.Builder{}
		if pending := msg.streamContent.String(); pending != "" {
			dup.streamContent.WriteString(pending)
		}
		clone.Messages[i] = &dup
	}
	return &clone
}

// prune drops the oldest non-system messages once the history exceeds
// MaxMessages. System messages always survive.
func (c *Conversation) prune() {
	if len(c.Messages) <= MaxMessages {
		return
	}

	var system, rest []*Message
	for _, msg := range c.Messages {
		if msg.Role == RoleSystem {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
		}
	}
	if len(rest) > MaxMessages {
		rest = rest[len(rest)-MaxMessages:]
	}

	c.Messages = append(system, rest...)
}
