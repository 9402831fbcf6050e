package conversation

import (
	"fmt"
	"slices"
)

// Role tags a message with its author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries results of native tool calls back to the agent.
	RoleTool Role = "tool"
)

func (r Role) valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// ToolCall is a native function call requested by the agent.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	ID     string
	Name   string
	Result map[string]any
}

// Message is one entry in the conversation.
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall   // assistant only
	ToolResults []ToolResult // tool only
}

// Conversation is an append-only message list. The only removal is Clear,
// which keeps system messages.
type Conversation struct {
	messages []Message
}

// New creates a conversation seeded with optional system prompts.
func New(system ...string) *Conversation {
	c := &Conversation{}
	for _, s := range system {
		c.messages = append(c.messages, Message{Role: RoleSystem, Content: s})
	}
	return c
}

// Append adds a message to the end.
func (c *Conversation) Append(m Message) error {
	if !m.Role.valid() {
		return fmt.Errorf("invalid message role %q", m.Role)
	}
	if len(m.ToolResults) > 0 && m.Role != RoleTool {
		return fmt.Errorf("tool results on %s message", m.Role)
	}
	c.messages = append(c.messages, cloneMessage(m))
	return nil
}

func (c *Conversation) AddSystem(content string) {
	c.messages = append(c.messages, Message{Role: RoleSystem, Content: content})
}

func (c *Conversation) AddUser(content string) {
	c.messages = append(c.messages, Message{Role: RoleUser, Content: content})
}

func (c *Conversation) AddAssistant(content string, calls ...ToolCall) {
	c.messages = append(c.messages, cloneMessage(Message{Role: RoleAssistant, Content: content, ToolCalls: calls}))
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of every message in order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	for i, m := range c.messages {
		out[i] = cloneMessage(m)
	}
	return out
}

// Last returns the final message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return cloneMessage(c.messages[len(c.messages)-1]), true
}

// Window returns every system message plus the last n other messages, in
// their original order. n <= 0 returns everything. A window never starts
// with a tool message whose call was cut off.
func (c *Conversation) Window(n int) []Message {
	if n <= 0 {
		return c.Messages()
	}

	keep := make([]bool, len(c.messages))
	remaining := n
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleSystem {
			keep[i] = true
			continue
		}
		if remaining > 0 {
			keep[i] = true
			remaining--
		}
	}

	out := make([]Message, 0, n)
	leading := true
	for i, m := range c.messages {
		if !keep[i] {
			continue
		}
		if leading && m.Role == RoleTool {
			continue
		}
		if m.Role != RoleSystem {
			leading = false
		}
		out = append(out, cloneMessage(m))
	}
	return out
}

// Clear drops every message except system messages.
func (c *Conversation) Clear() {
	c.messages = slices.DeleteFunc(c.messages, func(m Message) bool {
		return m.Role != RoleSystem
	})
}

func cloneMessage(m Message) Message {
	m.ToolCalls = slices.Clone(m.ToolCalls)
	m.ToolResults = slices.Clone(m.ToolResults)
	return m
}
