package models

import (
	"fmt"
	"time"
)

// Record is one row of the knowledge base rendered as text.
type Record struct {
	Row    int    `json:"row"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// ID is the stable identifier used by the vector stores.
func (r Record) ID() string {
	return fmt.Sprintf("row-%d", r.Row)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a session's history.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn pairs a user message with the reply it produced, or with the error
// shown in place of that reply.
type Turn struct {
	User      ChatMessage  `json:"user"`
	Assistant *ChatMessage `json:"assistant,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Pending reports whether the turn has neither a reply nor a failure yet.
func (t Turn) Pending() bool {
	return t.Assistant == nil && t.Error == ""
}

// PromptResponse is the outcome of a one-shot question.
type PromptResponse struct {
	Query   string   `json:"query"`
	Sources []Record `json:"sources"`
	Content string   `json:"content"`
}
