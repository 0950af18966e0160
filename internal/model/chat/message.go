package chat

import (
	"strings"
	"time"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single turn. Messages are immutable once appended.
type Message struct {
	ID         string      `json:"id"`
	SessionID  string      `json:"sessionId"`
	Role       Role        `json:"role"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
	IsError    bool        `json:"isError,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// HasContent reports whether the message carries text or an attachment.
func (m Message) HasContent() bool {
	return m.Attachment != nil || strings.TrimSpace(m.Text) != ""
}
