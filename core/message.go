package core

import "fmt"

// Role identifies the author of a chat message. The set is closed: the wire
// protocol shared by all supported providers knows exactly three roles, so
// tool traffic is encoded as tagged assistant/user content instead of a
// fourth role.
type Role string

const (
	// RoleSystem marks instruction / context messages.
	RoleSystem Role = "system"
	// RoleUser marks end-user (or tool-result) messages.
	RoleUser Role = "user"
	// RoleAssistant marks model-authored messages.
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the three protocol roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message is one immutable chat turn. Tag carries provenance metadata (the
// adapter or encoding that produced the content); it is never sent to the
// model as a separate field, the content itself embeds any wrapping tags.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Tag     string `json:"tag,omitempty"`
}

// NewMessage constructs a message, panicking on an invalid role. The closed
// role set is an invariant of the whole pipeline; constructing a message with
// anything else is a programming error, not a runtime condition.
func NewMessage(role Role, content string) Message {
	if !role.Valid() {
		panic(fmt.Sprintf("core: invalid message role %q", role))
	}
	return Message{Role: role, Content: content}
}

// NewTaggedMessage constructs a message carrying a provenance tag.
func NewTaggedMessage(role Role, content, tag string) Message {
	m := NewMessage(role, content)
	m.Tag = tag
	return m
}
