package domain

import "time"

// Role identifies who produced a conversation entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Entry is a single conversation turn. Entries are never mutated after
// creation.
type Entry struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// Conversation is an append-only ordered sequence of entries.
type Conversation struct {
	entries []Entry
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds an entry with the current time and returns it.
func (c *Conversation) Append(role Role, text string) Entry {
	e := Entry{Role: role, Text: text, Timestamp: time.Now()}
	c.entries = append(c.entries, e)
	return e
}

// Entries returns a copy of the log so callers can't mutate history.
func (c *Conversation) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Tail returns up to n most recent entries, oldest first.
func (c *Conversation) Tail(n int) []Entry {
	if n <= 0 || len(c.entries) == 0 {
		return nil
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}
	out := make([]Entry, n)
	copy(out, c.entries[len(c.entries)-n:])
	return out
}

// Len returns the number of entries.
func (c *Conversation) Len() int { return len(c.entries) }
