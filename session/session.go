// Package session holds the conversation transcript and its on-disk store.
//
// A Session is the ordered list of turns exchanged with the model. It is
// owned by a single chat engine for the life of the process and serialized
// wholesale to a JSON file by Store. Turns are append-only; nothing ever
// reorders or rewrites them.
package session

import "time"

// Roles a turn can carry. These match the wire roles of the chat endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// IDFormat is the timestamp layout used for session ids. Lexical order of
// ids produced with this layout equals creation order.
const IDFormat = "20060102-150405"

// ToolCall records one tool invocation requested by the model. Arguments is
// the raw JSON text exactly as the model produced it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Turn is one message in a conversation. A turn is immutable once appended
// to a session.
type Turn struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Session is a conversation transcript identified by its creation time.
type Session struct {
	ID    string    `json:"id"`
	Date  time.Time `json:"date"`
	Turns []Turn    `json:"messages"`
}

// Summary is a read-only projection of a stored session, recomputed from
// the full session on every listing.
type Summary struct {
	ID        string
	Date      time.Time
	TurnCount int
}

// New creates an empty session whose id is derived from the current time.
func New() *Session {
	now := time.Now()
	return &Session{
		ID:   now.Format(IDFormat),
		Date: now,
	}
}

// Append adds a turn to the end of the transcript.
func (s *Session) Append(t Turn) {
	s.Turns = append(s.Turns, t)
}

// Clear drops all turns while keeping the session identity.
func (s *Session) Clear() {
	s.Turns = nil
}

// LastAssistant returns the content of the most recent assistant turn.
func (s *Session) LastAssistant() (string, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleAssistant && s.Turns[i].Content != "" {
			return s.Turns[i].Content, true
		}
	}
	return "", false
}

// Summary computes the listing projection for this session.
func (s *Session) Summary() Summary {
	return Summary{ID: s.ID, Date: s.Date, TurnCount: len(s.Turns)}
}
