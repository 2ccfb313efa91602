// Package session keeps the ordered transcript of a conversation with
// the travel assistant and turns user intent into transcript entries.
package session

import (
	"sync"
	"time"

	"github.com/flymate/flymate-go/internal/results"
)

// Roles of transcript entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single transcript entry. Timestamp is assigned at
// creation and never changes.
type Message struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   *results.Payload `json:"data,omitempty"`
}

// Session is an append-only transcript. Entries are only ever removed by
// Clear, which empties the whole transcript. Safe for concurrent use:
// the websocket read loop appends from its own goroutine.
type Session struct {
	mu       sync.Mutex
	messages []Message
}

// NewSession creates an empty transcript.
func NewSession() *Session {
	return &Session{}
}

// Append adds a message and returns it. Order of Append calls is the
// order of the transcript.
func (s *Session) Append(role, content string, payload *results.Payload) Message {
	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Payload:   payload,
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return msg
}

// Replace swaps the whole transcript, preserving the given order. Used
// when loading stored history.
func (s *Session) Replace(msgs []Message) {
	s.mu.Lock()
	s.messages = append([]Message(nil), msgs...)
	s.mu.Unlock()
}

// Messages returns a copy of the transcript in order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Len returns the number of transcript entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Last returns the most recent entry and true, or false when empty.
func (s *Session) Last() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

// Clear empties the transcript.
func (s *Session) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}
