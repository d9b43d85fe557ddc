package chat

import "sync"

type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

type Message struct {
	Role  Role
	Text  string
	Index int
}

// Session is the append-only transcript of one chat panel.
type Session struct {
	mu       sync.RWMutex
	messages []Message
}

func NewSession() *Session {
	return &Session{}
}

// Append adds a message at the end and returns it with its index filled in.
func (s *Session) Append(role Role, text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := Message{Role: role, Text: text, Index: len(s.messages)}
	s.messages = append(s.messages, msg)
	return msg
}

func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Message(nil), s.messages...)
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
