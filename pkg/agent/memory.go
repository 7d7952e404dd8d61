package agent

import (
	"sync"

	"github.com/opsmaestro/maestro/pkg/llm"
)

// Memory is the runtime's per-session conversation cache, keyed by session
// id. It holds only user/assistant text turns; tool threading within a turn
// is ephemeral. The persistent store remains the source of truth — Memory is
// a derived cache re-seeded from it on resume.
type Memory struct {
	mu       sync.Mutex
	sessions map[string][]llm.Message
}

// NewMemory creates an empty runtime memory.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]llm.Message)}
}

// Has reports whether the session is already seeded.
func (m *Memory) Has(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// Seed replaces the session history. Used when resuming a persisted session
// after a restart.
func (m *Memory) Seed(sessionID string, messages []llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append([]llm.Message(nil), messages...)
}

// Append adds one turn to the session history, creating the session if
// needed.
func (m *Memory) Append(sessionID string, role llm.Role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = append(m.sessions[sessionID], llm.Message{Role: role, Content: content})
}

// History returns a copy of the session's message history.
func (m *Memory) History(sessionID string) []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Message(nil), m.sessions[sessionID]...)
}

// Forget drops a session from memory. Called on session delete.
func (m *Memory) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
