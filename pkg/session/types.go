// Package session persists chat sessions as JSON files on disk.
// One file per session; a write-through in-memory cache fronts the
// directory so restarts recover every session transparently.
package session

import "time"

// Message roles as stored on disk.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversational turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the persisted unit of conversation state.
type Session struct {
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	AppName   string         `json:"app_name"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Messages  []Message      `json:"messages"`
	Metadata  map[string]any `json:"metadata"`
}

// Clone returns a deep copy so callers can't mutate cached state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	if s.Metadata != nil {
		out.Metadata = make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
