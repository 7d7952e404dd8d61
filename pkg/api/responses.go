package api

import "time"

// ChatResponse is returned by POST /chat and POST /sessions/:id/resume.
type ChatResponse struct {
	Response  string `json:"response"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string   `json:"status"`
	Model      string   `json:"model"`
	MCPServers []string `json:"mcp_servers"`
}

// ServerInfo describes one configured MCP peer.
type ServerInfo struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Transport   string `json:"transport"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// ServersResponse is returned by GET /servers.
type ServersResponse struct {
	Servers []ServerInfo `json:"servers"`
}

// SessionSummary is one element of the GET /sessions listing.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// SessionMessage is one message of a session detail.
type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionDetail is returned by GET /sessions/:id.
type SessionDetail struct {
	SessionID string           `json:"session_id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Messages  []SessionMessage `json:"messages"`
}

// DeleteResponse is returned by DELETE /sessions/:id.
type DeleteResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}
