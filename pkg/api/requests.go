package api

// ChatRequest is the HTTP request body for POST /chat, POST /chat/stream
// and POST /sessions/:id/resume (which ignores the id fields).
type ChatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}
