package api

import (
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"
)

// listSessionsHandler handles GET /sessions. An optional user_id query
// parameter filters to one user.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	sessions, err := s.store.List(c.QueryParam("user_id"))
	if err != nil {
		return mapStoreError(err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, SessionSummary{
			SessionID:    sess.SessionID,
			UserID:       sess.UserID,
			Title:        sess.Title,
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
			MessageCount: len(sess.Messages),
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

// getSessionHandler handles GET /sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		return mapStoreError(err)
	}

	messages := make([]SessionMessage, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		messages = append(messages, SessionMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, &SessionDetail{
		SessionID: sess.SessionID,
		UserID:    sess.UserID,
		Title:     sess.Title,
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
		Messages:  messages,
	})
}

// deleteSessionHandler handles DELETE /sessions/:id.
func (s *Server) deleteSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if err := s.orch.DeleteSession(sessionID); err != nil {
		return mapStoreError(err)
	}
	return c.JSON(http.StatusOK, &DeleteResponse{
		Status:    "deleted",
		SessionID: sessionID,
	})
}

// resumeSessionHandler handles POST /sessions/:id/resume: continue an
// existing persisted session with a new message under its stored user id.
func (s *Server) resumeSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if !s.orch.Ready() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Agent not initialized")
	}

	sess, err := s.store.Get(sessionID)
	if err != nil {
		return mapStoreError(err)
	}

	response, err := s.orch.Chat(c.Request().Context(), sess.UserID, sessionID, req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, &ChatResponse{
		Response:  response,
		UserID:    sess.UserID,
		SessionID: sessionID,
	})
}
