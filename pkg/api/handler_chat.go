package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"

	"github.com/opsmaestro/maestro/pkg/events"
	"github.com/opsmaestro/maestro/pkg/session"
)

// newID returns a prefixed short id, e.g. "user_3f2a9c1b".
func newID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// bindChatRequest binds and validates the shared chat request body,
// filling in generated ids where the client sent none.
func (s *Server) bindChatRequest(c *echo.Context) (*ChatRequest, error) {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if !s.orch.Ready() {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Agent not initialized")
	}
	if req.UserID == "" {
		req.UserID = newID("user")
	}
	if req.SessionID == "" {
		req.SessionID = newID("session")
	}
	return &req, nil
}

// chatHandler handles POST /chat.
func (s *Server) chatHandler(c *echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	response, err := s.orch.Chat(c.Request().Context(), req.UserID, req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if errors.Is(err, session.ErrNotFound) {
			return mapStoreError(err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, &ChatResponse{
		Response:  response,
		UserID:    req.UserID,
		SessionID: req.SessionID,
	})
}

// chatStreamHandler handles POST /chat/stream with server-sent events.
// Each frame is "data: <json>\n\n"; the stream ends with a complete frame
// on success or an error frame on failure.
func (s *Server) chatStreamHandler(c *echo.Context) error {
	req, err := s.bindChatRequest(c)
	if err != nil {
		return err
	}

	h := c.Response().Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	rc := http.NewResponseController(c.Response())

	// The RCA coordinator emits from several goroutines; serialize writes.
	var mu sync.Mutex
	writeFrame := func(frame any) {
		payload, err := json.Marshal(frame)
		if err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(c.Response(), "data: %s\n\n", payload)
		_ = rc.Flush()
	}

	writeFrame(events.StatusFrame{Type: "status", Message: "🔄 Processing your request..."})

	bridge := events.NewBridge(req.UserID, req.SessionID)
	_, _ = s.orch.ChatStream(c.Request().Context(), req.UserID, req.SessionID, req.Message,
		func(ev events.Event) {
			if frame := bridge.Translate(ev); frame != nil {
				writeFrame(frame)
			}
		})
	// Errors were already surfaced on the stream as error frames.
	return nil
}
