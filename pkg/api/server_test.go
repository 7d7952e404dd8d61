package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmaestro/maestro/pkg/config"
	"github.com/opsmaestro/maestro/pkg/events"
	"github.com/opsmaestro/maestro/pkg/session"
)

// stubOrchestrator records chat calls and plays back a canned outcome.
type stubOrchestrator struct {
	ready      bool
	model      string
	connected  []string
	configured []config.PeerConfig
	store      *session.Store

	response string
	err      error
	events   []events.Event

	mu    sync.Mutex
	calls []chatCall
}

type chatCall struct {
	userID    string
	sessionID string
	message   string
}

func (o *stubOrchestrator) Ready() bool                          { return o.ready }
func (o *stubOrchestrator) Model() string                        { return o.model }
func (o *stubOrchestrator) ConnectedPeers() []string             { return o.connected }
func (o *stubOrchestrator) ConfiguredPeers() []config.PeerConfig { return o.configured }

func (o *stubOrchestrator) Chat(ctx context.Context, userID, sessionID, text string) (string, error) {
	return o.ChatStream(ctx, userID, sessionID, text, events.Discard)
}

func (o *stubOrchestrator) ChatStream(_ context.Context, userID, sessionID, text string, emit events.Emitter) (string, error) {
	o.mu.Lock()
	o.calls = append(o.calls, chatCall{userID: userID, sessionID: sessionID, message: text})
	o.mu.Unlock()
	for _, ev := range o.events {
		emit(ev)
	}
	return o.response, o.err
}

func (o *stubOrchestrator) DeleteSession(sessionID string) error {
	return o.store.Delete(sessionID)
}

func newTestServer(t *testing.T, orch *stubOrchestrator) *Server {
	t.Helper()
	store, err := session.NewStore(t.TempDir())
	require.NoError(t, err)
	orch.store = store
	return NewServer(orch, store)
}

func doJSON(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealthHandler(t *testing.T) {
	t.Run("before initialization", func(t *testing.T) {
		s := newTestServer(t, &stubOrchestrator{ready: false})
		rec := doJSON(s, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, &stubOrchestrator{
			ready:     true,
			model:     "gemini-2.5-flash",
			connected: []string{"jenkins", "kubernetes"},
		})
		rec := doJSON(s, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "gemini-2.5-flash", resp.Model)
		assert.Equal(t, []string{"jenkins", "kubernetes"}, resp.MCPServers)
	})
}

func TestListServersHandler(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{
		ready: true,
		configured: []config.PeerConfig{
			{Name: "jenkins", URL: "http://localhost:8000/sse", Transport: "sse", Enabled: true, Description: "CI"},
			{Name: "kubernetes", Transport: "sse", Enabled: false, Description: "Cluster"},
		},
	})
	rec := doJSON(s, http.MethodGet, "/servers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ServersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Servers, 2)
	assert.Equal(t, "jenkins", resp.Servers[0].Name)
	assert.True(t, resp.Servers[0].Enabled)
	assert.False(t, resp.Servers[1].Enabled)
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{ready: true})
	rec := doJSON(s, http.MethodGet, "/health", "")

	h := rec.Header()
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "*", h.Get("Access-Control-Allow-Origin"))
}

func TestIndexHandler(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{ready: true})
	rec := doJSON(s, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<title>Maestro</title>")
}
