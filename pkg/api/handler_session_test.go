package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsmaestro/maestro/pkg/session"
)

func seedSession(t *testing.T, s *Server, userID, sessionID string, turns ...string) {
	t.Helper()
	role := session.RoleUser
	for _, content := range turns {
		_, err := s.store.AddMessage(userID, sessionID, role, content)
		require.NoError(t, err)
		if role == session.RoleUser {
			role = session.RoleAssistant
		} else {
			role = session.RoleUser
		}
	}
}

func TestListSessionsHandler(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{ready: true})
	seedSession(t, s, "alice", "s1", "question", "answer")
	seedSession(t, s, "bob", "s2", "other")

	t.Run("all sessions", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/sessions", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var summaries []SessionSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
		assert.Len(t, summaries, 2)
	})

	t.Run("filtered by user", func(t *testing.T) {
		rec := doJSON(s, http.MethodGet, "/sessions?user_id=alice", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var summaries []SessionSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
		require.Len(t, summaries, 1)
		assert.Equal(t, "s1", summaries[0].SessionID)
		assert.Equal(t, "question", summaries[0].Title)
		assert.Equal(t, 2, summaries[0].MessageCount)
	})
}

func TestGetSessionHandler(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{ready: true})
	seedSession(t, s, "alice", "s1", "question", "answer")

	rec := doJSON(s, http.MethodGet, "/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var detail SessionDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, "alice", detail.UserID)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, session.RoleUser, detail.Messages[0].Role)
	assert.Equal(t, "answer", detail.Messages[1].Content)

	rec = doJSON(s, http.MethodGet, "/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSessionHandler(t *testing.T) {
	s := newTestServer(t, &stubOrchestrator{ready: true})
	seedSession(t, s, "alice", "s1", "question")

	rec := doJSON(s, http.MethodDelete, "/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DeleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "deleted", resp.Status)
	assert.Equal(t, "s1", resp.SessionID)

	// Second delete is a 404, not an error cascade.
	rec = doJSON(s, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResumeSessionHandler(t *testing.T) {
	t.Run("resumes under the stored user id", func(t *testing.T) {
		orch := &stubOrchestrator{ready: true, response: "resumed answer"}
		s := newTestServer(t, orch)
		seedSession(t, s, "alice", "s1", "original question")

		rec := doJSON(s, http.MethodPost, "/sessions/s1/resume", `{"message":"follow up"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "resumed answer", resp.Response)
		assert.Equal(t, "alice", resp.UserID)
		assert.Equal(t, "s1", resp.SessionID)

		require.Len(t, orch.calls, 1)
		assert.Equal(t, "alice", orch.calls[0].userID)
		assert.Equal(t, "s1", orch.calls[0].sessionID)
	})

	t.Run("unknown session", func(t *testing.T) {
		orch := &stubOrchestrator{ready: true}
		s := newTestServer(t, orch)

		rec := doJSON(s, http.MethodPost, "/sessions/nope/resume", `{"message":"hi"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, orch.calls)
	})

	t.Run("empty message", func(t *testing.T) {
		s := newTestServer(t, &stubOrchestrator{ready: true})
		seedSession(t, s, "alice", "s1", "question")

		rec := doJSON(s, http.MethodPost, "/sessions/s1/resume", `{"message":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
