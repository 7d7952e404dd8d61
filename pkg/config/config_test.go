package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "LLM_BASE_URL",
		"ORCHESTRATOR_MODEL", "ORCHESTRATOR_HOST", "ORCHESTRATOR_PORT",
		"ORCHESTRATOR_SESSIONS_DIR", "ORCHESTRATOR_TIMEOUT", "MCP_TOOL_TIMEOUT",
		"JENKINS_MCP_URL", "JENKINS_MCP_ENABLED", "JENKINS_MCP_KEYWORDS",
		"KUBERNETES_MCP_URL", "KUBERNETES_MCP_ENABLED",
		"GITHUB_MCP_URL", "GITHUB_MCP_ENABLED", "GITHUB_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", cfg.ModelName)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./sessions", cfg.SessionsDir)
	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, DefaultGeminiBaseURL, cfg.LLMBaseURL)
	assert.Equal(t, 30*time.Second, cfg.ToolCallTimeout)
	assert.Zero(t, cfg.RequestTimeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoad_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestLoad_GoogleAPIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "legacy-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-key", cfg.APIKey)
}

func TestLoad_BuiltinPeers(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Peers, 3)
	assert.Equal(t, "jenkins", cfg.Peers[0].Name)
	assert.Equal(t, "kubernetes", cfg.Peers[1].Name)
	assert.Equal(t, "github", cfg.Peers[2].Name)

	// Only jenkins is enabled by default.
	enabled := cfg.EnabledPeers()
	require.Len(t, enabled, 1)
	assert.Equal(t, "jenkins", enabled[0].Name)
	assert.Equal(t, "http://localhost:8000/sse", enabled[0].URL)
	assert.Equal(t, TransportSSE, enabled[0].Transport)
	assert.Contains(t, enabled[0].Keywords, "jenkinsfile")
}

func TestLoad_KubernetesPeer(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("KUBERNETES_MCP_ENABLED", "true")
	t.Setenv("KUBERNETES_MCP_URL", "http://localhost:8001/sse")

	cfg, err := Load()
	require.NoError(t, err)

	enabled := cfg.EnabledPeers()
	require.Len(t, enabled, 2)
	assert.Equal(t, "kubernetes", enabled[1].Name)
	assert.Contains(t, enabled[1].Keywords, "k8s")
}

func TestLoad_KubernetesEnabledWithoutURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("KUBERNETES_MCP_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	// Enabled flag without a URL leaves the peer disabled.
	for _, p := range cfg.EnabledPeers() {
		assert.NotEqual(t, "kubernetes", p.Name)
	}
}

func TestLoad_GitHubPeerRequiresToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GITHUB_MCP_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	for _, p := range cfg.EnabledPeers() {
		assert.NotEqual(t, "github", p.Name)
	}

	t.Setenv("GITHUB_TOKEN", "ghp_secret")
	cfg, err = Load()
	require.NoError(t, err)

	var github *PeerConfig
	for i := range cfg.Peers {
		if cfg.Peers[i].Name == "github" {
			github = &cfg.Peers[i]
		}
	}
	require.NotNil(t, github)
	assert.True(t, github.Enabled)
	assert.Equal(t, TransportStreamableHTTP, github.Transport)
	assert.Equal(t, "Bearer ghp_secret", github.Headers["Authorization"])
}

func TestLoad_KeywordOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("JENKINS_MCP_KEYWORDS", "Hudson, build farm ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"hudson", "build farm"}, cfg.Peers[0].Keywords)
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("ORCHESTRATOR_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Timeouts(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MCP_TOOL_TIMEOUT", "5")
	t.Setenv("ORCHESTRATOR_TIMEOUT", "120")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.ToolCallTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout)
}
