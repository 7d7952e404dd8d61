// Package config loads orchestrator configuration from environment variables.
//
// All knobs are plain env vars with defaults; a .env file is loaded by the
// entry point before Load is called. Peer descriptors for the built-in MCP
// servers (jenkins, kubernetes, github) are assembled here, including the
// per-peer routing keyword lists consumed by the query router.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transport types for MCP peers.
const (
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// DefaultGeminiBaseURL is the OpenAI-compatible endpoint of the Gemini API.
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// ErrMissingAPIKey is returned by Load when no LLM credential is configured.
var ErrMissingAPIKey = errors.New("missing LLM API key")

// APIKeyInstructions is printed by the entry point when ErrMissingAPIKey
// aborts startup.
const APIKeyInstructions = `
╔══════════════════════════════════════════════════════════════════════════════╗
║                         🔑 GEMINI API KEY REQUIRED                           ║
╠══════════════════════════════════════════════════════════════════════════════╣
║                                                                              ║
║  To use the Orchestrator, you need a FREE Google AI API key.                 ║
║                                                                              ║
║  Get your API key in 30 seconds:                                             ║
║  1. Go to: https://aistudio.google.com/app/apikey                            ║
║  2. Click "Create API Key"                                                   ║
║  3. Copy the key                                                             ║
║                                                                              ║
║  Then set it using ONE of these methods:                                     ║
║                                                                              ║
║  Option 1 - Environment variable (temporary):                                ║
║    export GEMINI_API_KEY="your-api-key-here"                                 ║
║                                                                              ║
║  Option 2 - .env file (recommended):                                         ║
║    1. Copy .env.example to .env                                              ║
║    2. Add your key: GEMINI_API_KEY=your-api-key-here                         ║
║                                                                              ║
║  The API is FREE with generous limits (15 requests/minute for Gemini Flash)  ║
║                                                                              ║
╚══════════════════════════════════════════════════════════════════════════════╝
`

// PeerConfig describes a single MCP server peer.
// Immutable for the process lifetime once loaded.
type PeerConfig struct {
	// Name uniquely identifies the peer and prefixes its tool names.
	Name string

	// URL is the peer endpoint (e.g., http://localhost:8000/sse).
	URL string

	// Transport is one of TransportSSE or TransportStreamableHTTP.
	Transport string

	// Enabled gates whether the orchestrator connects to this peer.
	Enabled bool

	// Description is included in agent instructions and the /servers inventory.
	Description string

	// Headers are sent on every request to the peer (bearer auth etc.).
	Headers map[string]string

	// Keywords route queries to this peer. Whole-word matched, lower case.
	Keywords []string
}

// Config is the full orchestrator configuration.
type Config struct {
	ModelName   string
	Host        string
	Port        string
	SessionsDir string

	// APIKey authenticates against the LLM provider.
	APIKey string

	// LLMBaseURL is the OpenAI-compatible chat completions endpoint.
	LLMBaseURL string

	// ToolCallTimeout bounds a single MCP tool invocation.
	ToolCallTimeout time.Duration

	// RequestTimeout bounds a whole chat turn. Zero means unbounded.
	RequestTimeout time.Duration

	// Peers lists all configured MCP servers in registration order,
	// including disabled ones (surfaced by GET /servers).
	Peers []PeerConfig
}

// Built-in routing keyword lists. Overridable via <PEER>_MCP_KEYWORDS.
var defaultKeywords = map[string][]string{
	"jenkins":    {"jenkins", "pipeline", "build job", "jenkins job", "jenkinsfile", "ci/cd pipeline"},
	"kubernetes": {"kubernetes", "k8s", "pod", "deployment", "kubectl", "namespace", "container", "helm", "kube"},
	"github":     {"github", "repository", "pull request", "merge request", "git branch"},
}

// Load reads configuration from the environment.
// Returns ErrMissingAPIKey (wrapped) when no LLM credential is set.
func Load() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		// GOOGLE_API_KEY is the Google SDK convention; accept it too.
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("set GEMINI_API_KEY or GOOGLE_API_KEY: %w", ErrMissingAPIKey)
	}

	cfg := &Config{
		ModelName:       getEnv("ORCHESTRATOR_MODEL", "gemini-2.5-flash"),
		Host:            getEnv("ORCHESTRATOR_HOST", "0.0.0.0"),
		Port:            getEnv("ORCHESTRATOR_PORT", "8080"),
		SessionsDir:     getEnv("ORCHESTRATOR_SESSIONS_DIR", "./sessions"),
		APIKey:          apiKey,
		LLMBaseURL:      getEnv("LLM_BASE_URL", DefaultGeminiBaseURL),
		ToolCallTimeout: secondsEnv("MCP_TOOL_TIMEOUT", 30*time.Second),
		RequestTimeout:  secondsEnv("ORCHESTRATOR_TIMEOUT", 0),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid ORCHESTRATOR_PORT %q: %w", cfg.Port, err)
	}

	peers, err := loadPeers()
	if err != nil {
		return nil, err
	}
	cfg.Peers = peers

	return cfg, nil
}

// EnabledPeers returns the enabled peers in registration order.
func (c *Config) EnabledPeers() []PeerConfig {
	var enabled []PeerConfig
	for _, p := range c.Peers {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// loadPeers assembles the built-in peer descriptors from the environment.
// Registration order is fixed: jenkins, kubernetes, github.
func loadPeers() ([]PeerConfig, error) {
	peers := []PeerConfig{
		{
			Name:        "jenkins",
			URL:         getEnv("JENKINS_MCP_URL", "http://localhost:8000/sse"),
			Transport:   TransportSSE,
			Enabled:     boolEnv("JENKINS_MCP_ENABLED", true),
			Description: "Jenkins CI/CD server management - jobs, builds, nodes, plugins",
		},
		{
			Name:        "kubernetes",
			URL:         os.Getenv("KUBERNETES_MCP_URL"),
			Transport:   TransportSSE,
			Enabled:     boolEnv("KUBERNETES_MCP_ENABLED", false),
			Description: "Kubernetes cluster management - pods, deployments, services, configmaps, secrets, nodes, events, and more",
		},
		{
			Name:        "github",
			URL:         getEnv("GITHUB_MCP_URL", "https://api.githubcopilot.com/mcp/"),
			Transport:   TransportStreamableHTTP,
			Enabled:     boolEnv("GITHUB_MCP_ENABLED", false),
			Description: "GitHub operations - repositories, issues, pull requests, commits, branches, releases",
		},
	}

	// The GitHub peer requires a token; without one it stays disabled.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		peers[2].Headers = map[string]string{"Authorization": "Bearer " + token}
	} else {
		peers[2].Enabled = false
	}

	seen := make(map[string]bool, len(peers))
	for i := range peers {
		p := &peers[i]
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate MCP peer name %q", p.Name)
		}
		seen[p.Name] = true

		p.Keywords = keywordsEnv(p.Name)

		if !p.Enabled {
			continue
		}
		if p.URL == "" {
			// A peer enabled without a URL cannot be reached; treat as
			// disabled rather than failing startup.
			p.Enabled = false
			continue
		}
		if _, err := url.ParseRequestURI(p.URL); err != nil {
			return nil, fmt.Errorf("invalid URL for MCP peer %q: %w", p.Name, err)
		}
	}

	return peers, nil
}

// keywordsEnv returns the routing keywords for a peer, preferring the
// <PEER>_MCP_KEYWORDS env override (comma-separated) over the built-in list.
func keywordsEnv(peer string) []string {
	raw := os.Getenv(strings.ToUpper(peer) + "_MCP_KEYWORDS")
	if raw == "" {
		return defaultKeywords[peer]
	}
	var keywords []string
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func boolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.EqualFold(value, "true")
}

func secondsEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return defaultValue
	}
	return time.Duration(secs) * time.Second
}
