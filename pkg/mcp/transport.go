package mcp

import (
	"fmt"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opsmaestro/maestro/pkg/config"
)

// createTransport creates an MCP SDK transport from a peer descriptor.
func createTransport(peer config.PeerConfig) (mcpsdk.Transport, error) {
	if peer.URL == "" {
		return nil, fmt.Errorf("peer %q requires a url", peer.Name)
	}
	switch peer.Transport {
	case config.TransportSSE:
		return &mcpsdk.SSEClientTransport{
			Endpoint:   peer.URL,
			HTTPClient: buildHTTPClient(peer),
		}, nil
	case config.TransportStreamableHTTP, "http":
		return &mcpsdk.StreamableClientTransport{
			Endpoint:   peer.URL,
			HTTPClient: buildHTTPClient(peer),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported transport type %q for peer %q", peer.Transport, peer.Name)
	}
}

// buildHTTPClient returns an http.Client carrying the peer's auth headers,
// or nil when no headers are configured (the SDK then uses its default).
func buildHTTPClient(peer config.PeerConfig) *http.Client {
	if len(peer.Headers) == 0 {
		return nil
	}
	return &http.Client{
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			headers: peer.Headers,
		},
	}
}

// headerTransport wraps an http.RoundTripper to add static headers
// (e.g., Authorization: Bearer <token>) to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}
