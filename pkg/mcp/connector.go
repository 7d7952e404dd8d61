// Package mcp provides MCP (Model Context Protocol) client infrastructure:
// per-peer connectors, the aggregated tool registry, and the tool executor
// backing agent runs.
package mcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/opsmaestro/maestro/pkg/config"
	"github.com/opsmaestro/maestro/pkg/version"
)

// Timeouts and retry backoff bounds for peer operations.
const (
	InitTimeout        = 30 * time.Second
	ReinitTimeout      = 30 * time.Second
	DefaultCallTimeout = 30 * time.Second

	RetryBackoffMin = 200 * time.Millisecond
	RetryBackoffMax = 1 * time.Second
)

// Connector manages the long-lived session to a single MCP peer.
// Thread-safe: invocations may arrive from multiple goroutines during a
// parallel RCA.
type Connector struct {
	peer        config.PeerConfig
	callTimeout time.Duration

	mu      sync.RWMutex
	client  *mcpsdk.Client
	session *mcpsdk.ClientSession

	// Serializes session (re)creation to prevent thundering herd.
	reinitMu sync.Mutex

	logger *slog.Logger
}

// NewConnector creates a connector for the given peer descriptor.
// callTimeout bounds each tool invocation; zero selects the default.
func NewConnector(peer config.PeerConfig, callTimeout time.Duration) *Connector {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Connector{
		peer:        peer,
		callTimeout: callTimeout,
		logger:      slog.Default(),
	}
}

// Peer returns the descriptor this connector was built from.
func (c *Connector) Peer() config.PeerConfig { return c.peer }

// Open performs the MCP handshake and returns the peer's advertised tools.
// Idempotent: an already-open connector just re-lists tools.
func (c *Connector) Open(ctx context.Context) ([]*mcpsdk.Tool, error) {
	c.reinitMu.Lock()
	err := c.connectLocked(ctx)
	c.reinitMu.Unlock()
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	opCtx, cancel := context.WithTimeout(ctx, InitTimeout)
	defer cancel()

	result, err := session.ListTools(opCtx, nil)
	if err != nil {
		return nil, &TransportError{Peer: c.peer.Name, Op: "list tools", Err: err}
	}
	tools := result.Tools
	if tools == nil {
		tools = []*mcpsdk.Tool{}
	}
	return tools, nil
}

// connectLocked establishes the session. Caller must hold reinitMu.
func (c *Connector) connectLocked(ctx context.Context) error {
	c.mu.RLock()
	if c.session != nil {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	transport, err := createTransport(c.peer)
	if err != nil {
		return err
	}

	initCtx, cancel := context.WithTimeout(ctx, InitTimeout)
	defer cancel()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    version.AppName,
		Version: version.GitCommit,
	}, nil)

	session, err := client.Connect(initCtx, transport, nil)
	if err != nil {
		// Close the transport if it implements io.Closer to avoid leaking
		// resources on failed handshakes.
		if closer, ok := transport.(io.Closer); ok {
			_ = closer.Close()
		}
		return &TransportError{Peer: c.peer.Name, Op: "connect", Err: err}
	}

	c.mu.Lock()
	c.client = client
	c.session = session
	c.mu.Unlock()

	c.logger.Info("MCP peer connected", "peer", c.peer.Name, "transport", c.peer.Transport)
	return nil
}

// Invoke executes a tool call on the peer.
// Transport failures get one retry after a jittered backoff, with the
// session re-established first. Tool-level failures come back inside the
// result (IsError) and are not retried.
func (c *Connector) Invoke(ctx context.Context, tool string, args map[string]any) (*mcpsdk.CallToolResult, error) {
	params := &mcpsdk.CallToolParams{
		Name:      tool,
		Arguments: args,
	}

	result, err := c.invokeOnce(ctx, params)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	c.logger.Info("MCP call failed, retrying with fresh session",
		"peer", c.peer.Name, "tool", tool, "error", err)

	backoff := RetryBackoffMin + time.Duration(rand.Int64N(int64(RetryBackoffMax-RetryBackoffMin)))
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := c.recreateSession(ctx); err != nil {
		return nil, fmt.Errorf("session recreation for %q: %w", c.peer.Name, err)
	}

	result, err = c.invokeOnce(ctx, params)
	if err != nil {
		return nil, &TransportError{Peer: c.peer.Name, Op: "call " + tool, Err: err}
	}
	return result, nil
}

// invokeOnce performs a single CallTool attempt with the per-call timeout.
func (c *Connector) invokeOnce(ctx context.Context, params *mcpsdk.CallToolParams) (*mcpsdk.CallToolResult, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()
	if session == nil {
		return nil, fmt.Errorf("no session for peer %q", c.peer.Name)
	}

	opCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	return session.CallTool(opCtx, params)
}

// recreateSession tears down and re-establishes the session.
func (c *Connector) recreateSession(ctx context.Context) error {
	c.reinitMu.Lock()
	defer c.reinitMu.Unlock()

	c.mu.Lock()
	if c.session != nil {
		_ = c.session.Close()
		c.session = nil
		c.client = nil
	}
	c.mu.Unlock()

	reinitCtx, cancel := context.WithTimeout(ctx, ReinitTimeout)
	defer cancel()

	return c.connectLocked(reinitCtx)
}

// Close shuts down the session. In-flight invocations are cancelled by the
// underlying stream closing.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	c.client = nil
	if err != nil {
		return fmt.Errorf("close session for %q: %w", c.peer.Name, err)
	}
	return nil
}
