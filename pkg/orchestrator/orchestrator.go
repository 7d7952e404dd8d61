// Package orchestrator wires the whole system: peer connectors, the tool
// registry, the main and specialist agents, the query router, and the
// parallel RCA coordinator. The HTTP layer talks only to this package.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/opsmaestro/maestro/pkg/agent"
	"github.com/opsmaestro/maestro/pkg/config"
	"github.com/opsmaestro/maestro/pkg/events"
	"github.com/opsmaestro/maestro/pkg/llm"
	"github.com/opsmaestro/maestro/pkg/mcp"
	"github.com/opsmaestro/maestro/pkg/rca"
	"github.com/opsmaestro/maestro/pkg/router"
	"github.com/opsmaestro/maestro/pkg/session"
)

// ErrNotReady is returned by chat operations before Initialize succeeds.
var ErrNotReady = errors.New("agent not initialized")

// Orchestrator owns all runtime state for the agent system.
type Orchestrator struct {
	cfg    *config.Config
	llm    llm.Client
	store  *session.Store
	logger *slog.Logger

	mu          sync.RWMutex
	ready       bool
	connectors  []*mcp.Connector
	connected   []config.PeerConfig
	registry    *mcp.Registry
	router      *router.Router
	memory      *agent.Memory
	mainRunner  *agent.Runner
	mainDef     *agent.Definition
	coordinator *rca.Coordinator
}

// New creates an orchestrator. Call Initialize before serving traffic.
func New(cfg *config.Config, client llm.Client, store *session.Store) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		llm:    client,
		store:  store,
		logger: slog.Default(),
	}
}

// Initialize connects to every enabled peer and assembles the agents.
// A peer that fails its handshake is logged and skipped; the orchestrator
// comes up with whatever peers answered. Only configuration-level problems
// are fatal.
func (o *Orchestrator) Initialize(ctx context.Context) error {
	registry := mcp.NewRegistry()
	memory := agent.NewMemory()

	var connectors []*mcp.Connector
	var connected []config.PeerConfig
	for _, peer := range o.cfg.EnabledPeers() {
		conn := mcp.NewConnector(peer, o.cfg.ToolCallTimeout)
		tools, err := conn.Open(ctx)
		if err != nil {
			o.logger.Warn("Failed to connect to MCP peer, continuing without it",
				"peer", peer.Name, "error", err)
			_ = conn.Close()
			continue
		}
		registry.Register(peer.Name, conn, tools)
		connectors = append(connectors, conn)
		connected = append(connected, peer)
		o.logger.Info("Registered MCP peer",
			"peer", peer.Name, "tools", len(tools))
	}

	peerInfos := make([]agent.PeerInfo, 0, len(connected))
	platforms := make([]router.Platform, 0, len(connected))
	for _, peer := range connected {
		peerInfos = append(peerInfos, agent.PeerInfo{Name: peer.Name, Description: peer.Description})
		platforms = append(platforms, router.Platform{Name: peer.Name, Keywords: peer.Keywords})
	}

	mainExecutor := mcp.NewExecutor(registry, nil)
	mainDef := &agent.Definition{
		Name:        "orchestrator",
		Model:       o.cfg.ModelName,
		Description: "Main orchestrator agent with access to all MCP peers",
		Instruction: agent.BuildMainInstruction(peerInfos),
		Tools:       mainExecutor.Tools(),
	}

	specialists := make([]rca.Specialist, 0, len(connected))
	for _, peer := range connected {
		executor := mcp.NewExecutor(registry, []string{peer.Name})
		specialists = append(specialists, rca.Specialist{
			Peer:   peer.Name,
			Runner: agent.NewRunner(o.llm, executor, memory),
			Definition: &agent.Definition{
				Name:        peer.Name + "_specialist",
				Model:       o.cfg.ModelName,
				Description: peer.Description,
				Instruction: agent.BuildSpecialistInstruction(agent.PeerInfo{Name: peer.Name, Description: peer.Description}),
				Tools:       executor.Tools(),
			},
		})
	}

	o.mu.Lock()
	o.connectors = connectors
	o.connected = connected
	o.registry = registry
	o.memory = memory
	o.mainRunner = agent.NewRunner(o.llm, mainExecutor, memory)
	o.mainDef = mainDef
	o.router = router.New(platforms)
	o.coordinator = rca.NewCoordinator(specialists)
	o.ready = true
	o.mu.Unlock()

	o.logger.Info("Orchestrator initialized",
		"model", o.cfg.ModelName, "peers", len(connected))
	return nil
}

// Ready reports whether Initialize has completed.
func (o *Orchestrator) Ready() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.ready
}

// Model returns the configured model name.
func (o *Orchestrator) Model() string { return o.cfg.ModelName }

// ConnectedPeers returns the names of peers that answered the handshake.
func (o *Orchestrator) ConnectedPeers() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, len(o.connected))
	for i, p := range o.connected {
		names[i] = p.Name
	}
	return names
}

// ConfiguredPeers returns every configured peer descriptor, including
// disabled and unreachable ones.
func (o *Orchestrator) ConfiguredPeers() []config.PeerConfig {
	return append([]config.PeerConfig(nil), o.cfg.Peers...)
}

// Chat runs one synchronous turn and returns the final text.
func (o *Orchestrator) Chat(ctx context.Context, userID, sessionID, text string) (string, error) {
	return o.ChatStream(ctx, userID, sessionID, text, events.Discard)
}

// ChatStream runs one turn, surfacing events through emit as they happen,
// and returns the final text.
//
// The user message is persisted before the turn runs. On success the
// assistant text is persisted and a Final event emitted. A model failure
// persists the error text as the assistant message for the turn; a
// cancelled context persists nothing further.
func (o *Orchestrator) ChatStream(ctx context.Context, userID, sessionID, text string, emit events.Emitter) (string, error) {
	o.mu.RLock()
	ready := o.ready
	mainRunner, mainDef := o.mainRunner, o.mainDef
	rt, coordinator, memory := o.router, o.coordinator, o.memory
	o.mu.RUnlock()
	if !ready {
		return "", ErrNotReady
	}
	if emit == nil {
		emit = events.Discard
	}

	if o.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
		defer cancel()
	}

	if err := o.seedMemory(memory, sessionID); err != nil {
		emit(events.Error{Message: err.Error()})
		emit(events.Final{})
		return "", err
	}
	if _, err := o.store.AddMessage(userID, sessionID, session.RoleUser, text); err != nil {
		err = fmt.Errorf("persist user message: %w", err)
		emit(events.Error{Message: err.Error()})
		emit(events.Final{})
		return "", err
	}

	decision := rt.Classify(text)

	var final string
	var err error
	switch {
	case decision.Platform != "":
		emit(events.Status{Text: fmt.Sprintf("🎯 Platform-specific query: %s", decision.Platform)})
		final, err = mainRunner.Run(ctx, mainDef, sessionID, text, emit)

	case decision.Route == router.RouteParallelRCA:
		emit(events.Status{Text: fmt.Sprintf("🔄 Using PARALLEL RCA across %d platforms...", len(coordinator.Peers()))})
		report := coordinator.Investigate(ctx, sessionID, text, emit)
		if ctx.Err() != nil {
			err = ctx.Err()
			break
		}
		final = report
		emit(events.Text{Chunk: final})
		// The coordinator writes only branch sessions; mirror the main
		// conversation into runtime memory here.
		memory.Append(sessionID, llm.RoleUser, text)
		memory.Append(sessionID, llm.RoleAssistant, final)

	default:
		emit(events.Status{Text: "💬 Processing with main agent..."})
		final, err = mainRunner.Run(ctx, mainDef, sessionID, text, emit)
	}

	if err != nil {
		if ctx.Err() != nil {
			// Cancelled or timed out: nothing further is appended to the
			// session, but the stream still ends with a terminal complete
			// frame after the error.
			reason := "cancelled"
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = "timeout"
			}
			emit(events.Error{Message: reason})
			emit(events.Final{})
			return "", ctx.Err()
		}
		o.logger.Error("Agent turn failed",
			"session", sessionID, "error", err)
		errText := fmt.Sprintf("Error during agent execution: %s", err)
		if _, perr := o.store.AddMessage(userID, sessionID, session.RoleAssistant, errText); perr != nil {
			o.logger.Error("Failed to persist error message",
				"session", sessionID, "error", perr)
		}
		emit(events.Error{Message: err.Error()})
		emit(events.Final{})
		return "", err
	}

	if _, err := o.store.AddMessage(userID, sessionID, session.RoleAssistant, final); err != nil {
		err = fmt.Errorf("persist assistant message: %w", err)
		emit(events.Error{Message: err.Error()})
		emit(events.Final{})
		return "", err
	}
	emit(events.Final{})
	return final, nil
}

// DeleteSession removes a session from the store and runtime memory.
func (o *Orchestrator) DeleteSession(sessionID string) error {
	o.mu.RLock()
	memory := o.memory
	o.mu.RUnlock()
	if memory != nil {
		memory.Forget(sessionID)
	}
	return o.store.Delete(sessionID)
}

// seedMemory lazily rebuilds runtime memory from the persistent store when
// a session id is first referenced after a restart.
func (o *Orchestrator) seedMemory(memory *agent.Memory, sessionID string) error {
	if memory.Has(sessionID) {
		return nil
	}
	sess, err := o.store.Get(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed session %s: %w", sessionID, err)
	}

	msgs := make([]llm.Message, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		switch m.Role {
		case session.RoleUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case session.RoleAssistant:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	memory.Seed(sessionID, msgs)
	return nil
}

// Close shuts down all peer connectors.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	connectors := o.connectors
	o.connectors = nil
	o.ready = false
	o.mu.Unlock()

	var errs []error
	for _, conn := range connectors {
		if err := conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
