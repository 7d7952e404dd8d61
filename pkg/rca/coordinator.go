// Package rca fans a troubleshooting query out to every specialist
// agent in parallel and merges their reports into one document.
package rca

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/opsmaestro/maestro/pkg/agent"
	"github.com/opsmaestro/maestro/pkg/events"
)

// Runner runs one agent turn. Satisfied by *agent.Runner.
type Runner interface {
	Run(ctx context.Context, def *agent.Definition, sessionID, userText string, emit events.Emitter) (string, error)
}

// Specialist is one RCA branch: a platform-scoped agent definition and
// the runner that executes it. Each specialist carries its own runner
// because tool execution is scoped to the specialist's peer.
type Specialist struct {
	Peer       string
	Runner     Runner
	Definition *agent.Definition
}

// Coordinator runs all specialists concurrently and combines their
// findings. Specialist order is fixed at construction and determines
// report section order regardless of completion order.
type Coordinator struct {
	specialists []Specialist
	logger      *slog.Logger
}

// NewCoordinator creates a coordinator over the given specialists.
func NewCoordinator(specialists []Specialist) *Coordinator {
	return &Coordinator{
		specialists: specialists,
		logger:      slog.Default(),
	}
}

// Peers returns the specialist peer names in report order.
func (c *Coordinator) Peers() []string {
	names := make([]string, len(c.specialists))
	for i, s := range c.specialists {
		names[i] = s.Peer
	}
	return names
}

// Investigate runs every specialist against the query and returns the
// combined report. Each branch gets a derived session id so specialist
// histories never mix with the main conversation. A failing branch
// contributes an error line instead of failing the whole investigation;
// Investigate always waits for all branches.
func (c *Coordinator) Investigate(ctx context.Context, sessionID, query string, emit events.Emitter) string {
	if emit == nil {
		emit = events.Discard
	}
	// Specialists emit concurrently; serialize toward the single consumer.
	var emitMu sync.Mutex
	safeEmit := func(ev events.Event) {
		emitMu.Lock()
		defer emitMu.Unlock()
		emit(ev)
	}

	findings := make([]string, len(c.specialists))
	envelope := agent.RCAEnvelope(query)

	var wg sync.WaitGroup
	for i, sp := range c.specialists {
		wg.Add(1)
		go func() {
			defer wg.Done()
			branchSession := sessionID + "_" + sp.Peer
			report, err := sp.Runner.Run(ctx, sp.Definition, branchSession, envelope, safeEmit)
			if err != nil {
				c.logger.Warn("RCA branch failed",
					"peer", sp.Peer, "error", err)
				findings[i] = fmt.Sprintf("❌ Error during investigation: %s", err)
				return
			}
			findings[i] = report
		}()
	}
	wg.Wait()

	return c.combineReport(query, findings)
}

// combineReport renders the merged investigation document.
func (c *Coordinator) combineReport(query string, findings []string) string {
	names := c.Peers()

	var b strings.Builder
	b.WriteString("# 🔍 Parallel Root Cause Analysis Report\n\n")
	b.WriteString(fmt.Sprintf("**Issue**: %s\n\n", query))
	b.WriteString(fmt.Sprintf("**Platforms Investigated**: %s\n\n", strings.Join(names, ", ")))
	b.WriteString("---\n\n")

	for i, name := range names {
		b.WriteString(fmt.Sprintf("## 📊 %s Investigation\n\n", strings.ToUpper(name)))
		b.WriteString(findings[i])
		b.WriteString("\n\n---\n\n")
	}

	b.WriteString("## 📋 Combined Summary\n\n")
	b.WriteString("Review the findings above from each platform to identify the root cause.\n")
	b.WriteString("Cross-reference issues that appear in multiple platforms.")
	return b.String()
}
