// Maestro orchestrator server — connects to MCP peers, routes chat turns
// through the agent runtime, and serves the HTTP/SSE API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/opsmaestro/maestro/pkg/api"
	"github.com/opsmaestro/maestro/pkg/config"
	"github.com/opsmaestro/maestro/pkg/llm"
	"github.com/opsmaestro/maestro/pkg/orchestrator"
	"github.com/opsmaestro/maestro/pkg/session"
	"github.com/opsmaestro/maestro/pkg/version"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("Could not load .env file, continuing with existing environment",
			"error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprint(os.Stderr, config.APIKeyInstructions)
			os.Exit(1)
		}
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting maestro",
		"version", version.Full(),
		"model", cfg.ModelName,
		"addr", cfg.Addr())

	store, err := session.NewStore(cfg.SessionsDir)
	if err != nil {
		slog.Error("Failed to open session store", "dir", cfg.SessionsDir, "error", err)
		os.Exit(1)
	}

	llmClient, err := llm.NewOpenAIFromAPIKey(cfg.APIKey, cfg.LLMBaseURL, cfg.ModelName)
	if err != nil {
		slog.Error("Failed to create LLM client", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	orch := orchestrator.New(cfg, llmClient, store)
	if err := orch.Initialize(ctx); err != nil {
		slog.Error("Failed to initialize orchestrator", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := orch.Close(); err != nil {
			slog.Error("Error closing peer connections", "error", err)
		}
	}()

	server := api.NewServer(orch, store)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", cfg.Addr())
		if err := server.Start(cfg.Addr()); err != nil {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("Shutdown signal received", "signal", sig)
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	slog.Info("Shutdown complete")
}
