package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/growthmate/agent-server/internal/agent"
	"github.com/growthmate/agent-server/internal/config"
	"github.com/growthmate/agent-server/internal/integration"
	"github.com/growthmate/agent-server/internal/llm"
	"github.com/growthmate/agent-server/internal/logger"
	"github.com/growthmate/agent-server/internal/server"
	"github.com/growthmate/agent-server/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.L.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	llmClient := llm.NewClient(cfg.LLM)

	// The HTTP surface holds its own storage connection, separate from the
	// per-instance connections the supervisor's controllers acquire.
	db := storage.Open(cfg.Storage.Path)
	if _, err := db.Acquire(context.Background()); err != nil {
		// Non-fatal: chat still works, integration endpoints answer 500.
		logger.L.Warn("storage unavailable at startup", "error", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.L.Warn("storage close", "error", cerr)
		}
	}()

	supervisor := agent.NewSupervisor(*cfg, llmClient)
	handler := server.NewHandler(*cfg, integration.NewRegistry(db), supervisor)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler.Router(),
	}

	go func() {
		logger.L.Info("starting server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.L.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Warn("server shutdown", "error", err)
	}
	supervisor.CloseAll(shutdownCtx)
}
