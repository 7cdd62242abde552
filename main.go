package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dashlytics/insight-engine/pkg/auth"
	"github.com/dashlytics/insight-engine/pkg/config"
	"github.com/dashlytics/insight-engine/pkg/handlers"
	"github.com/dashlytics/insight-engine/pkg/llm"
	"github.com/dashlytics/insight-engine/pkg/logging"
	enginemcp "github.com/dashlytics/insight-engine/pkg/mcp"
	"github.com/dashlytics/insight-engine/pkg/mcp/tools"
	"github.com/dashlytics/insight-engine/pkg/middleware"
	"github.com/dashlytics/insight-engine/pkg/repositories"
	"github.com/dashlytics/insight-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// maxSessions bounds the in-memory session store. The oldest idle session
// is evicted when a new one would exceed it.
const maxSessions = 1000

// shutdownTimeout bounds the drain of in-flight requests on SIGINT/SIGTERM.
const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Addr()),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("mcp", cfg.MCP.Enabled))

	// The AI provider is optional. With none configured the gateway reports
	// unavailable and every question is answered by the local pipeline.
	var client llm.ChatClient
	if c, err := llm.NewChatClient(&cfg.AI, logger); err != nil {
		logger.Info("AI delegation disabled", zap.Error(err))
	} else {
		client = c
	}
	gateway := services.NewAIGateway(client, time.Duration(cfg.AI.TimeoutSeconds)*time.Second, logger)

	sessions := repositories.NewSessionRepository(maxSessions)
	schemaService := services.NewSchemaService(logger)
	chatService := services.NewChatService(sessions, schemaService, gateway, logger)

	cookies := auth.NewCookieStore(cfg.Session, cfg.Env != "local")

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSessionHandler(chatService, cookies, logger).RegisterRoutes(mux)
	handlers.NewDatasetHandler(chatService, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(chatService, logger).RegisterRoutes(mux)

	// Expose the same analysis pipeline to agent clients over MCP.
	if cfg.MCP.Enabled {
		mcpServer := enginemcp.NewServer("insight-engine", cfg.Version, logger)
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
		tools.RegisterDataTools(mcpServer.MCP(), &tools.DataToolDeps{
			Schema: schemaService,
			Logger: logger,
		})
		mcpHTTP := middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer())
		mux.Handle("/mcp", mcpHTTP)
		logger.Info("MCP tool server mounted", zap.String("path", "/mcp"))
	}

	var handler http.Handler = mux
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
		handler = limiter.Middleware(handler)
	}
	handler = middleware.RequestLogger(logger)(handler)

	srv := &http.Server{Addr: cfg.Addr(), Handler: handler}

	go func() {
		logger.Info("Starting insight-engine",
			zap.String("addr", cfg.Addr()),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown did not complete cleanly", zap.Error(err))
	}
}
