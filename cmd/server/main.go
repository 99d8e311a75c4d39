package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"loom/internal/auth"
	"loom/internal/config"
	chatRepo "loom/internal/domain/repositories/chat"
	"loom/internal/handler"
	"loom/internal/handler/sse"
	"loom/internal/middleware"
	"loom/internal/prompts"
	"loom/internal/repository/postgres"
	postgresChat "loom/internal/repository/postgres/chat"
	chatSvc "loom/internal/service/chat"
	"loom/internal/service/chat/compose"
	"loom/internal/service/chat/conversation"
	"loom/internal/service/chat/streaming"
	"loom/internal/service/chat/thought"
)

const (
	turnCleanupInterval = time.Minute
	turnRetention       = 10 * time.Minute
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, "server", cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"api_family", cfg.APIFamily,
		"default_model", cfg.DefaultModel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prompt catalog
	promptRegistry, err := prompts.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load prompt catalog: %v", err)
	}
	if cfg.PromptsFile != "" {
		if err := promptRegistry.LoadOverride(cfg.PromptsFile); err != nil {
			log.Fatalf("Failed to load prompt overrides: %v", err)
		}
		logger.Info("prompt overrides loaded", "path", cfg.PromptsFile)
	}

	// Conversation storage
	var nodes chatRepo.NodeRepository
	if cfg.DatabaseURL != "" {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		}
		if err := postgres.NewMigrator(repoConfig).Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate schema: %v", err)
		}
		nodes = postgresChat.NewNodeRepository(repoConfig)
		logger.Info("database connected", "max_conns", 25, "min_conns", 5)
	} else {
		nodes = conversation.NewTree()
		logger.Warn("DATABASE_URL not set, conversations are kept in memory")
	}

	// Services
	requestConfig := chatSvc.RequestConfig{
		DefaultModel:     cfg.DefaultModel,
		APIFamily:        cfg.APIFamily,
		StreamingEnabled: cfg.StreamingEnabled,
	}
	conversationService := conversation.NewService(nodes, logger)
	requestService := chatSvc.NewRequestService(
		compose.NewComposer(logger),
		conversationService,
		promptRegistry,
		requestConfig,
		logger,
	)

	executors := streaming.NewExecutorRegistry(turnCleanupInterval, turnRetention)
	go executors.StartCleanup(ctx)
	streamingService := streaming.NewService(
		executors,
		mstream.NewRegistry(),
		thought.NewMerger(cfg.ThoughtOverlapWindow),
		logger,
		cfg.Debug,
	)

	logger.Info("services initialized")

	// Handlers and routes (Go 1.22+ enhanced patterns)
	chatHandler := handler.NewChatHandler(requestService, conversationService, requestConfig, logger)
	turnHandler := handler.NewTurnHandler(streamingService, sse.DefaultConfig(), logger)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, chatHandler, turnHandler)

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	if cfg.JWKSURL != "" {
		jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.JWKSURL, "authenticated", logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		h = middleware.AuthMiddleware(jwtVerifier, logger)(h)
	} else {
		logger.Warn("JWKS_URL not set, /api routes are unauthenticated")
	}
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOriginList(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
