package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"draftsmith/internal/config"
	"draftsmith/internal/database"
	"draftsmith/internal/domain/services"
	"draftsmith/internal/handler"
	"draftsmith/internal/middleware"
	"draftsmith/internal/repository/postgres"
	attachmentSvc "draftsmith/internal/service/attachment"
	"draftsmith/internal/service/completeness"
	"draftsmith/internal/service/detect"
	draftSvc "draftsmith/internal/service/draft"
	"draftsmith/internal/service/generation"
	"draftsmith/internal/service/generation/providers/anthropic"
	"draftsmith/internal/service/generation/providers/lorem"
	rewriteSvc "draftsmith/internal/service/rewrite"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if err := database.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database ready", "table_prefix", cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	convRepo := postgres.NewConversationRepository(repoConfig)
	attachmentRepo := postgres.NewAttachmentRepository(repoConfig)
	draftRepo := postgres.NewDraftRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Completeness validation
	languageRegistry, err := completeness.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load language registry: %v", err)
	}
	threshold := cfg.CompletenessThreshold
	if threshold <= 0 {
		threshold = completeness.DefaultThreshold
	}
	validator := completeness.NewValidator(languageRegistry, threshold)

	// Generation backends
	var clients []services.GenerationClient
	if cfg.AnthropicAPIKey != "" {
		adapter, err := anthropic.NewAdapter(cfg.AnthropicAPIKey)
		if err != nil {
			log.Fatalf("Failed to create anthropic client: %v", err)
		}
		clients = append(clients, adapter)
		logger.Info("anthropic backend registered")
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, anthropic backend disabled")
	}
	clients = append(clients, lorem.NewProvider())
	clientRegistry := generation.NewClientRegistry(clients...)

	// Services
	draftService := draftSvc.NewService(draftRepo, attachmentRepo, convRepo, txManager, validator, logger)
	attachmentService := attachmentSvc.NewService(attachmentRepo, convRepo, logger)

	executorRegistry := rewriteSvc.NewExecutorRegistry(time.Minute, 10*time.Minute)
	go executorRegistry.StartCleanup(ctx)

	rewriteService := rewriteSvc.NewService(
		convRepo,
		attachmentRepo,
		clientRegistry,
		draftService,
		detect.NewDetector(),
		detect.NewLenientMatcher(),
		executorRegistry,
		rewriteSvc.Config{
			DefaultModel: cfg.DefaultModel,
			Assembler: generation.AssemblerConfig{
				MaxSegments:    cfg.MaxSegments,
				MaxTotalLength: cfg.MaxTotalLength,
			},
		},
		logger,
	)

	logger.Info("services initialized")

	// Handlers
	conversationHandler := handler.NewConversationHandler(convRepo, attachmentRepo, draftRepo, txManager, logger)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, logger)
	draftHandler := handler.NewDraftHandler(draftService, logger)
	rewriteHandler := handler.NewRewriteHandler(rewriteService, executorRegistry, logger)

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Conversation routes
	mux.HandleFunc("POST /api/conversations", conversationHandler.Create)
	mux.HandleFunc("GET /api/conversations", conversationHandler.List)
	mux.HandleFunc("GET /api/conversations/{id}", conversationHandler.Get)
	mux.HandleFunc("DELETE /api/conversations/{id}", conversationHandler.Delete)

	// Attachment routes
	mux.HandleFunc("POST /api/conversations/{id}/attachments", attachmentHandler.Upload)
	mux.HandleFunc("GET /api/conversations/{id}/attachments", attachmentHandler.ListChains)
	mux.HandleFunc("GET /api/conversations/{id}/files/{filename...}", attachmentHandler.GetCurrent)
	mux.HandleFunc("GET /api/attachments/{id}", attachmentHandler.Get)

	// Draft routes
	mux.HandleFunc("GET /api/drafts", draftHandler.List)
	mux.HandleFunc("GET /api/drafts/pending", draftHandler.ListPending) // Must come before {id} route
	mux.HandleFunc("GET /api/drafts/{id}", draftHandler.Get)
	mux.HandleFunc("POST /api/drafts/{id}/approve", draftHandler.Approve)
	mux.HandleFunc("POST /api/drafts/{id}/reject", draftHandler.Reject)
	mux.HandleFunc("POST /api/drafts/{id}/promote", draftHandler.Promote)

	// Rewrite routes
	mux.HandleFunc("POST /api/conversations/{id}/rewrites", rewriteHandler.Start)
	mux.HandleFunc("GET /api/rewrites/{id}/stream", rewriteHandler.Stream) // SSE streaming endpoint
	mux.HandleFunc("POST /api/rewrites/{id}/cancel", rewriteHandler.Cancel)

	// Build middleware chain
	var root http.Handler = mux
	root = middleware.Recovery(logger)(root)

	// CORS - must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
