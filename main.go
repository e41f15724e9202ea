package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/qualitrack/qualitrack-engine/pkg/auth"
	"github.com/qualitrack/qualitrack-engine/pkg/config"
	"github.com/qualitrack/qualitrack-engine/pkg/database"
	"github.com/qualitrack/qualitrack-engine/pkg/handlers"
	"github.com/qualitrack/qualitrack-engine/pkg/llm"
	"github.com/qualitrack/qualitrack-engine/pkg/logging"
	"github.com/qualitrack/qualitrack-engine/pkg/middleware"
	"github.com/qualitrack/qualitrack-engine/pkg/ml"
	"github.com/qualitrack/qualitrack-engine/pkg/repositories"
	"github.com/qualitrack/qualitrack-engine/pkg/services"
	"github.com/qualitrack/qualitrack-engine/pkg/sqlguard"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("port", cfg.Port),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("llm_model", cfg.LLM.Model))

	ctx := context.Background()

	// Migrations run over database/sql; the pool below is pgx-native.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Long-lived shared chat client; one instance serves all requests.
	chatClient, err := llm.NewClient(&llm.Config{
		Endpoint: cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	// The regression artifact is optional: missing or unreadable means
	// linear-only estimates, loaded once, never retried per request.
	var timelineModel *ml.Model
	if cfg.Timeline.ModelPath != "" {
		timelineModel, err = ml.Load(cfg.Timeline.ModelPath)
		if err != nil {
			logger.Warn("Timeline model unavailable, using linear fallback",
				zap.String("path", cfg.Timeline.ModelPath),
				zap.Error(err))
			timelineModel = nil
		} else {
			logger.Info("Timeline model loaded", zap.String("path", cfg.Timeline.ModelPath))
		}
	}

	conversationRepo := repositories.NewConversationRepository(db)
	campaignRepo := repositories.NewCampaignRepository(db)

	schemaProvider := services.NewSchemaPolicyProvider()
	generator := services.NewSQLGenerator(chatClient, schemaProvider, logger)
	executor := services.NewQueryExecutor(db, time.Duration(cfg.Analytics.QueryTimeoutSeconds)*time.Second)

	var guard sqlguard.QueryGuard = sqlguard.NewPermissiveGuard()
	if cfg.Analytics.StrictGuard {
		guard = sqlguard.NewRestrictiveGuard()
	}

	assistant := services.NewAssistantService(conversationRepo, generator, executor, guard, schemaProvider, chatClient, logger)
	timeline := services.NewTimelineService(campaignRepo, timelineModel, chatClient, logger)

	apiMux := http.NewServeMux()
	handlers.NewAssistantHandler(assistant, logger).RegisterRoutes(apiMux)
	handlers.NewTimelineHandler(timeline, logger).RegisterRoutes(apiMux)

	authMiddleware := auth.Middleware(auth.MiddlewareConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWTSecret:          cfg.Auth.JWTSecret,
	}, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	mux.Handle("/api/", authMiddleware(apiMux))

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting qualitrack-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
