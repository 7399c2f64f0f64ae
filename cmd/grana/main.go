package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grana/internal/api"
	"grana/internal/api/handlers"
	"grana/internal/classifier"
	"grana/internal/repository"
	"grana/internal/service"
	"grana/pkg/auth"
	"grana/pkg/config"
	"grana/pkg/logger"
	"grana/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting grana service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	txRepo := repository.NewTransactionRepository(db, appLogger)
	categoryRepo := repository.NewCategoryRepository(db, appLogger)
	cacheRepo := repository.NewCacheRepository(db, appLogger)
	configRepo := repository.NewConfigRepository(db, appLogger)

	if err := configRepo.SeedDefaults(ctx); err != nil {
		appLogger.Warn("Failed to seed system config defaults", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Classification strategies
	keyword := classifier.NewKeywordStrategy()
	bayes := classifier.NewBayesStrategy(
		keyword,
		service.NewManualSampleSource(txRepo),
		cfg.Classifier.VocabularyCap,
		cfg.Classifier.ModelPath,
		appLogger,
	)
	bayes.Load()

	strategies := map[string]classifier.Strategy{
		keyword.Name(): keyword,
		bayes.Name():   bayes,
	}

	if cfg.GigaChat.Configured() {
		llmService, err := service.NewLLMService(&cfg.GigaChat, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize LLM service", zap.Error(err))
		}
		defer llmService.Close()

		llm := classifier.NewLLMStrategy(llmService, cacheRepo,
			cfg.Classifier.LLMBatchSize, cfg.Classifier.LLMTimeout, appLogger)
		strategies[llm.Name()] = llm
	} else {
		appLogger.Warn("GIGACHAT_API_KEY not set, llm strategy disabled")
	}

	if _, ok := strategies[cfg.Classifier.Strategy]; !ok {
		appLogger.Fatal("Default classification strategy unavailable",
			zap.String("strategy", cfg.Classifier.Strategy),
		)
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	ingestService := service.NewIngestService(txRepo, strategies, cfg.Classifier.Strategy, appLogger)
	txService := service.NewTransactionService(txRepo, cacheRepo, bayes, appLogger)
	categoryService := service.NewCategoryService(categoryRepo, keyword, bayes, appLogger)
	dashboardService := service.NewDashboardService(txRepo, appLogger)
	exportService := service.NewExportService(txRepo, categoryRepo, ingestService, appLogger)

	// Initialize handlers
	h := api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, appLogger),
		Statement:   handlers.NewStatementHandler(ingestService, configRepo, appLogger),
		Transaction: handlers.NewTransactionHandler(txService, appLogger),
		Category:    handlers.NewCategoryHandler(categoryService, appLogger),
		Dashboard:   handlers.NewDashboardHandler(dashboardService, appLogger),
		Export:      handlers.NewExportHandler(exportService, appLogger),
		Admin:       handlers.NewAdminHandler(configRepo, userRepo, appLogger),
	}

	// Setup router
	bodyLimit := cfg.Upload.MaxMB * 1024 * 1024
	app := api.SetupRouter(h, jwtManager, bodyLimit, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
