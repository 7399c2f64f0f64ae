package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"grana/internal/models"
	"grana/internal/repository"
	"grana/pkg/auth"
	"grana/pkg/config"
	"grana/pkg/logger"
	"grana/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seeds the database with the default system settings and an admin user.
// Admin credentials come from ADMIN_USERNAME, ADMIN_EMAIL and
// ADMIN_PASSWORD; existing rows are left untouched.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	configRepo := repository.NewConfigRepository(db, appLogger)
	userRepo := repository.NewUserRepository(db, appLogger)

	appLogger.Info("Starting database seeding...")

	if err := configRepo.SeedDefaults(ctx); err != nil {
		appLogger.Fatal("Failed to seed system config", zap.Error(err))
	}
	appLogger.Info("System config seeded")

	if err := seedAdminUser(ctx, userRepo, appLogger); err != nil {
		appLogger.Fatal("Failed to seed admin user", zap.Error(err))
	}

	appLogger.Info("Database seeding completed successfully!")
}

func seedAdminUser(ctx context.Context, userRepo *repository.UserRepository, logger *zap.Logger) error {
	email := getEnv("ADMIN_EMAIL", "admin@localhost")
	username := getEnv("ADMIN_USERNAME", "admin")
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		logger.Warn("ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	existing, err := userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil {
		logger.Info("Admin user already exists", zap.String("email", email))
		return nil
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		Password:  hashed,
		IsAdmin:   true,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("Admin user created",
		zap.String("email", email),
		zap.String("username", username),
	)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
