package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-messagely/app/db"
	"github.com/FACorreiaa/go-messagely/app/observability/metrics"
	"github.com/FACorreiaa/go-messagely/config"
	"github.com/FACorreiaa/go-messagely/internal/api/auth"
	"github.com/FACorreiaa/go-messagely/internal/api/message"
	"github.com/FACorreiaa/go-messagely/internal/api/user"
	"github.com/FACorreiaa/go-messagely/internal/notify"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Pool           *pgxpool.Pool
	AuthService    auth.AuthService
	AuthHandler    *auth.AuthHandler
	UserHandler    *user.UserHandler
	MessageHandler *message.MessageHandler
}

// NewContainer initializes and returns a new dependency container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	// Run migrations before the main pool comes up
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	metrics.InitAppMetrics()

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify, logger)
	}

	authRepo := auth.NewPostgresAuthRepo(pool, logger)
	authService := auth.NewAuthService(authRepo, cfg.Auth, logger)
	authHandler := auth.NewAuthHandler(authService, logger)

	messageRepo := message.NewPostgresMessageRepo(pool, logger)
	messageService := message.NewMessageService(messageRepo, notifier, logger)
	messageHandler := message.NewMessageHandler(messageService, logger)

	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, logger)
	userHandler := user.NewUserHandler(userService, messageService, logger)

	return &Container{
		Config:         cfg,
		Logger:         logger,
		Pool:           pool,
		AuthService:    authService,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		MessageHandler: messageHandler,
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
