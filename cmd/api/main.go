package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/course-assistant/internal/api/http"
	"github.com/spec-kit/course-assistant/internal/api/http/handlers"
	"github.com/spec-kit/course-assistant/internal/auth"
	"github.com/spec-kit/course-assistant/internal/chat"
	"github.com/spec-kit/course-assistant/internal/config"
	"github.com/spec-kit/course-assistant/internal/events"
	"github.com/spec-kit/course-assistant/internal/observability"
	"github.com/spec-kit/course-assistant/internal/persistence"
	"github.com/spec-kit/course-assistant/internal/repository"
	"github.com/spec-kit/course-assistant/internal/service"
	"github.com/spec-kit/course-assistant/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps := map[string]handlers.Pinger{}

	var (
		userRepo repository.UserRepository
		flatFile *persistence.FlatFile
	)
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		if cfg.Postgres.DSN == "" {
			logger.Fatal("STORE_BACKEND=postgres requires POSTGRES_DSN")
		}
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewPostgresUserRepository(pg.PoolHandle())
		deps["postgres"] = pg
	default:
		flatFile = persistence.NewFlatFile(cfg.Store.UsersFile)
		userRepo, err = repository.NewFileUserRepository(flatFile)
		if err != nil {
			logger.Fatal("failed to load user records", zap.String("path", cfg.Store.UsersFile), zap.Error(err))
		}
		logger.Info("loaded user records", zap.String("path", cfg.Store.UsersFile))
		deps["store"] = flatFile
	}

	var sessionRepo repository.SessionRepository
	switch cfg.Auth.SessionBackend {
	case config.SessionBackendRedis:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		sessionRepo = repository.NewRedisSessionRepository(redis.Client)
		deps["redis"] = redis
	default:
		sessionRepo = repository.NewMemorySessionRepository()
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:    userRepo,
		SessionRepo: sessionRepo,
		Tokens:      auth.NewTokenManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL()),
		Dispatcher:  dispatcher,
	})
	orderService := service.NewOrderService(service.OrderDependencies{
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Catalog:    cfg.Catalog.Courses,
		Logger:     logger,
	})
	chatService := service.NewChatService(chat.NewClient(chat.Config{
		URL:            cfg.Chat.UpstreamURL,
		Model:          cfg.Chat.Model,
		Temperature:    cfg.Chat.Temperature,
		TopP:           cfg.Chat.TopP,
		ReadTimeout:    cfg.Chat.ReadTimeout(),
		ConnectTimeout: cfg.Chat.ConnectTimeout(),
	}))
	recordsService := service.NewRecordsService(userRepo, flatFile)

	authMiddleware := auth.NewAuthMiddleware(authService, cfg.Auth.CookieName)
	metrics := observability.NewMetrics()

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, deps),
		Auth:           handlers.NewAuthHandler(authService, authMiddleware, cfg.Auth.CookieSecure),
		Users:          handlers.NewUsersHandler(),
		Orders:         handlers.NewOrdersHandler(orderService),
		Chat:           handlers.NewChatHandler(chatService, logger, metrics),
		Records:        handlers.NewRecordsHandler(recordsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("store", cfg.Store.Backend),
			zap.String("sessions", cfg.Auth.SessionBackend),
			zap.String("chat_upstream", cfg.Chat.UpstreamURL),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
