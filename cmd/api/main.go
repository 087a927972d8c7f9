package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/fixwell/maintenance-service/internal/api/http"
	"github.com/fixwell/maintenance-service/internal/api/http/handlers"
	"github.com/fixwell/maintenance-service/internal/auth"
	"github.com/fixwell/maintenance-service/internal/config"
	"github.com/fixwell/maintenance-service/internal/events"
	"github.com/fixwell/maintenance-service/internal/observability"
	"github.com/fixwell/maintenance-service/internal/persistence"
	"github.com/fixwell/maintenance-service/internal/ratelimit"
	"github.com/fixwell/maintenance-service/internal/repository"
	"github.com/fixwell/maintenance-service/internal/service"
	"github.com/fixwell/maintenance-service/internal/session"
	"github.com/fixwell/maintenance-service/internal/storage"
	"github.com/fixwell/maintenance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	// Session state and rate counters prefer Redis; without it both fall
	// back to process-local stores with janitor eviction.
	var sessionStore session.Store
	var limiter ratelimit.Limiter
	if err := redis.Ping(ctx); err == nil {
		sessionStore = session.NewRedisStore(redis.Client)
		limiter = ratelimit.NewRedisLimiter(redis.Client)
	} else {
		logger.Warn("redis unavailable; using in-memory sessions and rate limits", zap.Error(err))
		memSessions := session.NewMemoryStore()
		defer memSessions.Close()
		memLimiter := ratelimit.NewMemoryLimiter()
		defer memLimiter.Close()
		sessionStore = memSessions
		limiter = memLimiter
	}

	sessionManager := session.NewManager(
		cfg.Auth.SessionSecret,
		cfg.Auth.SessionTTL(),
		sessionStore,
		cfg.App.Env == "production",
	)

	uploads, err := storage.NewUploadStore(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix)
	if err != nil {
		logger.Fatal("failed to init upload store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(cfg.Auth, userRepo, logger)
	if err := authService.EnsureAdmin(ctx); err != nil {
		logger.Fatal("failed to seed admin account", zap.Error(err))
	}

	ticketService := service.NewTicketService(ticketRepo, uploads, dispatcher, logger, cfg.Uploads.MaxFiles)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:              handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:                handlers.NewAuthHandler(authService, sessionManager),
		Tickets:             handlers.NewTicketsHandler(ticketService),
		AdminTickets:        handlers.NewAdminTicketsHandler(ticketService),
		Sessions:            auth.NewSessionMiddleware(sessionManager),
		LoginLimit:          ratelimit.Middleware(limiter, loginRule(cfg.RateLimit), logger),
		RegisterLimit:       ratelimit.Middleware(limiter, registerRule(cfg.RateLimit), logger),
		TicketLimit:         ratelimit.Middleware(limiter, ticketRule(cfg.RateLimit), logger),
		UploadsDir:          uploads.Dir(),
		UploadsPublicPrefix: cfg.Uploads.PublicPrefix,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func loginRule(cfg config.RateLimitConfig) ratelimit.Rule {
	return ratelimit.Rule{
		Name:   "login",
		Limit:  cfg.LoginLimit,
		Window: time.Duration(cfg.LoginWindowSeconds) * time.Second,
	}
}

func registerRule(cfg config.RateLimitConfig) ratelimit.Rule {
	return ratelimit.Rule{
		Name:   "register",
		Limit:  cfg.RegisterLimit,
		Window: time.Duration(cfg.RegisterWindowSeconds) * time.Second,
	}
}

func ticketRule(cfg config.RateLimitConfig) ratelimit.Rule {
	return ratelimit.Rule{
		Name:   "ticket_create",
		Limit:  cfg.TicketLimit,
		Window: time.Duration(cfg.TicketWindowSeconds) * time.Second,
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
