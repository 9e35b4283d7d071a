package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-travel-auth/internal/config"
	"go-travel-auth/internal/counter"
	"go-travel-auth/internal/database"
	"go-travel-auth/internal/handler"
	"go-travel-auth/internal/metrics"
	"go-travel-auth/internal/middleware"
	"go-travel-auth/internal/ratelimit"
	"go-travel-auth/internal/repository"
	"go-travel-auth/internal/router"
	"go-travel-auth/internal/service"
	"go-travel-auth/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	redis        *redis.Client
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Info("redis ready")

	m := metrics.New()

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	verificationRepo := repository.NewVerificationTokenRepository(pool)

	tokenManager, err := token.NewManager(token.Config{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.JWTAccessTTL,
		RefreshTTL: cfg.JWTRefreshTTL,
		Leeway:     cfg.JWTLeeway,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}

	limiter := ratelimit.NewLimiter(counter.NewRedisCounter(redisClient, ""), ratelimit.Config{
		Window:         cfg.RateLimitWindow,
		StandardLimit:  cfg.RateLimitStandard,
		SensitiveLimit: cfg.RateLimitSensitive,
		FailOpen:       cfg.RateLimitFailOpen,
	})

	lockout := service.NewLockoutPolicy(userRepo, service.LockoutConfig{
		Threshold: cfg.LockoutThreshold,
		Duration:  cfg.LockoutDuration,
	}, m)
	verification := service.NewVerificationService(verificationRepo, userRepo, service.VerificationConfig{
		TokenTTL: cfg.VerificationTTL,
	}, m)
	authService := service.NewAuthService(userRepo, tokenManager, lockout, verification, m)

	authMiddleware := middleware.NewAuthMiddleware(tokenManager, m)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, m)
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(authService, lockout)

	appRouter := router.New(cfg, db, m, authMiddleware, rateLimitMiddleware, authHandler, adminHandler)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go verification.StartCleanupTicker(cleanupCtx, cfg.CleanupInterval)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		redis:  redisClient,
		cleanupFuncs: []func(){
			cleanupCancel,
			func() {
				if closeErr := redisClient.Close(); closeErr != nil {
					slog.Warn("failed to close redis client", "error", closeErr)
				}
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
