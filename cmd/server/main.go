package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joshnosal/tip-driver-api/internal/billing"
	"github.com/joshnosal/tip-driver-api/internal/config"
	"github.com/joshnosal/tip-driver-api/internal/database"
	"github.com/joshnosal/tip-driver-api/internal/di"
	"github.com/joshnosal/tip-driver-api/internal/identity"
	"github.com/joshnosal/tip-driver-api/internal/middleware"
	"github.com/joshnosal/tip-driver-api/internal/notify"
	"github.com/joshnosal/tip-driver-api/internal/repository"
	"github.com/joshnosal/tip-driver-api/internal/server"
	"github.com/joshnosal/tip-driver-api/pkg/logger"
	"github.com/joshnosal/tip-driver-api/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := "info"
	if cfg.App.Debug {
		logLevel = "debug"
	}
	if err := logger.Init(&logger.Config{
		Level:       logLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.App.Environment == "development",
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	}); err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	db, err := database.NewPostgresDB(ctx, &database.PostgresConfig{
		Host:       cfg.Database.Host,
		Port:       cfg.Database.Port,
		User:       cfg.Database.User,
		Password:   cfg.Database.Password,
		Database:   cfg.Database.DBName,
		SSLMode:    cfg.Database.SSLMode,
		MaxConns:   cfg.Database.MaxConns,
		MinConns:   cfg.Database.MinConns,
		MaxRetries: 3,
		RetryDelay: time.Second,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	rateLimit := middleware.DefaultRateLimitConfig()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, falling back to local rate limiting", zap.Error(err))
		} else {
			rateLimit.UseRedis = true
			rateLimit.RedisClient = redisClient
			defer redisClient.Close()
		}
	}

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.Kafka.Enabled {
		kafkaNotifier, err := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.ClientID, log.Logger)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	gateway, err := billing.NewStripeGateway(cfg.Stripe.SecretKey)
	if err != nil {
		return fmt.Errorf("init billing gateway: %w", err)
	}

	users, err := identity.NewClerkProvider(cfg.Identity.SecretKey)
	if err != nil {
		return fmt.Errorf("init identity provider: %w", err)
	}

	container := di.NewContainer(&di.ContainerConfig{
		Config:      cfg,
		DB:          db,
		Gateway:     gateway,
		Identity:    users,
		Notifier:    notifier,
		CompanyRepo: repository.NewPostgresCompanyRepository(db.Pool),
		DeviceRepo:  repository.NewPostgresDeviceRepository(db.Pool),
		Logger:      log,
	})

	router := server.NewRouter(cfg, container, rateLimit)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
