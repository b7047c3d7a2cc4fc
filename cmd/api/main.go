package main

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

	"github.com/go-auth-redis/internal/config"
	"github.com/go-auth-redis/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-redis/internal/infrastructure/jwt"
	"github.com/go-auth-redis/internal/infrastructure/postgres"
	redisinfra "github.com/go-auth-redis/internal/infrastructure/redis"
	s3infra "github.com/go-auth-redis/internal/infrastructure/s3"
	"github.com/go-auth-redis/internal/infrastructure/smtp"
	"github.com/go-auth-redis/internal/infrastructure/sns"
	"github.com/go-auth-redis/internal/metrics"
	"github.com/go-auth-redis/internal/pkg/logger"
	transporthttp "github.com/go-auth-redis/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Info("no .env file found, reading from environment")
	}

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := redisinfra.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	tokens, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return err
	}

	users, closeUsers, err := newUserRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeUsers()

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	events, err := sns.NewPublisher(ctx, cfg)
	if err != nil {
		return err
	}

	deps := &transporthttp.Deps{
		Users:   users,
		Store:   redisinfra.NewStore(rdb),
		Tokens:  tokens,
		Objects: s3infra.NewStore(s3Client, cfg.S3BucketName, cfg.AWSRegion, cfg.S3PublicURL),
		Mailer:  smtp.NewMailer(cfg),
		Events:  events,
		Metrics: metrics.New(),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "user_store", cfg.UserStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newUserRepository opens the durable user store selected by USER_STORE.
func newUserRepository(ctx context.Context, cfg *config.Config) (transporthttp.UserRepository, func(), error) {
	switch cfg.UserStore {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewUserRepo(pool), pool.Close, nil
	default:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables)
		return dynamo.NewUserRepo(client, cfg.DynamoTables.Users), func() {}, nil
	}
}
