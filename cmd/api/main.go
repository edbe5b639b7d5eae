package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git-repository-manager/internal/config"
	"git-repository-manager/internal/database"
	"git-repository-manager/internal/git"
	internalHttp "git-repository-manager/internal/http"
	"git-repository-manager/internal/logging"
	"git-repository-manager/internal/queue"
	"git-repository-manager/internal/redis"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Log)
	ctx := logging.WithContext(context.Background(), logger)

	if envErr != nil {
		logger.Debug().Msg("No .env file found, using environment variables")
	}

	var acquirerOpts []git.AcquirerOption
	if cfg.Storage.Progress {
		acquirerOpts = append(acquirerOpts, git.WithProgress(os.Stdout))
	}
	acquirer, err := git.NewAcquirer(cfg.Storage.Root, acquirerOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare storage root")
	}

	var opts []internalHttp.Option

	if cfg.Storage.SSHKeyPath != "" {
		opts = append(opts, internalHttp.WithSSHKey(&git.SSHKeyProvider{
			KeyPath:    cfg.Storage.SSHKeyPath,
			Passphrase: cfg.Storage.SSHPassphrase,
		}))
	}

	// Postgres and Redis are optional; the clone and aggregation routes work without them
	if cfg.Database.Enabled {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		opts = append(opts, internalHttp.WithStore(db))
		logger.Info().Msg("Database connected")
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		opts = append(opts, internalHttp.WithPublisher(queue.NewPublisher(redisClient, cfg.Redis.QueueName)))
		logger.Info().Msg("Redis connected")
	}

	h := internalHttp.NewHandler(acquirer, git.NewAggregator(), cfg, logger, opts...)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("storage", acquirer.Root()).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
}
