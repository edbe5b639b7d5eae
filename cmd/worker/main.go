package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git-repository-manager/internal/config"
	"git-repository-manager/internal/database"
	"git-repository-manager/internal/git"
	"git-repository-manager/internal/logging"
	"git-repository-manager/internal/queue"
	"git-repository-manager/internal/redis"
	"git-repository-manager/internal/worker"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Log)

	ctx, cancel := context.WithCancel(logging.WithContext(context.Background(), logger))
	defer cancel()

	if envErr != nil {
		logger.Debug().Msg("No .env file found, using environment variables")
	}

	acquirer, err := git.NewAcquirer(cfg.Storage.Root)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to prepare storage root")
	}

	logger.Info().Msg("Connecting to database")
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate database")
	}

	logger.Info().Msg("Connecting to Redis")
	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	handler := worker.NewJobHandler(db, acquirer, git.NewAggregator(), cfg.Worker.ReportDays)

	consumer := queue.NewConsumer(
		redisClient,
		cfg.Redis.QueueName,
		handler,
		cfg.Worker.Concurrency,
		cfg.Worker.PopTimeout,
	)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start consumer")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down worker")
	cancel()
	consumer.Stop()

	logger.Info().Msg("Worker exited")
}
