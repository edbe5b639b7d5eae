package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"git-repository-manager/internal/redis"

	"github.com/rs/zerolog"
)

// Consumer handles consuming jobs from Redis
type Consumer struct {
	queue       *Queue
	handler     JobHandler
	concurrency int
	popTimeout  time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// JobHandler processes a single job
type JobHandler interface {
	HandleJob(ctx context.Context, job *Job) error
}

// NewConsumer creates a consumer
func NewConsumer(
	redisClient *redis.Client,
	queueName string,
	handler JobHandler,
	concurrency int,
	popTimeout time.Duration,
) *Consumer {
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	return &Consumer{
		queue:       NewQueue(redisClient, queueName),
		handler:     handler,
		concurrency: concurrency,
		popTimeout:  popTimeout,
		stopChan:    make(chan struct{}),
	}
}

// Start begins consuming jobs (runs goroutines)
func (c *Consumer) Start(ctx context.Context) error {
	if c.concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	zerolog.Ctx(ctx).Info().Int("workers", c.concurrency).Msg("starting consumer")

	for i := 0; i < c.concurrency; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}

	return nil
}

// worker is a goroutine that processes jobs from the queue
func (c *Consumer) worker(ctx context.Context, id int) {
	defer c.wg.Done()

	logger := zerolog.Ctx(ctx).With().Int("worker", id).Logger()
	logger.Debug().Msg("worker started")

	for {
		select {
		case <-c.stopChan:
			logger.Debug().Msg("worker stopping")
			return
		case <-ctx.Done():
			logger.Debug().Msg("worker context cancelled")
			return
		default:
			job, err := c.queue.Pop(ctx, c.popTimeout)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				logger.Error().Err(err).Msg("error popping job")
				c.backoff(ctx)
				continue
			}

			if job == nil {
				continue
			}

			jobLogger := logger.With().Str("job_id", job.ID).Str("job_type", string(job.Type)).Logger()
			jobLogger.Info().Msg("processing job")

			// Failed jobs are logged and dropped; there is no retry.
			if err := c.handler.HandleJob(jobLogger.WithContext(ctx), job); err != nil {
				jobLogger.Error().Err(err).Msg("failed to handle job")
			} else {
				jobLogger.Info().Msg("completed job")
			}
		}
	}
}

// backoff pauses for a second after a Redis error
func (c *Consumer) backoff(ctx context.Context) {
	select {
	case <-time.After(time.Second):
	case <-c.stopChan:
	case <-ctx.Done():
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.wg.Wait()
}
