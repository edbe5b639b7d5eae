package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"git-repository-manager/internal/config"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Nil is returned by blocking pops that time out with no element
const Nil = redis.Nil

// Client wraps the Redis client with application-specific methods
type Client struct {
	*redis.Client
}

// NewClient creates a new Redis client based on the configuration
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	logger := zerolog.Ctx(ctx)

	opts := &redis.Options{
		Addr:       cfg.Address,
		Password:   cfg.Password,
		DB:         cfg.DB,
		Username:   cfg.Username,
		MaxRetries: 3,
	}

	if cfg.UseTLS {
		host, _, err := net.SplitHostPort(cfg.Address)
		if err != nil {
			host = cfg.Address
		}
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: host,
		}
	}

	logger.Debug().
		Str("address", cfg.Address).
		Bool("tls", cfg.UseTLS).
		Msg("connecting to redis")

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{Client: client}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Client.Close()
}

// HealthCheck performs a health check on the Redis connection
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
