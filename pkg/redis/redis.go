package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// SetClient sets the Redis client (used for testing)
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

// Store exposes the key operations services depend on.
type Store struct {
	client *redis.Client
}

// NewStore wraps c, or the package client when c is nil.
func NewStore(c *redis.Client) *Store {
	if c == nil {
		c = client
	}
	return &Store{client: c}
}

// SetNX sets a key only if it does not exist
func (s *Store) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, expiration).Result()
	if err != nil {
		logger.Error("Failed to claim redis key", err, map[string]interface{}{
			"key": key,
		})
		return false, err
	}
	return ok, nil
}

// Get retrieves a value by key; ok is false when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Del removes a key
func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		logger.Error("Failed to delete redis key", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}
