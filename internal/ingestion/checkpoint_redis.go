package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
)

// RedisCheckpointConfig configures the Redis-backed checkpoint store.
type RedisCheckpointConfig struct {
	Addr        string        `json:"addr"`
	Password    string        `json:"password"`
	DB          int           `json:"db"`
	KeyPrefix   string        `json:"key_prefix"`
	DialTimeout time.Duration `json:"dial_timeout"`
}

// RedisCheckpoint tracks processed files in a Redis set, letting several
// scheduled invocations on different hosts share checkpoint state.
type RedisCheckpoint struct {
	logger *logrus.Logger
	client *redis.Client
	key    string
}

// NewRedisCheckpoint creates a Redis-backed checkpoint store and verifies
// the connection.
func NewRedisCheckpoint(config *RedisCheckpointConfig, logger *logrus.Logger) (*RedisCheckpoint, error) {
	if config == nil || config.Addr == "" {
		return nil, errors.NewConfigurationError("REDIS_ADDR_MISSING",
			"redis checkpoint store requires an address")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if config.DialTimeout == 0 {
		config.DialTimeout = 5 * time.Second
	}
	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "agridata"
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"REDIS_UNREACHABLE", "cannot connect to redis checkpoint store")
	}

	logger.WithField("addr", config.Addr).Info("Connected to redis checkpoint store")

	return &RedisCheckpoint{
		logger: logger,
		client: client,
		key:    fmt.Sprintf("%s:processed_files", prefix),
	}, nil
}

// Contains reports whether name is a member of the processed set.
func (c *RedisCheckpoint) Contains(ctx context.Context, name string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, c.key, name).Result()
	if err != nil {
		return false, errors.WrapError(err, errors.ErrorTypeStorage,
			"REDIS_READ_FAILED", "checkpoint membership check failed")
	}
	return ok, nil
}

// Mark adds name to the processed set.
func (c *RedisCheckpoint) Mark(ctx context.Context, name string) error {
	if err := c.client.SAdd(ctx, c.key, name).Err(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"REDIS_WRITE_FAILED", "checkpoint mark failed")
	}
	return nil
}

// List returns all members of the processed set.
func (c *RedisCheckpoint) List(ctx context.Context) ([]string, error) {
	names, err := c.client.SMembers(ctx, c.key).Result()
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"REDIS_READ_FAILED", "checkpoint list failed")
	}
	return names, nil
}

// Clear deletes the processed set.
func (c *RedisCheckpoint) Clear(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"REDIS_WRITE_FAILED", "checkpoint clear failed")
	}
	return nil
}

// Close closes the client connection.
func (c *RedisCheckpoint) Close() error {
	return c.client.Close()
}
