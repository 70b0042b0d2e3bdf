package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pulseboard/pulseboard/internal/dashboard"
)

// redisKeyPrefix namespaces preference keys in a shared Redis.
const redisKeyPrefix = "pulseboard:prefs:"

// RedisConfig holds configuration for the Redis repository.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisRepository is a Redis implementation of Repository. Documents are
// stored without expiry.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository connects to Redis and verifies the connection.
func NewRedisRepository(ctx context.Context, cfg RedisConfig) (*RedisRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisRepository{client: client}, nil
}

// Load returns the preferences stored under key.
func (r *RedisRepository) Load(ctx context.Context, key string) (*dashboard.Preferences, error) {
	doc, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Decode(doc)
}

// Save stores the preferences under key.
func (r *RedisRepository) Save(ctx context.Context, key string, prefs *dashboard.Preferences) error {
	doc, err := Encode(prefs)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key, doc, 0).Err()
}

// Ping verifies Redis is reachable.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// Ensure RedisRepository implements Repository interface.
var _ Repository = (*RedisRepository)(nil)
