package utils

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

var ErrRedisNotInitialized = errors.New("redis not initialized")

// InitRedis connects the shared client used for short-lived codes and caches.
func InitRedis() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	redisClient = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return redisClient.Ping(ctx).Err()
}

// RedisClient exposes the shared client for packages that cache directly.
func RedisClient() *redis.Client {
	return redisClient
}

// SetToken stores a value with a TTL, e.g. verification and recovery codes.
func SetToken(key, value string, ttl time.Duration) error {
	if redisClient == nil {
		return ErrRedisNotInitialized
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return redisClient.Set(ctx, key, value, ttl).Err()
}

// GetToken returns the stored value or an error when missing/expired.
func GetToken(key string) (string, error) {
	if redisClient == nil {
		return "", ErrRedisNotInitialized
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return redisClient.Get(ctx, key).Result()
}

// DeleteToken removes a key after use.
func DeleteToken(key string) error {
	if redisClient == nil {
		return ErrRedisNotInitialized
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return redisClient.Del(ctx, key).Err()
}
