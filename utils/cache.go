// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"pharmavoice/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient caches external lookups (pharmacy search results).
	CacheClient *redis.Client
	// AnalyticsClient holds finalized per-call aggregates written by the worker.
	AnalyticsClient *redis.Client
)

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitAnalyticsCache initializes the Redis client for call analytics.
func InitAnalyticsCache() {
	AnalyticsClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisAnalyticsDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := AnalyticsClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Analytics): %v", err)
	}
}

// GetAnalyticsClient returns the Redis client for call analytics.
func GetAnalyticsClient() *redis.Client {
	if AnalyticsClient == nil {
		InitAnalyticsCache()
	}
	return AnalyticsClient
}
