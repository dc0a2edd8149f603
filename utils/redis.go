// File: utils/redis.go
package utils

import (
	"context"
	"log"
	"time"

	"agendia/config"

	"github.com/go-redis/redis/v8"
)

// HistoryCacheClient is the Redis client backing conversation history.
var HistoryCacheClient *redis.Client

// InitHistoryCache initializes the Redis client for chat history (DB from AppConfig).
func InitHistoryCache() {
	HistoryCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisHistoryDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := HistoryCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (History): %v", err)
	}
}

// GetHistoryCacheClient returns the chat-history Redis client.
func GetHistoryCacheClient() *redis.Client {
	if HistoryCacheClient == nil {
		InitHistoryCache()
	}
	return HistoryCacheClient
}
