// File: services/agent/history.go
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agendia/models"

	"github.com/go-redis/redis/v8"
)

const historyPrefix = "chat:history:"

// maxHistoryMessages bounds what is replayed into the model per turn.
const maxHistoryMessages = 40

// HistoryStore keeps per-session conversation history.
type HistoryStore interface {
	Get(ctx context.Context, sessionID int) ([]models.ChatMessage, error)
	Append(ctx context.Context, sessionID int, messages ...models.ChatMessage) error
	Clear(ctx context.Context, sessionID int) error
}

// RedisHistoryStore stores history as one JSON blob per session with a TTL,
// so idle conversations age out on their own.
type RedisHistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisHistoryStore(client *redis.Client, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{client: client, ttl: ttl}
}

func historyKey(sessionID int) string {
	return fmt.Sprintf("%s%d", historyPrefix, sessionID)
}

func (s *RedisHistoryStore) Get(ctx context.Context, sessionID int) ([]models.ChatMessage, error) {
	data, err := s.client.Get(ctx, historyKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var messages []models.ChatMessage
	if err := json.Unmarshal([]byte(data), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *RedisHistoryStore) Append(ctx context.Context, sessionID int, messages ...models.ChatMessage) error {
	existing, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	existing = append(existing, messages...)
	if len(existing) > maxHistoryMessages {
		existing = existing[len(existing)-maxHistoryMessages:]
	}
	b, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, historyKey(sessionID), b, s.ttl).Err()
}

func (s *RedisHistoryStore) Clear(ctx context.Context, sessionID int) error {
	return s.client.Del(ctx, historyKey(sessionID)).Err()
}
