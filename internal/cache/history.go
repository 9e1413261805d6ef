package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"invoiceqa/internal/logger"
	"invoiceqa/internal/metrics"
	"invoiceqa/pkg/models"
)

// history defaults
const (
	DefaultHistoryMessages = 20
	DefaultHistoryTTL      = 24 * time.Hour
)

// History keeps the most recent messages of each chat
type History struct {
	client *redis.Client
	max    int
	ttl    time.Duration
	prefix string
	log    zerolog.Logger

	mu  sync.Mutex
	mem map[string][]models.ChatMessage
}

// NewHistory creates a History keeping size messages per chat. A nil client
// keeps histories in memory without expiry.
func NewHistory(client *redis.Client, size int, ttl time.Duration, prefix string) *History {
	if size <= 0 {
		size = DefaultHistoryMessages
	}
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	return &History{
		client: client,
		max:    size,
		ttl:    ttl,
		prefix: prefix,
		log:    logger.WithComponent("history"),
		mem:    make(map[string][]models.ChatMessage),
	}
}

func (h *History) key(chatID string) string {
	return h.prefix + "history:" + chatID
}

// Append adds messages to a chat and trims it to the newest max
func (h *History) Append(ctx context.Context, chatID string, msgs ...models.ChatMessage) error {
	const op = "Append"
	if chatID == "" || len(msgs) == 0 {
		return nil
	}

	if h.client == nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		all := append(h.mem[chatID], msgs...)
		if len(all) > h.max {
			all = append([]models.ChatMessage(nil), all[len(all)-h.max:]...)
		}
		h.mem[chatID] = all
		return nil
	}

	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("%s: marshal message: %w", op, err)
		}
		values = append(values, data)
	}

	key := h.key(chatID)
	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-h.max), -1)
	pipe.Expire(ctx, key, h.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: redis pipeline: %w", op, err)
	}
	return nil
}

// Recent returns a chat's messages, oldest first
func (h *History) Recent(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	if chatID == "" {
		return nil, nil
	}

	if h.client == nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		return append([]models.ChatMessage(nil), h.mem[chatID]...), nil
	}

	vals, err := h.client.LRange(ctx, h.key(chatID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("Recent: redis lrange: %w", err)
	}
	result := "hit"
	if len(vals) == 0 {
		result = "miss"
	}
	metrics.CacheLookups.WithLabelValues("history", result).Inc()

	msgs := make([]models.ChatMessage, 0, len(vals))
	for _, v := range vals {
		var m models.ChatMessage
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			h.log.Warn().Str("chat_id", chatID).Msg("Skipping unreadable history entry")
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Clear forgets a chat
func (h *History) Clear(ctx context.Context, chatID string) error {
	if h.client == nil {
		h.mu.Lock()
		delete(h.mem, chatID)
		h.mu.Unlock()
		return nil
	}
	if err := h.client.Del(ctx, h.key(chatID)).Err(); err != nil {
		return fmt.Errorf("Clear: redis del: %w", err)
	}
	return nil
}
