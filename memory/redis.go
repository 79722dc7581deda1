package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tfelder/agentware/agent"
)

// RedisMemory provides Redis-backed memory with TTL.
//
// Messages are kept in a sorted set scored by timestamp, so retrieval
// without a query returns them in chronological order. Relevance queries
// fall back to token-overlap scoring over the fetched set.
//
// Redis data structure:
//   - Key: "{prefix}:{session_id}:messages"
//   - Type: ZSET, score = unix nanos
//   - Value: JSON(message + metadata)
//
// Example:
//
//	mem, err := memory.NewRedisMemory("redis://localhost:6379", 24*time.Hour, "agentware:memory")
type RedisMemory struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisMemory creates a Redis-backed memory backend.
//
// ttl of zero disables expiry.
func NewRedisMemory(redisURL string, ttl time.Duration, keyPrefix string) (*RedisMemory, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	if keyPrefix == "" {
		keyPrefix = "agentware:memory"
	}
	return &RedisMemory{
		client:    redis.NewClient(opts),
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}, nil
}

func (r *RedisMemory) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:messages", r.keyPrefix, sessionID)
}

type redisEntry struct {
	Role     string                 `json:"role"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	StoredAt time.Time              `json:"stored_at"`
}

// Store appends a message to the session's sorted set and refreshes the
// TTL.
func (r *RedisMemory) Store(ctx context.Context, sessionID string, message *agent.Message, metadata map[string]interface{}) error {
	entry := redisEntry{
		Role:     message.Role,
		Content:  message.Content,
		Metadata: metadata,
		StoredAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	key := r.sessionKey(sessionID)
	if err := r.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(entry.StoredAt.UnixNano()),
		Member: string(data),
	}).Err(); err != nil {
		return fmt.Errorf("redis zadd: %w", err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, key, r.ttl).Err(); err != nil {
			return fmt.Errorf("redis expire: %w", err)
		}
	}
	return nil
}

// Retrieve returns chronological messages, or relevance-ranked matches
// when a query is set.
func (r *RedisMemory) Retrieve(ctx context.Context, sessionID string, opts RetrieveOptions) ([]*agent.Message, error) {
	all, err := r.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}

	if opts.Query == "" {
		return all[len(all)-limit:], nil
	}

	queryTokens := tokenize(opts.Query)
	var matched []*agent.Message
	for _, msg := range all {
		if overlapScore(queryTokens, tokenize(msg.Content)) > opts.MinScore {
			matched = append(matched, msg)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched, nil
}

// List returns every stored message in chronological order.
func (r *RedisMemory) List(ctx context.Context, sessionID string) ([]*agent.Message, error) {
	raw, err := r.client.ZRange(ctx, r.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis zrange: %w", err)
	}

	messages := make([]*agent.Message, 0, len(raw))
	for _, item := range raw {
		var entry redisEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue // skip corrupt entries
		}
		msg := agent.NewMessage(entry.Role, entry.Content)
		msg.Timestamp = entry.StoredAt
		for k, v := range entry.Metadata {
			msg.Metadata[k] = v
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Clear removes a session.
func (r *RedisMemory) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (r *RedisMemory) Close() error { return r.client.Close() }
