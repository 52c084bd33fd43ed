package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/tendril/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

// Host implements ports.Host on Redis. Each entity is a hash of
// JSON-encoded components; every emit is appended to a per-topic list and
// published on the channel of the same name.
type Host struct {
	client *backend.Client
	prefix string
}

// NewHost creates a Redis-backed host.
func NewHost(client *backend.Client, prefix string) *Host {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Host{client: client, prefix: prefix}
}

func (h *Host) entityKey(entity schema.EntityRef) string {
	return h.prefix + "entity:" + string(entity)
}

// TopicKey is the list and channel name used for topic.
func (h *Host) TopicKey(topic string) string {
	return h.prefix + "emit:" + topic
}

// Get reads a component value.
func (h *Host) Get(ctx context.Context, entity schema.EntityRef, component string) (any, bool, error) {
	raw, err := h.client.HGet(ctx, h.entityKey(entity), component).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis hget: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("decode component %s: %w", component, err)
	}
	return v, true, nil
}

// Set writes a component value.
func (h *Host) Set(ctx context.Context, entity schema.EntityRef, component string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode component %s: %w", component, err)
	}
	if err := h.client.HSet(ctx, h.entityKey(entity), component, raw).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

// Emit appends value to the topic list and publishes it.
func (h *Host) Emit(ctx context.Context, topic string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode emit: %w", err)
	}
	key := h.TopicKey(topic)
	pipe := h.client.Pipeline()
	pipe.RPush(ctx, key, raw)
	pipe.Publish(ctx, key, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis emit: %w", err)
	}
	return nil
}

// Emitted returns the values emitted on topic, oldest first.
func (h *Host) Emitted(ctx context.Context, topic string) ([]any, error) {
	items, err := h.client.LRange(ctx, h.TopicKey(topic), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		var v any
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, fmt.Errorf("decode emit: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
