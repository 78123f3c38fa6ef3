// Package cache keeps a Redis snapshot of the active keyword rules so scans do
// not hit Postgres on every submission.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"modengine/internal/models"
)

// ActiveRulesKey is the Redis key of the active rule snapshot.
const ActiveRulesKey = "modengine:rules:active"

// RuleCache stores the active rule set as one JSON document.
type RuleCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRuleCache creates a RuleCache. A ttl of zero keeps the snapshot until it
// is invalidated.
func NewRuleCache(client redis.Cmdable, ttl time.Duration) *RuleCache {
	return &RuleCache{client: client, ttl: ttl}
}

// GetActive returns the cached rules. ok is false on a miss.
func (c *RuleCache) GetActive(ctx context.Context) ([]models.KeywordRule, bool, error) {
	data, err := c.client.Get(ctx, ActiveRulesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rules []models.KeywordRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, false, fmt.Errorf("decode cached rules: %w", err)
	}
	return rules, true, nil
}

// SetActive replaces the cached rules.
func (c *RuleCache) SetActive(ctx context.Context, rules []models.KeywordRule) error {
	if rules == nil {
		rules = []models.KeywordRule{}
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ActiveRulesKey, data, c.ttl).Err()
}

// Invalidate drops the cached rules.
func (c *RuleCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, ActiveRulesKey).Err()
}
