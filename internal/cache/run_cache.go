package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"docuquery/internal/model"
)

const defaultRunTTL = time.Hour

// RunCache keeps recently answered batches in Redis so run lookups do not
// wait on the asynchronous MySQL write.
type RunCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRunCache(client *redisv9.Client, ttl time.Duration) *RunCache {
	if ttl <= 0 {
		ttl = defaultRunTTL
	}
	return &RunCache{client: client, ttl: ttl}
}

func (c *RunCache) GetRun(ctx context.Context, id string) (*model.AskRun, bool, error) {
	raw, err := c.client.Get(ctx, c.runKey(id)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get run failed: %w", err)
	}

	var run model.AskRun
	if err := json.Unmarshal([]byte(raw), &run); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached run failed: %w", err)
	}
	return &run, true, nil
}

func (c *RunCache) SetRun(ctx context.Context, run *model.AskRun) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.runKey(run.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set run failed: %w", err)
	}
	return nil
}

func (c *RunCache) runKey(id string) string {
	return "docuquery:run:" + id
}
