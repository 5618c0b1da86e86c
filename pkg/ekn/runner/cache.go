package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunCache is a per-run scoped key/value cache used by stage jobs to share
// intermediate state within a single run without round-tripping through the
// relational store (spec.md §4.2 "Stage jobs may cache intermediate state").
// Keys are namespaced by run id so two concurrent runs never collide and a
// completed run's cache can be dropped in one call.
type RunCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunCache builds a RunCache with the given default entry TTL.
func NewRunCache(client *redis.Client, ttl time.Duration) *RunCache {
	return &RunCache{client: client, ttl: ttl}
}

func (c *RunCache) key(runID int64, name string) string {
	return fmt.Sprintf("enliterator:run-cache:%d:%s", runID, name)
}

// Set marshals value as JSON and stores it under (runID, name).
func (c *RunCache) Set(ctx context.Context, runID int64, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache value: %w", err)
	}
	if err := c.client.Set(ctx, c.key(runID, name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing run cache: %w", err)
	}
	return nil
}

// Get unmarshals the cached value for (runID, name) into dest, reporting
// false if no entry exists.
func (c *RunCache) Get(ctx context.Context, runID int64, name string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.key(runID, name)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading run cache: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshaling cache value: %w", err)
	}
	return true, nil
}

// Clear drops every cache entry for runID by pattern-scanning its namespace,
// called once a run reaches a terminal state.
func (c *RunCache) Clear(ctx context.Context, runID int64) error {
	pattern := c.key(runID, "*")
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning run cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clearing run cache: %w", err)
	}
	return nil
}
