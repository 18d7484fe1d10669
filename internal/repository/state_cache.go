package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-sim/internal/model"
)

// StateCache keeps the latest snapshot of every run in Redis under
// "<prefix>:<run id>".  Entries expire so finished runs do not pile up.
type StateCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStateCache wraps a connected client.
func NewStateCache(rdb *redis.Client, prefix string, ttl time.Duration) *StateCache {
	if prefix == "" {
		prefix = "restaurant:state"
	}
	return &StateCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *StateCache) key(runID string) string {
	return fmt.Sprintf("%s:%s", c.prefix, runID)
}

// Save overwrites the snapshot stored for st.RunID.
func (c *StateCache) Save(ctx context.Context, st model.FullState) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return c.rdb.Set(ctx, c.key(st.RunID), body, c.ttl).Err()
}

// Latest returns the last stored snapshot of a run, or ErrStateNotFound.
func (c *StateCache) Latest(ctx context.Context, runID string) (model.FullState, error) {
	body, err := c.rdb.Get(ctx, c.key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.FullState{}, ErrStateNotFound
	}
	if err != nil {
		return model.FullState{}, err
	}
	var st model.FullState
	if err := json.Unmarshal(body, &st); err != nil {
		return model.FullState{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return st, nil
}
