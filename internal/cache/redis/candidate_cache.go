package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/swingdesk/internal/domain"
)

const candidatesKey = "candidates:latest"

// CandidateCache stores the latest scan as one JSON document so that a read
// never mixes two scans.
type CandidateCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCandidateCache creates a CandidateCache. Zero ttl keeps the scan until
// it is replaced.
func NewCandidateCache(c *Client, ttl time.Duration) *CandidateCache {
	return &CandidateCache{rdb: c.rdb, ttl: ttl}
}

// Put replaces the stored scan.
func (cc *CandidateCache) Put(ctx context.Context, candidates []domain.Candidate) error {
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("redis: marshal candidates: %w", err)
	}
	if err := cc.rdb.Set(ctx, candidatesKey, data, cc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: put candidates: %w", err)
	}
	return nil
}

// List returns the stored scan, or an empty slice when none exists.
func (cc *CandidateCache) List(ctx context.Context) ([]domain.Candidate, error) {
	data, err := cc.rdb.Get(ctx, candidatesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.Candidate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: list candidates: %w", err)
	}

	var out []domain.Candidate
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("redis: unmarshal candidates: %w", err)
	}
	return out, nil
}

var _ domain.CandidateStore = (*CandidateCache)(nil)
