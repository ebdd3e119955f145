// Package blacklist persists per-source blacklisted asset IDs (C4) across
// restarts in Redis, implementing the source.Blacklist capability.
package blacklist

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed blacklist keyed by source ID, storing blacklisted
// asset IDs in a Redis set per source.
type Store struct {
	client *redis.Client
}

// NewStore builds a blacklist store against the Redis instance at addr.
func NewStore(addr string) *Store {
	return &Store{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewStoreWithClient wraps an already-configured client, letting tests point
// the store at a miniredis instance.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Contains reports whether assetID has been blacklisted for sourceID.
func (s *Store) Contains(ctx context.Context, sourceID, assetID string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key(sourceID), assetID).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist: contains: %w", err)
	}
	return ok, nil
}

// Add blacklists assetID for sourceID.
func (s *Store) Add(ctx context.Context, sourceID, assetID string) error {
	if err := s.client.SAdd(ctx, key(sourceID), assetID).Err(); err != nil {
		return fmt.Errorf("blacklist: add: %w", err)
	}
	return nil
}

// Remove un-blacklists assetID for sourceID. No control-plane route calls
// it.
func (s *Store) Remove(ctx context.Context, sourceID, assetID string) error {
	if err := s.client.SRem(ctx, key(sourceID), assetID).Err(); err != nil {
		return fmt.Errorf("blacklist: remove: %w", err)
	}
	return nil
}

// All returns every blacklisted asset ID for sourceID.
func (s *Store) All(ctx context.Context, sourceID string) ([]string, error) {
	members, err := s.client.SMembers(ctx, key(sourceID)).Result()
	if err != nil {
		return nil, fmt.Errorf("blacklist: all: %w", err)
	}
	return members, nil
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func key(sourceID string) string {
	return "pixelframe:blacklist:" + sourceID
}
