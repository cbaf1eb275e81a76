package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourorg/projectflow/internal/domain"
	"github.com/yourorg/projectflow/internal/infrastructure/redis"
)

// SnapshotStore persists the last fetched project list so a restarted
// gateway can serve tracker lookups before its first refresh completes.
// Load returns (nil, nil) when no snapshot exists.
type SnapshotStore interface {
	Load(ctx context.Context) ([]domain.Project, error)
	Save(ctx context.Context, projects []domain.Project) error
}

const snapshotKey = "projectflow:projects"

// RedisSnapshot stores the project list as JSON in Redis with a TTL, so a
// long-dead snapshot never masquerades as fresh data.
type RedisSnapshot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSnapshot creates a Redis-backed snapshot store.
func NewRedisSnapshot(client *redis.Client, ttl time.Duration) *RedisSnapshot {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &RedisSnapshot{client: client, ttl: ttl}
}

func (s *RedisSnapshot) Load(ctx context.Context) ([]domain.Project, error) {
	val, err := s.client.Get(ctx, snapshotKey)
	if redis.IsMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load project snapshot: %w", err)
	}

	var projects []domain.Project
	if err := json.Unmarshal([]byte(val), &projects); err != nil {
		return nil, fmt.Errorf("decode project snapshot: %w", err)
	}
	return projects, nil
}

func (s *RedisSnapshot) Save(ctx context.Context, projects []domain.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("encode project snapshot: %w", err)
	}
	return s.client.Set(ctx, snapshotKey, data, s.ttl)
}
