package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourorg/projectflow/internal/infrastructure/redis"
)

// Persistence stores the serialized session so it survives restarts.
// Load returns (nil, nil) when nothing is persisted.
type Persistence interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// FileStore persists the session to a mode-0600 file, the CLI default.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed persistence at path. An empty path
// resolves to <user config dir>/projectflow/session.json.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "projectflow", "session.json")
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	return data, nil
}

func (f *FileStore) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// RedisStore persists the session in Redis, used by the gateway so a
// restart does not log the operator out.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a Redis-backed persistence under the given key.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "projectflow:session"
	}
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key)
	if redis.IsMissing(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session from redis: %w", err)
	}
	return []byte(val), nil
}

func (r *RedisStore) Save(ctx context.Context, data []byte) error {
	return r.client.Set(ctx, r.key, data, 0)
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Delete(ctx, r.key)
}
