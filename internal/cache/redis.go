package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/khelset/internal/undo"
)

// RedisCache wraps the Redis client shared by the snapshot store and the
// live publisher.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Client returns the underlying Redis client
func (rc *RedisCache) Client() *redis.Client {
	return rc.client
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Set stores a key-value pair with TTL
func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a value by key
func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

// Delete removes a key
func (rc *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}

// SnapshotStore keeps undo snapshots in Redis so they survive a restart of
// the scoring service.
type SnapshotStore struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewSnapshotStore creates a snapshot store. A zero ttl keeps keys forever.
func NewSnapshotStore(cache *RedisCache, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{cache: cache, ttl: ttl}
}

func snapshotKey(matchID string) string {
	return fmt.Sprintf("undo:match:%s", matchID)
}

// Save implements undo.Store.
func (s *SnapshotStore) Save(ctx context.Context, matchID string, data []byte) error {
	return s.cache.Set(ctx, snapshotKey(matchID), data, s.ttl)
}

// Load implements undo.Store.
func (s *SnapshotStore) Load(ctx context.Context, matchID string) ([]byte, error) {
	data, err := s.cache.Client().Get(ctx, snapshotKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, undo.ErrSnapshotNotFound
	}
	return data, err
}

// Delete implements undo.Store.
func (s *SnapshotStore) Delete(ctx context.Context, matchID string) error {
	return s.cache.Delete(ctx, snapshotKey(matchID))
}
