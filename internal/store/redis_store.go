package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding valid user ids.
const DefaultRedisKey = "post:valid_users"

// RedisUserCacheStore keeps valid user ids as fields of a single Redis hash.
// The field value is the last refresh time in unix milliseconds.
type RedisUserCacheStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisUserCacheStore creates a hash-backed user cache store on an existing client.
func NewRedisUserCacheStore(client *redis.Client, key string) *RedisUserCacheStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisUserCacheStore{client: client, key: key, now: time.Now}
}

func (s *RedisUserCacheStore) Upsert(ctx context.Context, userID string) error {
	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.client.HSet(ctx, s.key, userID, stamp).Err(); err != nil {
		return fmt.Errorf("redis upsert cached user: %w", err)
	}
	return nil
}

func (s *RedisUserCacheStore) Remove(ctx context.Context, userID string) error {
	if err := s.client.HDel(ctx, s.key, userID).Err(); err != nil {
		return fmt.Errorf("redis remove cached user: %w", err)
	}
	return nil
}

func (s *RedisUserCacheStore) Exists(ctx context.Context, userID string) (bool, error) {
	ok, err := s.client.HExists(ctx, s.key, userID).Result()
	if err != nil {
		return false, fmt.Errorf("redis lookup cached user: %w", err)
	}
	return ok, nil
}

func (s *RedisUserCacheStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.HLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count cached users: %w", err)
	}
	return n, nil
}

// Ensure interface is satisfied at compile time.
var _ UserCacheStore = (*RedisUserCacheStore)(nil)
