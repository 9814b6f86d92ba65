package infra

import (
	"context"
	"strconv"
	"time"

	"printjobs-api/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisWindowStore implementa domain.WindowStore sobre um sorted set do Redis.
//
// Score = timestamp em microssegundos Unix (cabe exato em float64).
// Cada método é um único comando, atômico no Redis.
type RedisWindowStore struct {
	rdb redis.UniversalClient
}

func NewRedisWindowStore(rdb redis.UniversalClient) *RedisWindowStore {
	return &RedisWindowStore{rdb: rdb}
}

func (s *RedisWindowStore) Time(ctx context.Context) (time.Time, error) {
	return s.rdb.Time(ctx).Result()
}

func (s *RedisWindowStore) RemoveBefore(ctx context.Context, key domain.Key, cutoff time.Time) (int64, error) {
	// "(" = exclusivo: remove apenas score < cutoff
	return s.rdb.ZRemRangeByScore(ctx, string(key), "-inf", "("+score(cutoff)).Result()
}

func (s *RedisWindowStore) Card(ctx context.Context, key domain.Key) (int64, error) {
	return s.rdb.ZCard(ctx, string(key)).Result()
}

func (s *RedisWindowStore) Insert(ctx context.Context, key domain.Key, member string, at time.Time) error {
	return s.rdb.ZAdd(ctx, string(key), redis.Z{
		Score:  float64(at.UnixMicro()),
		Member: member,
	}).Err()
}

func (s *RedisWindowStore) Expire(ctx context.Context, key domain.Key, ttl time.Duration) error {
	return s.rdb.Expire(ctx, string(key), ttl).Err()
}

func (s *RedisWindowStore) TTL(ctx context.Context, key domain.Key) (time.Duration, error) {
	return s.rdb.TTL(ctx, string(key)).Result()
}

func score(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}
