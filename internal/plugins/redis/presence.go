package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "presence:online"

// RedisPresenceStore mirrors user presence into a single ZSET scored by
// last check-in time. Entries that stop being refreshed age out on read.
type RedisPresenceStore struct {
	rdb *redis.Client
}

func NewRedisPresenceStore(rdb *redis.Client) *RedisPresenceStore {
	return &RedisPresenceStore{rdb: rdb}
}

func (p *RedisPresenceStore) MarkOnline(ctx context.Context, userID string, ttl time.Duration) error {
	err := p.rdb.ZAdd(ctx, presenceKey, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: userID,
	}).Err()
	if err != nil {
		return err
	}
	// Cap the whole set's lifetime so an idle deployment does not leak.
	return p.rdb.Expire(ctx, presenceKey, ttl*2).Err()
}

func (p *RedisPresenceStore) MarkOffline(ctx context.Context, userID string) error {
	return p.rdb.ZRem(ctx, presenceKey, userID).Err()
}

func (p *RedisPresenceStore) OnlineUsers(ctx context.Context) ([]string, error) {
	threshold := time.Now().Add(-2 * time.Minute).Unix()
	// Self-cleaning: drop members that stopped refreshing.
	p.rdb.ZRemRangeByScore(ctx, presenceKey, "-inf", strconv.FormatInt(threshold, 10))
	return p.rdb.ZRange(ctx, presenceKey, 0, -1).Result()
}
