package repositories

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	followStatsKeyPrefix  = "follow_stats:"
	followStatsGenPrefix  = "follow_stats_gen:"
	followersCountField   = "followers_count"
	followingCountField   = "following_count"
	DefaultFollowStatsTTL = 5 * time.Minute
)

// FollowStats holds the cached follower/following counters of one user.
type FollowStats struct {
	FollowersCount int64
	FollowingCount int64
}

// FollowStatsCache is a non-authoritative cache of follow counters.
// Get reports ok=false on a miss.
//
// Every Invalidate bumps the user's generation. A refill must read the
// generation before counting from the store and pass it to Set, which stores
// nothing if an invalidation happened in between.
type FollowStatsCache interface {
	Get(ctx context.Context, userID uint) (stats FollowStats, ok bool, err error)
	Generation(ctx context.Context, userID uint) (int64, error)
	Set(ctx context.Context, userID uint, generation int64, stats FollowStats) (stored bool, err error)
	Invalidate(ctx context.Context, userIDs ...uint) error
}

type RedisFollowStatsCache struct {
	redisClient *redis.Client
	expiration  time.Duration
}

func NewRedisFollowStatsCache(redisClient *redis.Client, expiration time.Duration) *RedisFollowStatsCache {
	if expiration <= 0 {
		expiration = DefaultFollowStatsTTL
	}
	return &RedisFollowStatsCache{
		redisClient: redisClient,
		expiration:  expiration,
	}
}

func (c *RedisFollowStatsCache) Get(ctx context.Context, userID uint) (FollowStats, bool, error) {
	values, err := c.redisClient.HMGet(ctx, followStatsKey(userID), followersCountField, followingCountField).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return FollowStats{}, false, nil
		}
		return FollowStats{}, false, err
	}

	followers, ok1 := parseCount(values[0])
	following, ok2 := parseCount(values[1])
	if !ok1 || !ok2 {
		return FollowStats{}, false, nil
	}
	return FollowStats{FollowersCount: followers, FollowingCount: following}, true, nil
}

func (c *RedisFollowStatsCache) Generation(ctx context.Context, userID uint) (int64, error) {
	gen, err := c.redisClient.Get(ctx, followStatsGenKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisFollowStatsCache) Set(ctx context.Context, userID uint, generation int64, stats FollowStats) (bool, error) {
	key, genKey := followStatsKey(userID), followStatsGenKey(userID)
	stored := false

	err := c.redisClient.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, followersCountField, stats.FollowersCount, followingCountField, stats.FollowingCount)
			pipe.Expire(ctx, key, c.expiration)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

func (c *RedisFollowStatsCache) Invalidate(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			pipe.Incr(ctx, followStatsGenKey(id))
			pipe.Del(ctx, followStatsKey(id))
		}
		return nil
	})
	return err
}

func followStatsKey(userID uint) string {
	return fmt.Sprintf("%s%d", followStatsKeyPrefix, userID)
}

func followStatsGenKey(userID uint) string {
	return fmt.Sprintf("%s%d", followStatsGenPrefix, userID)
}

func parseCount(v interface{}) (int64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
