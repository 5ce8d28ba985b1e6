package api

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// incrWithTTL 自增计数，首次写入时设置过期时间。
// 设置过期失败会返回错误，否则该 key 会永久累积导致会话被一直限流。
func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := client.Expire(ctx, key, ttl).Err(); err != nil {
			return count, fmt.Errorf("set ttl on %q: %w", key, err)
		}
	}
	return count, nil
}

// fixedWindow 是按会话计数的固定窗口限流器，计数保存在 Redis。
type fixedWindow struct {
	counter redisRateCounter
	prefix  string
	limit   int
	window  time.Duration
}

func (w fixedWindow) enabled() bool {
	return w.counter != nil && w.limit > 0
}

func (w fixedWindow) key(id string) string {
	return w.prefix + ":" + id
}

// allow 记一次调用并判断是否仍在额度内。Redis 出错时返回 err，由调用方决定是否放行。
func (w fixedWindow) allow(ctx context.Context, id string) (bool, error) {
	if !w.enabled() {
		return true, nil
	}
	count, err := incrWithTTL(ctx, w.counter, w.key(id), w.window)
	if err != nil {
		return true, err
	}
	return count <= int64(w.limit), nil
}
