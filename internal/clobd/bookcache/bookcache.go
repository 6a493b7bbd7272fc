// Package bookcache caches a market's best-bid/best-ask snapshot in redis,
// through the *redis.Client pkg/xredis.NewRedis returns. The matching
// engine itself is always authoritative — a cache
// miss or redis outage only costs a recompute, never correctness.
package bookcache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 500 * time.Millisecond
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get returns the cached (bestBid, bestAsk) for marketID, or ok=false on a
// miss, a parse failure, or when rdb is nil (redis disabled).
func (c *Cache) Get(ctx context.Context, marketID string) (bestBid, bestAsk int64, ok bool) {
	if c == nil || c.rdb == nil {
		return 0, 0, false
	}
	val, err := c.rdb.Get(ctx, key(marketID)).Result()
	if err != nil {
		return 0, 0, false
	}
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	bid, err1 := strconv.ParseInt(parts[0], 10, 64)
	ask, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return bid, ask, true
}

// Set refreshes the snapshot. Errors are swallowed — a failed write just
// means the next Get falls back to recomputing from the live book.
func (c *Cache) Set(ctx context.Context, marketID string, bestBid, bestAsk int64) {
	if c == nil || c.rdb == nil {
		return
	}
	val := strconv.FormatInt(bestBid, 10) + ":" + strconv.FormatInt(bestAsk, 10)
	_ = c.rdb.Set(ctx, key(marketID), val, c.ttl).Err()
}

func key(marketID string) string {
	return "clob:book:" + marketID
}
