// Package cache is an optional Redis read-through cache for day sheets. The
// scheduling engine never sees it; the booking service consults it before
// recomputing a day's classification and the event bus invalidates entries
// when a booking lands or is canceled.
//
// Keys carry room and date but not the classification instant: a cached
// sheet can show a slot as available for up to the TTL after its end passes.
// Submission never trusts the cache, so the window only affects rendering.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DaySheetCache stores classified day sheets as JSON with a TTL.
type DaySheetCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New constructs a cache. A nil client or non-positive TTL yields a cache
// that misses on every read, so callers never need to branch.
func New(rdb *redis.Client, ttl time.Duration) *DaySheetCache {
	return &DaySheetCache{rdb: rdb, ttl: ttl}
}

func (c *DaySheetCache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

func key(roomID int64, day time.Time) string {
	return fmt.Sprintf("daysheet:%d:%s", roomID, day.Format("2006-01-02"))
}

// Get reads a cached day sheet into out. Returns false on any miss or decode
// failure; cache errors are never surfaced to callers.
func (c *DaySheetCache) Get(ctx context.Context, roomID int64, day time.Time, out any) bool {
	if !c.enabled() {
		return false
	}
	val, err := c.rdb.Get(ctx, key(roomID, day)).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

// Set stores a day sheet. Failures are ignored: the cache is best-effort.
func (c *DaySheetCache) Set(ctx context.Context, roomID int64, day time.Time, value any) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, key(roomID, day), data, c.ttl).Err()
}

// Invalidate drops the cached sheet for a room and day.
func (c *DaySheetCache) Invalidate(ctx context.Context, roomID int64, day time.Time) {
	if !c.enabled() {
		return
	}
	_ = c.rdb.Del(ctx, key(roomID, day)).Err()
}
