package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and sets its expiry on the first
// hit of a window. Returns {count, ttl_ms}.
var fixedWindowScript = goredis.NewScript(`
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {c, ttl}
`)

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	Count      int
}

// FixedWindowLimiter counts hits per key in redis. A nil client disables
// limiting and every call is allowed.
type FixedWindowLimiter struct {
	rdb goredis.Scripter
}

func NewFixedWindowLimiter(rdb *goredis.Client) *FixedWindowLimiter {
	if rdb == nil {
		return &FixedWindowLimiter{}
	}
	return &FixedWindowLimiter{rdb: rdb}
}

func (l *FixedWindowLimiter) Enabled() bool {
	return l != nil && l.rdb != nil
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || !l.Enabled() {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window < time.Millisecond {
		window = time.Minute
	}

	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{key}, window.Milliseconds()).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit redis eval: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("ratelimit redis eval: unexpected result length %d", len(res))
	}
	count, ok1 := res[0].(int64)
	ttlMs, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return Decision{}, fmt.Errorf("ratelimit redis eval: unexpected result type")
	}

	d := Decision{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: max(0, limit-int(count)),
		Count:     int(count),
	}
	if !d.Allowed {
		d.RetryAfter = window
		if ttlMs > 0 {
			d.RetryAfter = time.Duration(ttlMs) * time.Millisecond
		}
	}
	return d, nil
}
