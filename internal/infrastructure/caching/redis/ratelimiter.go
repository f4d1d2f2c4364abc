package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// FixedWindowLimiter counts hits per key in a window that starts on the first hit.
type FixedWindowLimiter struct {
	rdb *goredis.Client
}

func NewFixedWindowLimiter(c *Client) *FixedWindowLimiter {
	if c == nil {
		return &FixedWindowLimiter{}
	}
	return &FixedWindowLimiter{rdb: c.rdb}
}

type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	Count      int
}

const fixedWindowLua = `
local c = redis.call("INCR", KEYS[1])
if c == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {c, ttl}
`

// AllowFixedWindow fails open when Redis is not configured.
func (l *FixedWindowLimiter) AllowFixedWindow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || l.rdb == nil {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	if window < time.Millisecond {
		window = time.Minute
	}

	res, err := l.rdb.Eval(ctx, fixedWindowLua, []string{key}, window.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit redis eval: %w", err)
	}
	arr, ok := res.([]any)
	if !ok || len(arr) != 2 {
		return Decision{}, fmt.Errorf("ratelimit redis eval: unexpected result %T", res)
	}
	count, ok1 := arr[0].(int64)
	ttlMs, ok2 := arr[1].(int64)
	if !ok1 || !ok2 {
		return Decision{}, fmt.Errorf("ratelimit redis eval: unexpected element types")
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
