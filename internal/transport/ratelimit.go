package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimit defines the sending budget enforced by RateLimitedSender.
type RateLimit struct {
	PerSecond int
	PerMinute int
}

// Lua script for atomic rate limit check-and-increment. Checking both
// windows before incrementing avoids the GET -> check -> INCR race that a
// pipeline of individual commands would have.
const limitLuaScript = `
local secondKey = KEYS[1]
local minuteKey = KEYS[2]
local secondLimit = tonumber(ARGV[1])
local minuteLimit = tonumber(ARGV[2])

local secCurrent = tonumber(redis.call("GET", secondKey) or "0")
local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")

if secCurrent + 1 > secondLimit then
    return 0
end
if minCurrent + 1 > minuteLimit then
    return 0
end

local newSec = redis.call("INCR", secondKey)
if newSec == 1 then
    redis.call("EXPIRE", secondKey, 2)
end

local newMin = redis.call("INCR", minuteKey)
if newMin == 1 then
    redis.call("EXPIRE", minuteKey, 120)
end

return 1
`

// RateLimitedSender wraps a Sender with a Redis-backed rate limiter.
// When the budget is exhausted the send is refused with a rate_limited
// outcome; the dispatch coordinator records it like any other failure.
type RateLimitedSender struct {
	next   Sender
	redis  *redis.Client
	limit  RateLimit
	script *redis.Script
}

// NewRateLimitedSender wraps next with the given per-second/per-minute budget.
func NewRateLimitedSender(next Sender, client *redis.Client, limit RateLimit) *RateLimitedSender {
	return &RateLimitedSender{
		next:   next,
		redis:  client,
		limit:  limit,
		script: redis.NewScript(limitLuaScript),
	}
}

// NewRateLimitedSenderFromURL connects to Redis at redisURL and wraps next.
func NewRateLimitedSenderFromURL(next Sender, redisURL string, limit RateLimit) (*RateLimitedSender, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRateLimitedSender(next, client, limit), nil
}

// Send checks the budget atomically, then delegates. A limiter outage fails
// open: an unreachable Redis must not stop the campaign.
func (s *RateLimitedSender) Send(ctx context.Context, msg *Message) (*Result, error) {
	allowed, err := s.allow(ctx)
	if err == nil && !allowed {
		return Failed(FailureRateLimited, "send rate budget exhausted"), nil
	}
	return s.next.Send(ctx, msg)
}

func (s *RateLimitedSender) allow(ctx context.Context) (bool, error) {
	now := time.Now()
	secondKey := fmt.Sprintf("emailpro:ratelimit:sec:%d", now.Unix())
	minuteKey := fmt.Sprintf("emailpro:ratelimit:min:%d", now.Unix()/60)

	res, err := s.script.Run(ctx, s.redis,
		[]string{secondKey, minuteKey},
		s.limit.PerSecond,
		s.limit.PerMinute,
	).Int64()
	if err != nil {
		return true, err
	}
	return res == 1, nil
}

// Close releases the Redis connection.
func (s *RateLimitedSender) Close() error {
	return s.redis.Close()
}
