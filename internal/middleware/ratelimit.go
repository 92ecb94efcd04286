package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	// Max requests per window
	Max int
	// Window duration
	Window time.Duration
	// KeyGenerator picks the bucket a request is counted in
	KeyGenerator func(*fiber.Ctx) string
	Skip         func(*fiber.Ctx) bool
}

// RunKey counts requests per run, falling back to the client IP
func RunKey(c *fiber.Ctx) string {
	if id := c.Params("id"); id != "" {
		return "run:" + id
	}
	return "ip:" + c.IP()
}

// DefaultRateLimitConfig returns default rate limit config
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Max:          600,
		Window:       time.Minute,
		KeyGenerator: RunKey,
	}
}

// RateLimitMiddleware is a sliding window rate limiter backed by Redis
type RateLimitMiddleware struct {
	redis  *redis.Client
	config RateLimitConfig
	logger *zap.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(redisClient *redis.Client, logger *zap.Logger, config ...RateLimitConfig) *RateLimitMiddleware {
	cfg := DefaultRateLimitConfig()
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = RunKey
	}

	return &RateLimitMiddleware{
		redis:  redisClient,
		config: cfg,
		logger: logger,
	}
}

// Handler returns the rate limit handler. Redis failures let the request through.
func (m *RateLimitMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m.config.Skip != nil && m.config.Skip(c) {
			return c.Next()
		}

		key := fmt.Sprintf("tofscope:ratelimit:%s", m.config.KeyGenerator(c))
		now := time.Now()
		windowStart := now.Add(-m.config.Window).UnixNano()
		reset := strconv.FormatInt(now.Add(m.config.Window).Unix(), 10)
		ctx := c.UserContext()

		pipe := m.redis.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(windowStart, 10))
		count := pipe.ZCard(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			m.logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(m.config.Max))
		c.Set("X-RateLimit-Reset", reset)

		if count.Val() >= int64(m.config.Max) {
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("Retry-After", strconv.Itoa(int(m.config.Window.Seconds())))
			return fiber.NewError(fiber.StatusTooManyRequests, "rate limit exceeded")
		}

		pipe = m.redis.TxPipeline()
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(now.UnixNano()),
			Member: fmt.Sprintf("%d:%s", now.UnixNano(), GetRequestID(c)),
		})
		pipe.Expire(ctx, key, m.config.Window*2)
		if _, err := pipe.Exec(ctx); err != nil {
			m.logger.Warn("failed to record request for rate limiting", zap.Error(err))
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(m.config.Max-int(count.Val())-1))
		return c.Next()
	}
}
