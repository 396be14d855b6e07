package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learning-center-api/utils/cache"
	"github.com/sahilchouksey/learning-center-api/utils/response"
)

// attemptWindow is how long failed attempts are remembered
const attemptWindow = 15 * time.Minute

// BruteForceProtection throttles login attempts per client IP using Redis.
// A nil cache disables it.
type BruteForceProtection struct {
	redisCache *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{
		redisCache: redisCache,
	}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }
func loginKey(login string) string {
	return fmt.Sprintf("brute_force:login:%s", strings.ToLower(login))
}

// LockoutFor returns the lockout applied after the given number of failures
func LockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// CheckAndRecordAttempt rejects requests from locked out IPs
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b == nil || b.redisCache == nil {
			return c.Next()
		}

		ctx := c.UserContext()
		locked, err := b.redisCache.Exists(ctx, lockKey(c.IP()))
		if err != nil {
			// Redis outages must not lock everybody out
			return c.Next()
		}

		if locked {
			ttl, _ := b.redisCache.TTL(ctx, lockKey(c.IP()))
			retryAfter := int(ttl.Seconds())
			if retryAfter <= 0 {
				retryAfter = 60
			}

			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedAttempt counts a failed login for the IP and the login name
// and applies progressive lockouts to the IP
func (b *BruteForceProtection) RecordFailedAttempt(ctx context.Context, ip, login string) {
	if b == nil || b.redisCache == nil {
		return
	}

	attempts, err := b.redisCache.Increment(ctx, attemptKey(ip))
	if err != nil {
		return
	}
	if attempts == 1 {
		_ = b.redisCache.Expire(ctx, attemptKey(ip), attemptWindow)
	}

	if login != "" {
		if n, err := b.redisCache.Increment(ctx, loginKey(login)); err == nil && n == 1 {
			_ = b.redisCache.Expire(ctx, loginKey(login), attemptWindow)
		}
	}

	if lock := LockoutFor(attempts); lock > 0 {
		_ = b.redisCache.Set(ctx, lockKey(ip), "locked", lock)
	}
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(ctx context.Context, ip, login string) {
	if b == nil || b.redisCache == nil {
		return
	}
	_ = b.redisCache.Delete(ctx, attemptKey(ip), lockKey(ip), loginKey(login))
}
