package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests — максимальное количество запросов за Window
	MaxRequests int
	// Window — окно фиксированной длины, отсчитывается от первого запроса
	Window time.Duration
	// KeyPrefix — префикс для ключей в Redis
	KeyPrefix string
}

// ExamWriteRateLimitConfig - лимит для сохранения черновика и сдачи листа
func ExamWriteRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	if maxRequests <= 0 {
		maxRequests = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimitConfig{
		MaxRequests: maxRequests,
		Window:      window,
		KeyPrefix:   "rl:exam",
	}
}

// Счетчик и TTL выставляются одной командой: ключ не может остаться без срока жизни.
// Возвращает {count, pttl}.
var incrWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RateLimiter создаёт middleware для rate limiting на основе Redis
type RateLimiter struct {
	redisClient redis.UniversalClient
	timeout     time.Duration
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(redisClient redis.UniversalClient) *RateLimiter {
	return &RateLimiter{redisClient: redisClient, timeout: 2 * time.Second}
}

// rateKey строит ключ из пользователя (или IP для анонимных запросов) и шаблона маршрута
func rateKey(c *gin.Context, prefix string) (key, subject string) {
	subject = "ip:" + c.ClientIP()
	if actor, ok := ActorFromContext(c); ok {
		subject = fmt.Sprintf("user:%d", actor.UserID)
	}
	path := c.FullPath() // например "/api/exams/:paperId/submit"
	if path == "" {
		path = c.Request.URL.Path
	}
	return fmt.Sprintf("%s:%s:%s", prefix, subject, path), subject
}

// hit увеличивает счетчик окна и возвращает число запросов и остаток окна
func (rl *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := incrWindowScript.Run(ctx, rl.redisClient, []string{key}, window.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script reply: %v", res)
	}
	count, ok1 := res[0].(int64)
	ttlMs, ok2 := res[1].(int64)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script reply types: %T, %T", res[0], res[1])
	}
	return count, time.Duration(ttlMs) * time.Millisecond, nil
}

// Limit возвращает Gin middleware с заданной конфигурацией.
// Ошибки Redis не блокируют запрос.
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, subject := rateKey(c, cfg.KeyPrefix)

		ctx, cancel := context.WithTimeout(c.Request.Context(), rl.timeout)
		count, ttl, err := rl.hit(ctx, key, cfg.Window)
		cancel()
		if err != nil {
			log.Printf("[RateLimiter] Redis error for key %s: %v. Allowing request (fail-open).", key, err)
			c.Next()
			return
		}

		remaining := int64(cfg.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		retryAfter := int((ttl + time.Second - 1) / time.Second)

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

		if count > int64(cfg.MaxRequests) {
			log.Printf("[RateLimiter] Rate limit exceeded for %s key=%s. Count=%d, Limit=%d",
				subject, key, count, cfg.MaxRequests)

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
