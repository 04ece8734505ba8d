package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	resp "shopapi/internal/transport/http/response"
)

// RateLimitPerIP 进程内每 IP 令牌桶；idle 超过 ttl 的桶会被回收
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	type entry struct {
		lim  *rate.Limiter
		seen time.Time
	}
	const ttl = 10 * time.Minute
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*entry)
		lastSweep = time.Now()
	)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > ttl {
			for k, e := range buckets {
				if now.Sub(e.seen) > ttl {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		e, ok := buckets[ip]
		if !ok {
			e = &entry{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = e
		}
		e.seen = now
		allowed := e.lim.Allow()
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "")
	}
}

// Counter 跨实例共享的固定窗口计数器（redisx.Client 实现）
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitShared 每 IP 每窗口最多 limit 次；计数器不可用时放行并记录告警
func RateLimitShared(counter Counter, limit int64, window time.Duration, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := counter.Hit(c.Request.Context(), c.ClientIP(), window)
		if err != nil {
			l.Warn("rate limit counter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if n > limit {
			resp.Abort(c, http.StatusTooManyRequests, "")
			return
		}
		c.Next()
	}
}
