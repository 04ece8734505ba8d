package router

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shopapi/internal/core/auth"
	"shopapi/internal/core/server"
	"shopapi/internal/service"
	"shopapi/internal/store"
	"shopapi/internal/transport/http/handler"
	mdw "shopapi/internal/transport/http/middleware"
	resp "shopapi/internal/transport/http/response"
)

type Limits struct {
	RPS            float64
	Burst          int
	MaxInFlight    int64
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

type Deps struct {
	Log      *zap.Logger
	Prefix   string // 例：/api
	Server   server.Options
	Limits   Limits
	Services *service.Set
	JWT      *auth.JWTer
	Store    store.Store // /health 探活
	Counter  mdw.Counter // 非空时使用跨实例限流
}

// sharedPerSecond 跨实例限流每秒窗口的次数，与本地令牌桶使用同一个 RPS
func sharedPerSecond(lim Limits) int64 {
	return max(1, int64(math.Ceil(lim.RPS)))
}

// NewAPIEngine 组装中间件链与全部路由
func NewAPIEngine(d Deps) *gin.Engine {
	l := d.Log
	if l == nil {
		l = zap.NewNop()
	}
	r := server.NewRouter(d.Server)

	r.Use(mdw.RequestID(), mdw.Metrics(), mdw.AccessLog(l), mdw.Recovery(l))
	switch {
	case d.Counter != nil:
		r.Use(mdw.RateLimitShared(d.Counter, sharedPerSecond(d.Limits), time.Second, l))
	case d.Limits.RPS > 0:
		r.Use(mdw.RateLimitPerIP(rate.Limit(d.Limits.RPS), max(1, d.Limits.Burst)))
	}
	if d.Limits.MaxInFlight > 0 {
		r.Use(mdw.ConcurrencyLimit(d.Limits.MaxInFlight))
	}
	if d.Limits.MaxBodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(d.Limits.MaxBodyBytes))
	}
	if d.Limits.RequestTimeout > 0 {
		r.Use(mdw.Timeout(d.Limits.RequestTimeout))
	}
	r.Use(mdw.ErrorRenderer(l))

	r.GET("/health", func(c *gin.Context) {
		if d.Store != nil {
			if err := d.Store.Ping(c.Request.Context()); err != nil {
				l.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, resp.Fail("Database unavailable", nil))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK("OK", gin.H{"status": "up"}))
	})
	r.GET("/metrics", mdw.MetricsHandler())

	public := r.Group(d.Prefix)
	protected := r.Group(d.Prefix)
	protected.Use(mdw.Auth(d.JWT))

	s := d.Services
	MountAll(public, protected,
		handler.NewAuthHandler(s.Auth),
		handler.NewUserHandler(s.Users),
		handler.NewProductHandler(s.Products),
		handler.NewOrderHandler(s.Orders),
	)
	return r
}
