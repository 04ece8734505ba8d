package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shopapi/internal/core/logger"
	resp "shopapi/internal/transport/http/response"
)

type Options struct {
	Mode        string   // debug | release | test，空则不改
	CORSOrigins []string // 为空则放行所有来源
}

// NewRouter 裸引擎 + CORS + 统一 404/405 信封；日志与恢复由 API 层中间件链负责
func NewRouter(opt Options) *gin.Engine {
	if opt.Mode != "" {
		gin.SetMode(opt.Mode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(cors.New(corsConfig(opt.CORSOrigins)))
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "Route not found") })
	r.NoMethod(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "Route not found") })
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", "X-Request-ID")
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

// StartHTTP 阻塞直到服务关闭；正常 Shutdown 不算错误
func StartHTTP(srv *http.Server, l *zap.Logger) error {
	l.Info("http starting", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭，最多等待 grace
func Shutdown(srv *http.Server, grace time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return srv.Shutdown(ctx)
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration, l *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    rt,
		WriteTimeout:   wt,
		IdleTimeout:    it,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	if l != nil {
		srv.ErrorLog = logger.ToStdLogger(l, zapcore.WarnLevel)
	}
	return srv
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
