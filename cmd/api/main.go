package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shopapi/internal/core/auth"
	"shopapi/internal/core/config"
	"shopapi/internal/core/database"
	"shopapi/internal/core/logger"
	"shopapi/internal/core/redisx"
	"shopapi/internal/core/server"
	"shopapi/internal/service"
	"shopapi/internal/transport/http/middleware"
	"shopapi/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load("")
	if err != nil {
		// logger 还没建好，直接输出到 stderr
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.Options{
		Service:     cfg.App.Name,
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: cfg.App.Env == "local",
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File.Enable,
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	// 数据库（失败直接 Fatal）
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Mongo.TimeoutSec)*time.Second)
	st, err := database.Connect(ctx, database.Opts{
		Driver:     cfg.Mongo.Driver,
		URI:        cfg.Mongo.URI,
		Database:   cfg.Mongo.Database,
		TimeoutSec: cfg.Mongo.TimeoutSec,
	})
	if err != nil {
		cancel()
		log.Fatal("database connect failed", zap.String("uri", database.MaskURI(cfg.Mongo.URI)), zap.Error(err))
	}
	defer st.Close(context.Background())
	log.Info("database connected",
		zap.String("driver", cfg.Mongo.Driver),
		zap.String("uri", database.MaskURI(cfg.Mongo.URI)),
		zap.String("db", cfg.Mongo.Database),
	)

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		Leeway: time.Duration(cfg.JWT.LeewaySec) * time.Second,
	}
	set := service.NewSet(st, service.Settings{
		BcryptCost:   cfg.Security.BcryptCost,
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}, jwter, log)
	if err := set.EnsureIndexes(ctx); err != nil {
		cancel()
		log.Fatal("ensure indexes failed", zap.Error(err))
	}
	cancel()

	// Redis 可选：配置了才启用跨实例限流
	var counter middleware.Counter
	if cfg.Redis.Addr != "" {
		rc := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, pcancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rc.Ping(pctx); err != nil {
			log.Warn("redis unavailable, falling back to local rate limit", zap.Error(err))
			_ = rc.Close()
		} else {
			counter = rc
			defer rc.Close()
		}
		pcancel()
	}

	mode := gin.ReleaseMode
	if cfg.App.Env == "local" {
		mode = gin.DebugMode
	}
	r := router.NewAPIEngine(router.Deps{
		Log:    log,
		Prefix: cfg.App.Prefix,
		Server: server.Options{Mode: mode, CORSOrigins: cfg.App.CORSOrigins},
		Limits: router.Limits{
			RPS:            cfg.Limits.RPS,
			Burst:          cfg.Limits.Burst,
			MaxInFlight:    cfg.Limits.MaxInFlight,
			MaxBodyBytes:   cfg.Limits.MaxBodyBytes,
			RequestTimeout: time.Duration(cfg.Limits.RequestTimeoutSec) * time.Second,
		},
		Services: set,
		JWT:      jwter,
		Store:    st,
		Counter:  counter,
	})

	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
		log,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("shop api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+cfg.App.Prefix),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil {
			log.Fatal("shop api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	if err := server.Shutdown(srv, 10*time.Second); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("shop api stopped gracefully")
}
