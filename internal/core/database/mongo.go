package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"shopapi/internal/store"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

type Opts struct {
	Driver     string // mongo | memory
	URI        string
	Database   string
	TimeoutSec int
}

// Connect 建立进程级唯一的存储句柄；mongo 驱动会在超时内 Ping 主节点，失败即返回错误
func Connect(ctx context.Context, o Opts) (store.Store, error) {
	switch o.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "mongo", "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
	}

	timeout := time.Duration(o.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	clientOpts := options.Client().
		ApplyURI(o.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect %s: %w", MaskURI(o.URI), err)
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping %s: %w", MaskURI(o.URI), err)
	}
	return store.NewMongoStore(client, o.Database), nil
}

// MaskURI 日志里隐藏连接串中的密码
func MaskURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
