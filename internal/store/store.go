// Package store is the document-store boundary: a small collection contract with a
// MongoDB implementation and an in-memory one used for local runs and tests.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrNotFound  = errors.New("store: document not found")
	ErrDuplicate = errors.New("store: duplicate key")
)

// Window 分页窗口；Limit 为 0 表示不限制
type Window struct {
	Skip  int64
	Limit int64
}

// IndexSpec 描述一个（可能是联合的）升序索引
type IndexSpec struct {
	Keys   []string
	Unique bool
}

// Collection 是仓储层需要的最小文档操作集合。
// filter 只支持顶层字段相等匹配与 {"$in": [...]}。
type Collection interface {
	Name() string
	Insert(ctx context.Context, doc any) error
	Find(ctx context.Context, filter bson.M, w Window, out any) error
	FindOne(ctx context.Context, filter bson.M, out any) error
	Count(ctx context.Context, filter bson.M) (int64, error)
	// UpdateOne 对匹配文档执行 $set，并把更新后的文档解码到 out
	UpdateOne(ctx context.Context, filter bson.M, set bson.M, out any) error
	// DeleteOne 删除匹配文档，并把被删除的文档解码到 out
	DeleteOne(ctx context.Context, filter bson.M, out any) error
}

type Store interface {
	Collection(name string) Collection
	EnsureIndexes(ctx context.Context, collection string, specs []IndexSpec) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
