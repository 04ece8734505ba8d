// Package repo implements the generic list/CRUD engine shared by every resource:
// whitelisted equality filters, page/limit windows, relation expansion and
// post-write returns over a store.Collection.
package repo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"shopapi/internal/core/apperr"
	"shopapi/internal/core/validate"
	"shopapi/internal/store"
)

const DefaultLimit = 20

// Expander 就地展开一批记录上的某个引用关系
type Expander[T any] func(ctx context.Context, items []T) error

type Options struct {
	Name         string // 记录名，用于 "<Name> not found" 等消息
	DefaultLimit int
	MaxLimit     int // 0 表示不限制
	Now          func() time.Time
}

type Repository[T any] struct {
	coll      store.Collection
	opts      Options
	schema    *schema
	expanders map[string]Expander[T]
}

// normalizer 由需要在写入前规范化输入的记录类型实现
type normalizer interface{ Normalize() }

func New[T any](coll store.Collection, opts Options) *Repository[T] {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.Name == "" {
		opts.Name = "Record"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	var zero T
	return &Repository[T]{
		coll:      coll,
		opts:      opts,
		schema:    schemaOf(reflect.TypeOf(zero)),
		expanders: map[string]Expander[T]{},
	}
}

// Register 注册 with=name 对应的展开器；应在开始处理请求前完成
func (r *Repository[T]) Register(name string, e Expander[T]) { r.expanders[name] = e }

func (r *Repository[T]) Name() string { return r.opts.Name }

func (r *Repository[T]) now() time.Time {
	return r.opts.Now().UTC().Truncate(time.Millisecond)
}

func (r *Repository[T]) notFound() error { return apperr.NotFound(r.opts.Name + " not found") }

// Create 补全 _id/createdAt/updatedAt，规范化并校验后写入
func (r *Repository[T]) Create(ctx context.Context, rec *T) error {
	rv := reflect.ValueOf(rec).Elem()
	if id, ok := r.schema.get(rv, fieldID); ok && id.Interface() == primitive.NilObjectID {
		id.Set(reflect.ValueOf(primitive.NewObjectID()))
	}
	now := r.now()
	r.schema.setIfPresent(rv, fieldCreatedAt, now)
	r.schema.setIfPresent(rv, fieldUpdatedAt, now)
	if n, ok := any(rec).(normalizer); ok {
		n.Normalize()
	}
	if err := validate.Struct(rec); err != nil {
		return err
	}
	if err := r.coll.Insert(ctx, rec); err != nil {
		return r.storeErr(err)
	}
	return nil
}

func (r *Repository[T]) List(ctx context.Context, q Query) (*Page[T], error) {
	return r.ListWhere(ctx, nil, q)
}

// ListWhere 在服务端条件 base 之上叠加查询过滤；同名 key 以 base 为准
func (r *Repository[T]) ListWhere(ctx context.Context, base bson.M, q Query) (*Page[T], error) {
	filter, err := r.schema.filter(q.Filters)
	if err != nil {
		return nil, err
	}
	for k, v := range base {
		filter[k] = v
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = r.opts.DefaultLimit
	}
	if r.opts.MaxLimit > 0 && limit > r.opts.MaxLimit {
		limit = r.opts.MaxLimit
	}
	w := store.Window{Skip: skipFor(page, limit), Limit: int64(limit)}

	// 计数与取页互相独立，并发执行
	var (
		total int64
		items []T
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.coll.Count(gctx, filter)
		total = n
		return err
	})
	g.Go(func() error {
		return r.coll.Find(gctx, filter, w, &items)
	})
	if err := g.Wait(); err != nil {
		return nil, r.storeErr(err)
	}
	if items == nil {
		items = []T{}
	}
	if err := r.expand(ctx, items, q.With); err != nil {
		return nil, err
	}
	return &Page[T]{
		Items: items,
		Total: total,
		Page:  page,
		Pages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// GetByID 非法 id 与不存在一样返回 NotFound
func (r *Repository[T]) GetByID(ctx context.Context, id string, with ...string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, r.notFound()
	}
	var rec T
	if err := r.coll.FindOne(ctx, bson.M{fieldID: oid}, &rec); err != nil {
		return nil, r.storeErr(err)
	}
	if len(with) > 0 {
		one := []T{rec}
		if err := r.expand(ctx, one, with); err != nil {
			return nil, err
		}
		rec = one[0]
	}
	return &rec, nil
}

// FindOne 按服务端构造的条件查找单条记录
func (r *Repository[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var rec T
	if err := r.coll.FindOne(ctx, filter, &rec); err != nil {
		return nil, r.storeErr(err)
	}
	return &rec, nil
}

// FindByIDs 一次 $in 批量查询，不分页；不存在的 id 不报错
func (r *Repository[T]) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]T, error) {
	uniq := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	var out []T
	if len(uniq) == 0 {
		return out, nil
	}
	if err := r.coll.Find(ctx, bson.M{fieldID: bson.M{"$in": uniq}}, store.Window{}, &out); err != nil {
		return nil, r.storeErr(err)
	}
	return out, nil
}

// Update 把 patch 合并到当前记录，重新规范化与校验后整体 $set，返回更新后的记录
func (r *Repository[T]) Update(ctx context.Context, id string, patch map[string]any) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, r.notFound()
	}
	filter := bson.M{fieldID: oid}
	var cur T
	if err := r.coll.FindOne(ctx, filter, &cur); err != nil {
		return nil, r.storeErr(err)
	}
	rv := reflect.ValueOf(&cur).Elem()
	if err := r.schema.apply(rv, patch); err != nil {
		return nil, err
	}
	if n, ok := any(&cur).(normalizer); ok {
		n.Normalize()
	}
	if err := validate.Struct(&cur); err != nil {
		return nil, err
	}
	r.schema.setIfPresent(rv, fieldUpdatedAt, r.now())

	var out T
	if err := r.coll.UpdateOne(ctx, filter, r.schema.setDoc(rv), &out); err != nil {
		return nil, r.storeErr(err)
	}
	return &out, nil
}

// Delete 返回被删除的记录
func (r *Repository[T]) Delete(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, r.notFound()
	}
	var out T
	if err := r.coll.DeleteOne(ctx, bson.M{fieldID: oid}, &out); err != nil {
		return nil, r.storeErr(err)
	}
	return &out, nil
}

// SetStatus 仅适用于带 status 字段的记录类型
func (r *Repository[T]) SetStatus(ctx context.Context, id, status string) (*T, error) {
	if !r.schema.has(fieldStatus) {
		return nil, apperr.InvalidInput(r.opts.Name + " has no status")
	}
	return r.Update(ctx, id, map[string]any{fieldStatus: status})
}

// IDOf 读取记录的 _id
func (r *Repository[T]) IDOf(rec *T) primitive.ObjectID {
	v, ok := r.schema.get(reflect.ValueOf(rec).Elem(), fieldID)
	if !ok {
		return primitive.NilObjectID
	}
	id, _ := v.Interface().(primitive.ObjectID)
	return id
}

// expand 依次执行请求的展开器；未注册的名字忽略，重复的只执行一次
func (r *Repository[T]) expand(ctx context.Context, items []T, with []string) error {
	if len(items) == 0 {
		return nil
	}
	done := map[string]bool{}
	for _, name := range with {
		e, ok := r.expanders[name]
		if !ok || done[name] {
			continue
		}
		done[name] = true
		if err := e(ctx, items); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository[T]) storeErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return r.notFound()
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict(fmt.Sprintf("%s already exists", r.opts.Name), err)
	case apperr.As(err) != nil:
		return err
	}
	return apperr.Internal("Internal Server Error", err)
}

// skipFor 超大 page 会让 (page-1)*limit 溢出成负数，这里封顶为 MaxInt64（结果为空页）
func skipFor(page, limit int) int64 {
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return math.MaxInt64
	}
	return int64(page-1) * int64(limit)
}
