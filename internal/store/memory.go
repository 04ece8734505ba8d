package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore 进程内文档存储（driver=memory），语义上对齐 MongoStore 的子集
type MemoryStore struct {
	mu    sync.Mutex
	colls map[string]*memCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{colls: map[string]*memCollection{}}
}

func (s *MemoryStore) Collection(name string) Collection { return s.coll(name) }

func (s *MemoryStore) coll(name string) *memCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.colls[name]
	if !ok {
		c = &memCollection{name: name}
		s.colls[name] = c
	}
	return c
}

func (s *MemoryStore) EnsureIndexes(_ context.Context, collection string, specs []IndexSpec) error {
	c := s.coll(collection)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sp := range specs {
		if sp.Unique {
			c.unique = append(c.unique, append([]string(nil), sp.Keys...))
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

type memCollection struct {
	name   string
	mu     sync.RWMutex
	docs   []bson.M
	unique [][]string
}

func (c *memCollection) Name() string { return c.name }

func (c *memCollection) Insert(ctx context.Context, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := toDoc(doc)
	if err != nil {
		return err
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUnique(m, -1); err != nil {
		return err
	}
	c.docs = append(c.docs, m)
	return nil
}

func (c *memCollection) Find(ctx context.Context, filter bson.M, w Window, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	var hits []bson.M
	for _, d := range c.docs {
		if matches(d, filter) {
			hits = append(hits, d)
		}
	}
	c.mu.RUnlock()

	if w.Skip > 0 {
		if w.Skip >= int64(len(hits)) {
			hits = nil
		} else {
			hits = hits[w.Skip:]
		}
	}
	if w.Limit > 0 && int64(len(hits)) > w.Limit {
		hits = hits[:w.Limit]
	}
	return decodeAll(hits, out)
}

func (c *memCollection) FindOne(ctx context.Context, filter bson.M, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(filter)
	if i < 0 {
		return ErrNotFound
	}
	return decode(c.docs[i], out)
}

func (c *memCollection) Count(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, d := range c.docs {
		if matches(d, filter) {
			n++
		}
	}
	return n, nil
}

func (c *memCollection) UpdateOne(ctx context.Context, filter bson.M, set bson.M, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	patch, err := toDoc(set)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(filter)
	if i < 0 {
		return ErrNotFound
	}
	next := make(bson.M, len(c.docs[i])+len(patch))
	for k, v := range c.docs[i] {
		next[k] = v
	}
	for k, v := range patch {
		next[k] = v
	}
	if err := c.checkUnique(next, i); err != nil {
		return err
	}
	c.docs[i] = next
	return decode(next, out)
}

func (c *memCollection) DeleteOne(ctx context.Context, filter bson.M, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(filter)
	if i < 0 {
		return ErrNotFound
	}
	doc := c.docs[i]
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return decode(doc, out)
}

// 调用方需持有锁
func (c *memCollection) indexOf(filter bson.M) int {
	for i, d := range c.docs {
		if matches(d, filter) {
			return i
		}
	}
	return -1
}

// 调用方需持有写锁；self 为正在更新的文档下标（插入时为 -1）
func (c *memCollection) checkUnique(doc bson.M, self int) error {
	for _, keys := range c.unique {
		probe := bson.M{}
		complete := true
		for _, k := range keys {
			v, ok := doc[k]
			if !ok || v == nil {
				complete = false
				break
			}
			probe[k] = v
		}
		if !complete {
			continue
		}
		for i, d := range c.docs {
			if i != self && matches(d, probe) {
				return fmt.Errorf("%w: %s index %s", ErrDuplicate, c.name, strings.Join(keys, "_"))
			}
		}
	}
	return nil
}

func matches(doc, filter bson.M) bool {
	for k, want := range filter {
		got := doc[k]
		if op, ok := want.(bson.M); ok {
			if in, ok := op["$in"]; ok {
				if !inSlice(got, in) {
					return false
				}
				continue
			}
		}
		if !equalValue(got, want) {
			return false
		}
	}
	return true
}

func inSlice(got, list any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equalValue(got, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func equalValue(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	if t, ok := b.(time.Time); ok {
		b = primitive.NewDateTimeFromTime(t)
	}
	if t, ok := a.(time.Time); ok {
		a = primitive.NewDateTimeFromTime(t)
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// toDoc 通过 BSON 往返得到规范化的 bson.M（与真实驱动写入后的类型一致）
func toDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: marshal: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("store: unmarshal: %w", err)
	}
	return m, nil
}

func decode(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func decodeAll(docs []bson.M, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("store: out must be a pointer to a slice, got %T", out)
	}
	slice := rv.Elem()
	elem := slice.Type().Elem()
	res := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, d := range docs {
		p := reflect.New(elem)
		if err := decode(d, p.Interface()); err != nil {
			return err
		}
		res = reflect.Append(res, p.Elem())
	}
	slice.Set(res)
	return nil
}
