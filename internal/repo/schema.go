package repo

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/core/apperr"
	"shopapi/internal/domain"
)

const (
	fieldID        = "_id"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
	fieldStatus    = "status"
)

var (
	objectIDType  = reflect.TypeOf(primitive.ObjectID{})
	timeType      = reflect.TypeOf(time.Time{})
	referenceType = reflect.TypeOf((*domain.Reference)(nil)).Elem()
)

type field struct {
	name       string // bson 字段名
	index      []int
	typ        reflect.Type
	filterable bool
	mutable    bool
}

// schema 由记录类型的 bson 标签推导出的字段白名单
type schema struct {
	fields map[string]*field
	order  []string
}

var schemas sync.Map // reflect.Type -> *schema

func schemaOf(t reflect.Type) *schema {
	if s, ok := schemas.Load(t); ok {
		return s.(*schema)
	}
	s := &schema{fields: map[string]*field{}}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		name := strings.SplitN(sf.Tag.Get("bson"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(sf.Name)
		}
		hidden := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0] == "-"
		f := &field{
			name:       name,
			index:      sf.Index,
			typ:        sf.Type,
			filterable: !hidden && scalar(sf.Type),
			mutable:    name != fieldID && name != fieldCreatedAt && name != fieldUpdatedAt,
		}
		s.fields[name] = f
		s.order = append(s.order, name)
	}
	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*schema)
}

func scalar(t reflect.Type) bool {
	if t == objectIDType || t == timeType || t.Implements(referenceType) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// filter 把原始查询键值映射为存储过滤条件：未知/不可过滤的 key 直接丢弃，
// 同一 key 多个值转为 $in。
func (s *schema) filter(raw map[string][]string) (bson.M, error) {
	out := bson.M{}
	for key, vals := range raw {
		f, ok := s.fields[key]
		if !ok || !f.filterable || len(vals) == 0 {
			continue
		}
		coerced := make([]any, 0, len(vals))
		for _, v := range vals {
			c, err := coerce(f.typ, v)
			if err != nil {
				return nil, apperr.InvalidInput(fmt.Sprintf("Invalid value for filter %q", key))
			}
			coerced = append(coerced, c)
		}
		if len(coerced) == 1 {
			out[key] = coerced[0]
		} else {
			out[key] = bson.M{"$in": coerced}
		}
	}
	return out, nil
}

func coerce(t reflect.Type, v string) (any, error) {
	v = strings.TrimSpace(v)
	if t == objectIDType || t.Implements(referenceType) {
		return primitive.ObjectIDFromHex(v)
	}
	if t == timeType {
		return time.Parse(time.RFC3339, v)
	}
	switch t.Kind() {
	case reflect.String:
		return v, nil
	case reflect.Bool:
		return strconv.ParseBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(v, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(v, 10, 63)
		return int64(n), err
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(v, 64)
	}
	return nil, fmt.Errorf("unsupported filter type %s", t)
}

// apply 把 patch 合并进 rec（rec 为指向结构体的 reflect.Value）。
// 未声明或不可变的 key 丢弃；值按字段 Go 类型解码。
func (s *schema) apply(rec reflect.Value, patch map[string]any) error {
	for key, raw := range patch {
		f, ok := s.fields[key]
		if !ok || !f.mutable {
			continue
		}
		b, err := json.Marshal(raw)
		if err != nil {
			return apperr.InvalidInput(fmt.Sprintf("Invalid value for field %s", key))
		}
		p := reflect.New(f.typ)
		if err := json.Unmarshal(b, p.Interface()); err != nil {
			return apperr.InvalidInput(fmt.Sprintf("Invalid value for field %s", key))
		}
		rec.FieldByIndex(f.index).Set(p.Elem())
	}
	return nil
}

// setDoc 收集全部可变字段及 updatedAt，作为 $set 内容
func (s *schema) setDoc(rec reflect.Value) bson.M {
	set := bson.M{}
	for _, name := range s.order {
		f := s.fields[name]
		if f.mutable || name == fieldUpdatedAt {
			set[name] = rec.FieldByIndex(f.index).Interface()
		}
	}
	return set
}

func (s *schema) has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

func (s *schema) get(rec reflect.Value, name string) (reflect.Value, bool) {
	f, ok := s.fields[name]
	if !ok {
		return reflect.Value{}, false
	}
	return rec.FieldByIndex(f.index), true
}

func (s *schema) setIfPresent(rec reflect.Value, name string, v any) {
	if fv, ok := s.get(rec, name); ok && fv.CanSet() {
		val := reflect.ValueOf(v)
		if val.Type().AssignableTo(fv.Type()) {
			fv.Set(val)
		}
	}
}
