package domain

import (
	"encoding/json"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidRef = errors.New("reference must be a valid id string")

// Ref 指向另一个集合中的记录。存储时只落 ObjectID；
// 展开（with=...）后 Doc 非空，JSON 输出为内嵌记录，否则输出 id 字符串。
type Ref[T any] struct {
	ID  primitive.ObjectID
	Doc *T
}

func NewRef[T any](id primitive.ObjectID) Ref[T] { return Ref[T]{ID: id} }

// ParseRef 从十六进制字符串构造引用
func ParseRef[T any](hex string) (Ref[T], error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return Ref[T]{}, ErrInvalidRef
	}
	return Ref[T]{ID: id}, nil
}

func (r Ref[T]) IsZero() bool { return r.ID.IsZero() }

// Reference 由所有 Ref[T] 实现，供仓储识别引用字段
type Reference interface {
	RefID() primitive.ObjectID
}

func (r Ref[T]) RefID() primitive.ObjectID { return r.ID }

func (r Ref[T]) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.ID)
}

func (r *Ref[T]) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	r.Doc = nil
	if t == bson.TypeNull || t == bson.TypeUndefined {
		r.ID = primitive.NilObjectID
		return nil
	}
	return bson.RawValue{Type: t, Value: data}.Unmarshal(&r.ID)
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.Doc != nil {
		return json.Marshal(r.Doc)
	}
	if r.ID.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID.Hex())
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidRef
	}
	ref, err := ParseRef[T](s)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
