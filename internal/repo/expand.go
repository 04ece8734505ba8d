package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/domain"
)

// RefExpander 构造一个展开器：收集 pick 返回的全部引用，经 target 一次批量查询后回填 Doc。
// 目标记录不存在时引用保持未展开。
func RefExpander[T, R any](target *Repository[R], pick func(item *T) []*domain.Ref[R]) Expander[T] {
	return func(ctx context.Context, items []T) error {
		var refs []*domain.Ref[R]
		for i := range items {
			refs = append(refs, pick(&items[i])...)
		}
		ids := make([]primitive.ObjectID, 0, len(refs))
		for _, ref := range refs {
			if !ref.IsZero() {
				ids = append(ids, ref.ID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		docs, err := target.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[primitive.ObjectID]*R, len(docs))
		for i := range docs {
			byID[target.IDOf(&docs[i])] = &docs[i]
		}
		for _, ref := range refs {
			if d, ok := byID[ref.ID]; ok {
				ref.Doc = d
			}
		}
		return nil
	}
}
