// Package service holds the per-resource services composed over the generic
// repository, the order workflow and login.
package service

import (
	"context"

	"go.uber.org/zap"

	"shopapi/internal/core/auth"
	"shopapi/internal/domain"
	"shopapi/internal/repo"
	"shopapi/internal/store"
)

type Settings struct {
	BcryptCost   int
	DefaultLimit int
	MaxLimit     int
}

// Set 进程内唯一的一组服务，由 main 显式构造后注入路由
type Set struct {
	Users    *UserService
	Products *ProductService
	Orders   *OrderService
	Auth     *AuthService
	store    store.Store
}

func NewSet(st store.Store, s Settings, jwter *auth.JWTer, l *zap.Logger) *Set {
	if l == nil {
		l = zap.NewNop()
	}
	opts := func(name string) repo.Options {
		return repo.Options{Name: name, DefaultLimit: s.DefaultLimit, MaxLimit: s.MaxLimit}
	}
	users := repo.New[domain.User](st.Collection(domain.CollectionUsers), opts("User"))
	products := repo.New[domain.Product](st.Collection(domain.CollectionProducts), opts("Product"))
	orders := repo.New[domain.Order](st.Collection(domain.CollectionOrders), opts("Order"))

	orders.Register("user", repo.RefExpander(users, func(o *domain.Order) []*domain.Ref[domain.User] {
		return []*domain.Ref[domain.User]{&o.User}
	}))
	orders.Register("products.product", repo.RefExpander(products, func(o *domain.Order) []*domain.Ref[domain.Product] {
		refs := make([]*domain.Ref[domain.Product], 0, len(o.Products))
		for i := range o.Products {
			refs = append(refs, &o.Products[i].Product)
		}
		return refs
	}))

	return &Set{
		Users:    &UserService{repo: users, cost: s.BcryptCost},
		Products: &ProductService{repo: products},
		Orders:   &OrderService{repo: orders, products: products, log: l.Named("orders")},
		Auth:     &AuthService{users: users, jwt: jwter, log: l.Named("auth")},
		store:    st,
	}
}

// indexes 唯一约束由存储层保证
var indexes = map[string][]store.IndexSpec{
	domain.CollectionUsers: {
		{Keys: []string{"username"}, Unique: true},
		{Keys: []string{"email"}, Unique: true},
	},
	domain.CollectionProducts: {
		{Keys: []string{"productCode"}, Unique: true},
		{Keys: []string{"name"}, Unique: true},
	},
	domain.CollectionOrders: {
		{Keys: []string{"user"}},
	},
}

// EnsureIndexes 幂等
func (s *Set) EnsureIndexes(ctx context.Context) error {
	for _, coll := range []string{domain.CollectionUsers, domain.CollectionProducts, domain.CollectionOrders} {
		if err := s.store.EnsureIndexes(ctx, coll, indexes[coll]); err != nil {
			return err
		}
	}
	return nil
}
