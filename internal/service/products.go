package service

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shopapi/internal/domain"
	"shopapi/internal/repo"
)

type ProductService struct {
	repo *repo.Repository[domain.Product]
}

func (s *ProductService) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.ID = primitive.NilObjectID
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) List(ctx context.Context, q repo.Query) (*repo.Page[domain.Product], error) {
	return s.repo.List(ctx, q)
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Product, error) {
	return s.repo.Update(ctx, id, patch)
}

func (s *ProductService) Delete(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.Delete(ctx, id)
}

func (s *ProductService) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Product, error) {
	return s.repo.FindByIDs(ctx, ids)
}
