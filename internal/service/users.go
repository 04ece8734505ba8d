package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"shopapi/internal/core/apperr"
	"shopapi/internal/core/validate"
	"shopapi/internal/domain"
	"shopapi/internal/repo"
	"shopapi/pkg/utils"
)

type CreateUserInput struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type UserService struct {
	repo *repo.Repository[domain.User]
	cost int
}

// Create 注册：只接收 username/name/password/email，状态固定为 ACTIVE
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username: in.Username,
		Name:     in.Name,
		Email:    in.Email,
		Password: hashed,
		Status:   domain.UserActive,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, q repo.Query) (*repo.Page[domain.User], error) {
	return s.repo.List(ctx, q)
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update 若 patch 含 password 则先重新哈希
func (s *UserService) Update(ctx context.Context, id string, patch map[string]any) (*domain.User, error) {
	if raw, ok := patch["password"]; ok {
		pw, isStr := raw.(string)
		if !isStr {
			return nil, passwordRequired()
		}
		hashed, err := s.hash(pw)
		if err != nil {
			return nil, err
		}
		patch["password"] = hashed
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) Activate(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.SetStatus(ctx, id, domain.UserActive)
}

func (s *UserService) Inactivate(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.SetStatus(ctx, id, domain.UserInactive)
}

func (s *UserService) hash(pw string) (string, error) {
	if strings.TrimSpace(pw) == "" {
		return "", passwordRequired()
	}
	hashed, err := utils.HashPassword(pw, s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.InvalidInput("Validation failed").WithErrors([]validate.FieldError{
			{Field: "password", Message: "must be at most 72 bytes"},
		})
	}
	if err != nil {
		return "", apperr.Internal("Internal Server Error", err)
	}
	return hashed, nil
}

func passwordRequired() error {
	return apperr.InvalidInput("Validation failed").WithErrors([]validate.FieldError{
		{Field: "password", Message: "is required"},
	})
}
