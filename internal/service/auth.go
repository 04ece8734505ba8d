package service

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"shopapi/internal/core/apperr"
	"shopapi/internal/core/auth"
	"shopapi/internal/domain"
	"shopapi/internal/repo"
	"shopapi/pkg/utils"
)

const msgInvalidCredentials = "Invalid credentials"

type LoginResult struct {
	Token            string `json:"token"`
	ExpiresInMinutes int    `json:"expiresInMinutes"`
}

type AuthService struct {
	users *repo.Repository[domain.User]
	jwt   *auth.JWTer
	log   *zap.Logger
}

// Login 用户不存在、非 ACTIVE、密码错误统一返回 403 Invalid credentials
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.InvalidInput("Username and password are required")
	}
	u, err := s.users.FindOne(ctx, bson.M{"username": username})
	if apperr.Is(err, apperr.KindNotFound) {
		s.log.Warn("login rejected", zap.String("username", username), zap.String("reason", "unknown user"))
		return nil, apperr.Forbidden(msgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if u.Status != domain.UserActive {
		s.log.Warn("login rejected", zap.String("username", username), zap.String("reason", "inactive"))
		return nil, apperr.Forbidden(msgInvalidCredentials)
	}
	if !utils.CheckPassword(password, u.Password) {
		s.log.Warn("login rejected", zap.String("username", username), zap.String("reason", "password"))
		return nil, apperr.Forbidden(msgInvalidCredentials)
	}

	tok, err := s.jwt.Issue(u.ID.Hex(), auth.UserClaims{
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Status:   u.Status,
	})
	if err != nil {
		return nil, apperr.Internal("issue token failed", err)
	}
	return &LoginResult{Token: tok, ExpiresInMinutes: s.jwt.TTLMinutes()}, nil
}
