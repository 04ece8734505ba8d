package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrInvalidPayload = errors.New("invalid token payload")
)

// UserClaims 嵌入 token 的用户信息（payload.user）
type UserClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Status   string `json:"status"`
}

// Claims: sub = 用户 id，user = 用户快照
type Claims struct {
	User UserClaims `json:"user"`
	jwt.RegisteredClaims
}

type JWTer struct {
	Secret []byte
	Issuer string // 为空则不签发/不校验 iss
	TTL    time.Duration
	Leeway time.Duration
	Now    func() time.Time // 测试可注入
}

func (j *JWTer) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

// TTLMinutes 登录响应里的 expiresInMinutes
func (j *JWTer) TTLMinutes() int { return int(j.TTL / time.Minute) }

func (j *JWTer) Issue(subject string, user UserClaims) (string, error) {
	now := j.now()
	claims := Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// Verify 校验签名、算法与过期时间；sub 为空视为 payload 非法
func (j *JWTer) Verify(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
		jwt.WithLeeway(j.Leeway),
	}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return j.Secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	if c.Subject == "" {
		return nil, ErrInvalidPayload
	}
	return c, nil
}

// DecodeUnchecked 只解析不验签。仅用于诊断（admin CLI），请求链路使用 Verify 的结果。
func DecodeUnchecked(tokenStr string) (*Claims, bool) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &c); err != nil {
		return nil, false
	}
	return &c, true
}
