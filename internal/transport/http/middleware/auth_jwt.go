package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopapi/internal/core/auth"
	resp "shopapi/internal/transport/http/response"
)

const KeySubject = "sub"

// Auth 鉴权闸门：无 Bearer → 401；验签/过期失败 → 403；sub 缺失 → 403。
// 通过后 sub 写入 request context，下游通过 auth.SubjectFrom 读取。
func Auth(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, http.StatusUnauthorized, "Token not provided")
			return
		}
		claims, err := j.Verify(strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")))
		switch {
		case errors.Is(err, auth.ErrInvalidPayload):
			resp.Abort(c, http.StatusForbidden, "Invalid token payload")
			return
		case err != nil:
			resp.Abort(c, http.StatusForbidden, "Invalid or expired token")
			return
		}
		c.Request = c.Request.WithContext(auth.WithSubject(c.Request.Context(), claims.Subject))
		c.Set(KeySubject, claims.Subject)
		c.Next()
	}
}
