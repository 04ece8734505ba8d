package middleware

import (
	"context"
	"errors"
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopapi/internal/core/apperr"
	resp "shopapi/internal/transport/http/response"
)

// ErrorRenderer 集中处理 handler 通过 c.Error 上报的错误：
// 业务错误按其 Kind 映射状态码，其余一律 500。
func ErrorRenderer(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		if errors.Is(err, context.DeadlineExceeded) {
			l.Warn("request timed out", zap.String("rid", RequestIDFrom(c)), zap.Error(err))
			resp.Abort(c, http.StatusGatewayTimeout, "")
			return
		}
		ae := apperr.As(err)
		if ae == nil {
			l.Error("unhandled error", zap.String("rid", RequestIDFrom(c)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, resp.Fail(resp.MessageFor(http.StatusInternalServerError, ""), nil))
			return
		}
		status := ae.Status()
		if status >= http.StatusInternalServerError {
			l.Error("internal error", zap.String("rid", RequestIDFrom(c)), zap.Error(err))
		}
		c.AbortWithStatusJSON(status, resp.Fail(resp.MessageFor(status, ae.Msg), ae.Errors))
	}
}

// Recovery panic 记录堆栈后按统一外壳返回 500
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		resp.Abort(c, http.StatusInternalServerError, "")
	})
}
