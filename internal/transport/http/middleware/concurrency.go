package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "shopapi/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数（保护存储下游）；满了直接 503，不排队
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			resp.Abort(c, http.StatusServiceUnavailable, "")
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
