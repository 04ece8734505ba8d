package ez

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopapi/internal/core/apperr"
	resp "shopapi/internal/transport/http/response"
)

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定到 I
	BindPatch Binder = "patch" // JSON 对象绑定到 map[string]any（I 须为该类型）
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param / c.Request.URL 取
)

// 动作定义：I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PATCH" | "DELETE"
	Path    string // 例："/auth/login"、"/users/inactivate/:id"
	Binder  Binder
	Status  int    // 成功状态码，默认 200
	Message string // 成功提示语
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 注册动作接口；错误交给 c.Error，由错误渲染中间件统一输出
func RegisterAction[I any, O any](g gin.IRoutes, a Action[I, O]) {
	status := a.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := func(c *gin.Context) {
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			_ = c.Error(err)
			return
		}
		out, err := a.Handler(c, &in)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(status, resp.OK(resp.MessageFor(status, a.Message), out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		g.GET(a.Path, h)
	case http.MethodPut:
		g.PUT(a.Path, h)
	case http.MethodPatch:
		g.PATCH(a.Path, h)
	case http.MethodDelete:
		g.DELETE(a.Path, h)
	default: // 默认 POST
		g.POST(a.Path, h)
	}
}

func bind(c *gin.Context, b Binder, in any) error {
	switch b {
	case BindJSON, BindPatch:
		if b == BindPatch {
			if _, ok := in.(*map[string]any); !ok {
				return apperr.Internal("Internal Server Error", errors.New("ez: BindPatch requires map[string]any input"))
			}
		}
		err := c.ShouldBindJSON(in)
		if err == nil {
			return nil
		}
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return apperr.TooLarge("Request body too large")
		case errors.Is(err, io.EOF):
			return apperr.InvalidInput("Request body is required")
		}
		return apperr.InvalidInput("Invalid request body")
	}
	return nil
}
