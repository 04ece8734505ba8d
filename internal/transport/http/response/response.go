package response

import "github.com/gin-gonic/gin"

// Envelope 所有接口统一的响应外壳
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func OK(msg string, data any) Envelope {
	return Envelope{Success: true, Message: msg, Data: data}
}

func Fail(msg string, errors any) Envelope {
	return Envelope{Success: false, Message: msg, Errors: errors}
}

// Abort 直接写失败响应并终止后续 handler
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Fail(MessageFor(status, msg), nil))
}
