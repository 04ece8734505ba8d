package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopapi/internal/service"
	httpez "shopapi/internal/transport/http/ez"
)

type AuthHandler struct{ svc *service.AuthService }

func NewAuthHandler(svc *service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

func (h *AuthHandler) Priority() int { return 10 }

func (h *AuthHandler) Mount(public, _ *gin.RouterGroup) {
	type loginIn struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	httpez.RegisterAction(public, httpez.Action[loginIn, *service.LoginResult]{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Binder:  httpez.BindJSON,
		Message: "Login successful",
		Handler: func(c *gin.Context, in *loginIn) (*service.LoginResult, error) {
			return h.svc.Login(c.Request.Context(), in.Username, in.Password)
		},
	})
}
