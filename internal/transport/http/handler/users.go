package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopapi/internal/domain"
	"shopapi/internal/repo"
	"shopapi/internal/service"
	httpez "shopapi/internal/transport/http/ez"
)

type UserHandler struct{ svc *service.UserService }

func NewUserHandler(svc *service.UserService) *UserHandler { return &UserHandler{svc: svc} }

// Mount 注册接口公开，其余需要登录
func (h *UserHandler) Mount(public, protected *gin.RouterGroup) {
	httpez.RegisterAction(public, httpez.Action[service.CreateUserInput, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/users",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Message: "User created successfully",
		Handler: func(c *gin.Context, in *service.CreateUserInput) (*domain.User, error) {
			return h.svc.Create(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *repo.Page[domain.User]]{
		Method:  http.MethodGet,
		Path:    "/users",
		Binder:  httpez.BindNone,
		Message: "Users retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*repo.Page[domain.User], error) {
			return h.svc.List(c.Request.Context(), repo.ParseQuery(c.Request.URL.Query()))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.User]{
		Method:  http.MethodGet,
		Path:    "/users/:id",
		Binder:  httpez.BindNone,
		Message: "User retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[map[string]any, *domain.User]{
		Method:  http.MethodPatch,
		Path:    "/users/:id",
		Binder:  httpez.BindPatch,
		Message: "User updated successfully",
		Handler: func(c *gin.Context, in *map[string]any) (*domain.User, error) {
			return h.svc.Update(c.Request.Context(), c.Param("id"), *in)
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.User]{
		Method:  http.MethodDelete,
		Path:    "/users/:id",
		Binder:  httpez.BindNone,
		Message: "User deleted successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Delete(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/users/inactivate/:id",
		Binder:  httpez.BindNone,
		Message: "User inactivated successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Inactivate(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.User]{
		Method:  http.MethodPost,
		Path:    "/users/activate/:id",
		Binder:  httpez.BindNone,
		Message: "User activated successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			return h.svc.Activate(c.Request.Context(), c.Param("id"))
		},
	})
}
