package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopapi/internal/core/apperr"
	"shopapi/internal/core/auth"
	"shopapi/internal/domain"
	"shopapi/internal/repo"
	"shopapi/internal/service"
	httpez "shopapi/internal/transport/http/ez"
)

type OrderHandler struct{ svc *service.OrderService }

func NewOrderHandler(svc *service.OrderService) *OrderHandler { return &OrderHandler{svc: svc} }

func (h *OrderHandler) Mount(_, protected *gin.RouterGroup) {
	httpez.RegisterAction(protected, httpez.Action[service.CreateOrderInput, *domain.Order]{
		Method:  http.MethodPost,
		Path:    "/orders",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Message: "Order created successfully",
		Handler: func(c *gin.Context, in *service.CreateOrderInput) (*domain.Order, error) {
			// 下单人只取鉴权闸门验证过的 sub
			sub, ok := auth.SubjectFrom(c.Request.Context())
			if !ok {
				return nil, apperr.Unauthorized("Token not provided")
			}
			return h.svc.Create(c.Request.Context(), sub, *in)
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *repo.Page[domain.Order]]{
		Method:  http.MethodGet,
		Path:    "/orders",
		Binder:  httpez.BindNone,
		Message: "Orders retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*repo.Page[domain.Order], error) {
			return h.svc.List(c.Request.Context(), repo.ParseQuery(c.Request.URL.Query()))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *repo.Page[domain.Order]]{
		Method:  http.MethodGet,
		Path:    "/orders/from/:userId",
		Binder:  httpez.BindNone,
		Message: "Orders retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*repo.Page[domain.Order], error) {
			return h.svc.ListByUser(c.Request.Context(), c.Param("userId"), repo.ParseQuery(c.Request.URL.Query()))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.Order]{
		Method:  http.MethodGet,
		Path:    "/orders/:id",
		Binder:  httpez.BindNone,
		Message: "Order retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Order, error) {
			q := repo.ParseQuery(c.Request.URL.Query())
			return h.svc.Get(c.Request.Context(), c.Param("id"), q.With...)
		},
	})

	httpez.RegisterAction(protected, httpez.Action[map[string]any, *domain.Order]{
		Method:  http.MethodPatch,
		Path:    "/orders/:id",
		Binder:  httpez.BindPatch,
		Message: "Order updated successfully",
		Handler: func(c *gin.Context, in *map[string]any) (*domain.Order, error) {
			return h.svc.Update(c.Request.Context(), c.Param("id"), *in)
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.Order]{
		Method:  http.MethodDelete,
		Path:    "/orders/:id",
		Binder:  httpez.BindNone,
		Message: "Order deleted successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Order, error) {
			return h.svc.Delete(c.Request.Context(), c.Param("id"))
		},
	})
}
