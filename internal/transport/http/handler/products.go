package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopapi/internal/domain"
	"shopapi/internal/repo"
	"shopapi/internal/service"
	httpez "shopapi/internal/transport/http/ez"
)

type ProductHandler struct{ svc *service.ProductService }

func NewProductHandler(svc *service.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) Mount(_, protected *gin.RouterGroup) {
	httpez.RegisterAction(protected, httpez.Action[domain.Product, *domain.Product]{
		Method:  http.MethodPost,
		Path:    "/products",
		Binder:  httpez.BindJSON,
		Status:  http.StatusCreated,
		Message: "Product created successfully",
		Handler: func(c *gin.Context, in *domain.Product) (*domain.Product, error) {
			return h.svc.Create(c.Request.Context(), in)
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *repo.Page[domain.Product]]{
		Method:  http.MethodGet,
		Path:    "/products",
		Binder:  httpez.BindNone,
		Message: "Products retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*repo.Page[domain.Product], error) {
			return h.svc.List(c.Request.Context(), repo.ParseQuery(c.Request.URL.Query()))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.Product]{
		Method:  http.MethodGet,
		Path:    "/products/:id",
		Binder:  httpez.BindNone,
		Message: "Product retrieved successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Product, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(protected, httpez.Action[map[string]any, *domain.Product]{
		Method:  http.MethodPatch,
		Path:    "/products/:id",
		Binder:  httpez.BindPatch,
		Message: "Product updated successfully",
		Handler: func(c *gin.Context, in *map[string]any) (*domain.Product, error) {
			return h.svc.Update(c.Request.Context(), c.Param("id"), *in)
		},
	})

	httpez.RegisterAction(protected, httpez.Action[struct{}, *domain.Product]{
		Method:  http.MethodDelete,
		Path:    "/products/:id",
		Binder:  httpez.BindNone,
		Message: "Product deleted successfully",
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Product, error) {
			return h.svc.Delete(c.Request.Context(), c.Param("id"))
		},
	})
}
