package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"shopapi/internal/core/apperr"
	"shopapi/internal/core/validate"
	"shopapi/internal/domain"
	"shopapi/internal/repo"
)

const MsgEmptyOrder = "Order must contain at least one product"

var (
	ordersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_created_total",
		Help: "Orders persisted",
	})
	ordersRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_orders_rejected_total",
		Help: "Order creations rejected before any write",
	}, []string{"reason"})
)

func init() { prometheus.MustRegister(ordersCreated, ordersRejected) }

// OrderLine 请求体中的一行；product 为商品 id
type OrderLine struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// CreateOrderInput 客户端提交的 user/totalProducts/totalAmount 一律忽略
type CreateOrderInput struct {
	Products []OrderLine `json:"products"`
	Status   string      `json:"status"`
}

type OrderService struct {
	repo     *repo.Repository[domain.Order]
	products *repo.Repository[domain.Product]
	log      *zap.Logger
}

// Create 下单：校验行项目 → 批量取商品 → 库存检查 → 计算合计 → 绑定下单人 → 落库。
// 库存仅做检查，不扣减。
func (s *OrderService) Create(ctx context.Context, subject string, in CreateOrderInput) (*domain.Order, error) {
	if len(in.Products) == 0 {
		ordersRejected.WithLabelValues("empty").Inc()
		return nil, apperr.InvalidInput(MsgEmptyOrder)
	}
	userID, err := primitive.ObjectIDFromHex(subject)
	if err != nil {
		return nil, apperr.Forbidden("Invalid token payload")
	}

	items := make([]domain.OrderItem, 0, len(in.Products))
	ids := make([]primitive.ObjectID, 0, len(in.Products))
	var bad []validate.FieldError
	for i, line := range in.Products {
		pid, err := primitive.ObjectIDFromHex(strings.TrimSpace(line.Product))
		if err != nil {
			bad = append(bad, validate.FieldError{
				Field:   fmt.Sprintf("products[%d].product", i),
				Message: "must be a valid product id",
			})
			continue
		}
		items = append(items, domain.OrderItem{Product: domain.NewRef[domain.Product](pid), Quantity: line.Quantity})
		ids = append(ids, pid)
	}
	if len(bad) > 0 {
		ordersRejected.WithLabelValues("invalid").Inc()
		return nil, apperr.InvalidInput("Validation failed").WithErrors(bad)
	}

	order := &domain.Order{
		User:          domain.NewRef[domain.User](userID),
		Products:      items,
		TotalProducts: len(items), // 行数，而非数量之和
		Status:        in.Status,
	}
	order.Normalize()
	if err := validate.Struct(order); err != nil {
		ordersRejected.WithLabelValues("invalid").Inc()
		return nil, err
	}

	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*domain.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	var missing []string
	for _, it := range items {
		if _, ok := byID[it.Product.ID]; !ok {
			missing = appendOnce(missing, it.Product.ID.Hex())
		}
	}
	if len(missing) > 0 {
		ordersRejected.WithLabelValues("missing_product").Inc()
		return nil, apperr.InvalidInput("The following products do not exist: " + strings.Join(missing, ", ")).
			WithErrors(missing)
	}

	var outOfStock []string
	total := decimal.Zero
	for _, it := range items {
		p := byID[it.Product.ID]
		if it.Quantity > p.QuantityInStock {
			outOfStock = appendOnce(outOfStock, p.Name)
		}
		total = total.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if len(outOfStock) > 0 {
		ordersRejected.WithLabelValues("out_of_stock").Inc()
		s.log.Info("order rejected: out of stock",
			zap.String("user", subject),
			zap.Strings("products", outOfStock),
		)
		return nil, apperr.InvalidInput("The following products are out of stock: " + strings.Join(outOfStock, ", ")).
			WithErrors(outOfStock)
	}
	order.TotalAmount = total.Round(2).InexactFloat64()

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, err
	}
	ordersCreated.Inc()
	s.log.Info("order created",
		zap.String("order", order.ID.Hex()),
		zap.String("user", subject),
		zap.Int("lines", order.TotalProducts),
		zap.Float64("total", order.TotalAmount),
	)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, q repo.Query) (*repo.Page[domain.Order], error) {
	return s.repo.List(ctx, q)
}

// ListByUser 查询串里的 user 过滤会被路径参数覆盖
func (s *OrderService) ListByUser(ctx context.Context, userID string, q repo.Query) (*repo.Page[domain.Order], error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.InvalidInput("Invalid user id")
	}
	return s.repo.ListWhere(ctx, bson.M{"user": uid}, q)
}

func (s *OrderService) Get(ctx context.Context, id string, with ...string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id, with...)
}

// Update 下单人不可修改；替换行项目时同步 totalProducts
func (s *OrderService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Order, error) {
	delete(patch, "user")
	delete(patch, "totalProducts")
	if lines, ok := patch["products"].([]any); ok {
		patch["totalProducts"] = len(lines)
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *OrderService) Delete(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Delete(ctx, id)
}

func appendOnce(xs []string, v string) []string {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}
