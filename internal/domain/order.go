package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionOrders = "orders"

const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
)

// OrderItem 订单行：商品引用 + 数量
type OrderItem struct {
	Product  Ref[Product] `bson:"product" json:"product"`
	Quantity int          `bson:"quantity" json:"quantity" validate:"gte=1"`
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	User          Ref[User]          `bson:"user" json:"user"`
	Products      []OrderItem        `bson:"products" json:"products" validate:"min=1,dive"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount" validate:"gte=0"`
	TotalProducts int                `bson:"totalProducts" json:"totalProducts" validate:"gte=1"`
	Status        string             `bson:"status" json:"status" validate:"oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (o *Order) Normalize() {
	o.Status = strings.ToUpper(strings.TrimSpace(o.Status))
	if o.Status == "" {
		o.Status = OrderPending
	}
}
