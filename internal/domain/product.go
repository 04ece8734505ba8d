package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CollectionProducts = "products"

type Product struct {
	ID              primitive.ObjectID `bson:"_id" json:"_id"`
	ProductCode     string             `bson:"productCode" json:"productCode" validate:"required,max=10"`
	Name            string             `bson:"name" json:"name" validate:"required,max=100"`
	Description     string             `bson:"description" json:"description" validate:"max=500"`
	Price           float64            `bson:"price" json:"price" validate:"gte=0,decimal2"`
	QuantityInStock int                `bson:"quantityInStock" json:"quantityInStock" validate:"gte=0"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *Product) Normalize() {
	p.ProductCode = strings.TrimSpace(p.ProductCode)
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
}
