package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopapi/internal/core/apperr"
	"shopapi/internal/domain"
)

func validProduct() domain.Product {
	return domain.Product{ProductCode: "P-001", Name: "Pen", Price: 19.99, QuantityInStock: 3}
}

func TestValidProductPasses(t *testing.T) {
	p := validProduct()
	assert.NoError(t, Struct(&p))
}

func TestPriceScale(t *testing.T) {
	p := validProduct()
	p.Price = 1.005
	err := Struct(&p)
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.KindInvalidInput, ae.Kind)
	details, ok := ae.Errors.([]FieldError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "price", details[0].Field)
	assert.Equal(t, "Price must have at most 2 decimal places", details[0].Message)

	assert.True(t, HasTwoDecimals(10.5))
	assert.True(t, HasTwoDecimals(0))
	assert.False(t, HasTwoDecimals(0.001))
}

func TestProductLimits(t *testing.T) {
	p := validProduct()
	p.ProductCode = "ABCDEFGHIJK" // 11
	p.QuantityInStock = -1
	err := Struct(&p)
	require.Error(t, err)

	details := apperr.As(err).Errors.([]FieldError)
	fields := map[string]bool{}
	for _, d := range details {
		fields[d.Field] = true
	}
	assert.True(t, fields["productCode"])
	assert.True(t, fields["quantityInStock"])
}

func TestUserEmailAndStatus(t *testing.T) {
	u := domain.User{Username: "ana", Name: "Ana", Email: "not-an-email", Password: "x", Status: "GONE"}
	err := Struct(&u)
	require.Error(t, err)

	details := apperr.As(err).Errors.([]FieldError)
	fields := map[string]string{}
	for _, d := range details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid email format, must be a valid email address", fields["email"])
	assert.Contains(t, fields["status"], "ACTIVE, INACTIVE")
}

func TestOrderItemsAreValidated(t *testing.T) {
	o := domain.Order{Status: domain.OrderPending, TotalProducts: 1}
	err := Struct(&o)
	require.Error(t, err)
	assert.Equal(t, "products", apperr.As(err).Errors.([]FieldError)[0].Field)

	o.Products = []domain.OrderItem{{Quantity: 0}}
	err = Struct(&o)
	require.Error(t, err)
	assert.Equal(t, "products[0].quantity", apperr.As(err).Errors.([]FieldError)[0].Field)
}
