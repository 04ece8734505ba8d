package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"shopapi/internal/core/apperr"
)

// FieldError 输出到响应 errors 数组的单条明细
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	once sync.Once
	v    *validator.Validate
)

// Engine 返回进程内共享的校验器（已注册自定义规则）
func Engine() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		// 明细里使用 json 字段名
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return f.Name
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("decimal2", decimal2)
	})
	return v
}

// decimal2 最多两位小数
func decimal2(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(f.Float()).Exponent() >= -2
	case reflect.String:
		d, err := decimal.NewFromString(f.String())
		return err == nil && d.Exponent() >= -2
	}
	return true
}

// HasTwoDecimals 供非 struct 场景复用 decimal2 规则
func HasTwoDecimals(f float64) bool {
	return decimal.NewFromFloat(f).Exponent() >= -2
}

// Struct 校验 s；失败时返回 InvalidInput，errors 字段携带逐字段明细
func Struct(s any) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return apperr.InvalidInput(err.Error())
	}
	details := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		details = append(details, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return apperr.InvalidInput("Validation failed").WithErrors(details)
}

// fieldPath 去掉最外层类型名：Order.products[0].quantity → products[0].quantity
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "Invalid email format, must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "decimal2":
		return "Price must have at most 2 decimal places"
	}
	return "failed on the " + fe.Tag() + " rule"
}
