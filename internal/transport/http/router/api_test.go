package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopapi/internal/core/auth"
	"shopapi/internal/core/server"
	"shopapi/internal/service"
	"shopapi/internal/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type testAPI struct {
	t   *testing.T
	h   http.Handler
	jwt *auth.JWTer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := store.NewMemoryStore()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), TTL: 10 * time.Minute}
	set := service.NewSet(st, service.Settings{BcryptCost: bcrypt.MinCost}, jwter, nil)
	require.NoError(t, set.EnsureIndexes(context.Background()))
	h := NewAPIEngine(Deps{
		Prefix:   "/api",
		Server:   server.Options{Mode: gin.TestMode},
		Limits:   Limits{MaxBodyBytes: 1 << 20, RequestTimeout: 5 * time.Second},
		Services: set,
		JWT:      jwter,
		Store:    st,
	})
	return &testAPI{t: t, h: h, jwt: jwter}
}

func (a *testAPI) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// signup 注册并登录，返回 token 与用户 id
func (a *testAPI) signup(username string) (string, string) {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/users", "", gin.H{
		"username": username, "name": username, "password": "pw-" + username, "email": username + "@example.com",
	})
	require.Equal(a.t, http.StatusCreated, code, string(env.Errors))
	var u struct {
		ID string `json:"_id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &u))

	code, env = a.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": username, "password": "pw-" + username})
	require.Equal(a.t, http.StatusOK, code)
	var lr service.LoginResult
	require.NoError(a.t, json.Unmarshal(env.Data, &lr))
	return lr.Token, u.ID
}

func TestCreateUserHidesPassword(t *testing.T) {
	api := newTestAPI(t)
	code, env := api.do(http.MethodPost, "/api/users", "", gin.H{
		"username": "ana", "name": "Ana", "password": "secret", "email": "Ana@Example.com",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	assert.Equal(t, "User created successfully", env.Message)
	assert.NotContains(t, string(env.Data), "password")
	assert.NotContains(t, string(env.Data), "secret")
	assert.Contains(t, string(env.Data), `"email":"ana@example.com"`)
	assert.Contains(t, string(env.Data), `"status":"ACTIVE"`)

	code, env = api.do(http.MethodPost, "/api/users", "", gin.H{
		"username": "ana", "name": "Ana", "password": "secret", "email": "other@example.com",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	token, id := api.signup("ana")

	claims, err := api.jwt.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.Subject)
	assert.Equal(t, "ana", claims.User.Username)

	code, env := api.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "ana", "password": "wrong"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Invalid credentials", env.Message)

	code, env = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"username": "ana"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
}

func TestAuthGate(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token not provided", env.Message)

	code, env = api.do(http.MethodGet, "/api/products", "not.a.token", nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Invalid or expired token", env.Message)

	noSub, err := api.jwt.Issue("", auth.UserClaims{Username: "ghost"})
	require.NoError(t, err)
	code, env = api.do(http.MethodGet, "/api/products", noSub, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Invalid token payload", env.Message)
}

func TestProductsPaginationAndFilter(t *testing.T) {
	api := newTestAPI(t)
	token, _ := api.signup("ana")

	for i := 0; i < 12; i++ {
		code, env := api.do(http.MethodPost, "/api/products", token, gin.H{
			"productCode": fmt.Sprintf("P%02d", i), "name": fmt.Sprintf("Item %02d", i),
			"price": 19.99, "quantityInStock": 5,
		})
		require.Equal(t, http.StatusCreated, code, string(env.Errors))
	}
	code, _ := api.do(http.MethodPost, "/api/products", token, gin.H{
		"productCode": "OTHER", "name": "Other", "price": 5, "quantityInStock": 1,
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := api.do(http.MethodGet, "/api/products?price=19.99&page=2&limit=5", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Products retrieved successfully", env.Message)
	var page struct {
		Items []map[string]any `json:"items"`
		Total int64            `json:"total"`
		Page  int              `json:"page"`
		Pages int              `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 5)
	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, "P05", page.Items[0]["productCode"])

	// 价格不是两位小数
	code, env = api.do(http.MethodPost, "/api/products", token, gin.H{
		"productCode": "BAD", "name": "Bad", "price": 1.234, "quantityInStock": 1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(env.Errors), "price")
}

func TestOrdersFlow(t *testing.T) {
	api := newTestAPI(t)
	token, uid := api.signup("ana")
	_, otherID := api.signup("mallory")
	require.NotEqual(t, uid, otherID)

	code, env := api.do(http.MethodPost, "/api/orders", token, gin.H{"products": []any{}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Order must contain at least one product", env.Message)

	code, env = api.do(http.MethodPost, "/api/products", token, gin.H{
		"productCode": "PEN", "name": "Pen", "price": 1.5, "quantityInStock": 2,
	})
	require.Equal(t, http.StatusCreated, code)
	var p struct {
		ID string `json:"_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &p))

	code, env = api.do(http.MethodPost, "/api/orders", token, gin.H{
		"products": []gin.H{{"product": p.ID, "quantity": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "The following products are out of stock: Pen", env.Message)

	// user、totalProducts、totalAmount 以服务端为准，客户端传入的值被丢弃
	code, env = api.do(http.MethodPost, "/api/orders", token, gin.H{
		"products":      []gin.H{{"product": p.ID, "quantity": 2}},
		"user":          otherID,
		"totalProducts": 99,
		"totalAmount":   0,
	})
	require.Equal(t, http.StatusCreated, code, string(env.Errors))
	var o struct {
		ID            string  `json:"_id"`
		User          string  `json:"user"`
		TotalAmount   float64 `json:"totalAmount"`
		TotalProducts int     `json:"totalProducts"`
		Status        string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &o))
	assert.Equal(t, uid, o.User)
	assert.Equal(t, 3.0, o.TotalAmount)
	assert.Equal(t, 1, o.TotalProducts)
	assert.Equal(t, "PENDING", o.Status)

	code, env = api.do(http.MethodGet, "/api/orders/"+o.ID+"?with=user,products.product", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"username":"ana"`)
	assert.Contains(t, string(env.Data), `"productCode":"PEN"`)
	assert.NotContains(t, string(env.Data), "password")

	code, env = api.do(http.MethodGet, "/api/orders/from/"+uid, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(string(env.Data), o.ID))

	code, env = api.do(http.MethodGet, "/api/orders/from/"+otherID, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":0`)

	code, _ = api.do(http.MethodDelete, "/api/orders/"+o.ID, token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, env = api.do(http.MethodGet, "/api/orders/"+o.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Order not found", env.Message)
}

func TestHealthAndNoRoute(t *testing.T) {
	api := newTestAPI(t)
	code, env := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = api.do(http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

type windowCounter struct{ hits map[string]int64 }

func (w *windowCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	w.hits[key]++
	return w.hits[key], nil
}

func TestSharedRateLimitUsesRPS(t *testing.T) {
	assert.Equal(t, int64(3), sharedPerSecond(Limits{RPS: 2.5, Burst: 400}))
	assert.Equal(t, int64(1), sharedPerSecond(Limits{}))

	st := store.NewMemoryStore()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), TTL: time.Minute}
	h := NewAPIEngine(Deps{
		Prefix:   "/api",
		Server:   server.Options{Mode: gin.TestMode},
		Limits:   Limits{RPS: 2, Burst: 100},
		Services: service.NewSet(st, service.Settings{BcryptCost: bcrypt.MinCost}, jwter, nil),
		JWT:      jwter,
		Store:    st,
		Counter:  &windowCounter{hits: map[string]int64{}},
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
