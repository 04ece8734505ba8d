package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNoRouteEnvelope(t *testing.T) {
	r := NewRouter(Options{Mode: gin.TestMode})
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Route not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSOrigins(t *testing.T) {
	r := NewRouter(Options{Mode: gin.TestMode, CORSOrigins: []string{"http://app.local"}})
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.local")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBuildServer(t *testing.T) {
	srv := BuildServer(Addr("127.0.0.1", 8080), http.NewServeMux(), time.Second, 2*time.Second, 3*time.Second, zap.NewNop())
	assert.Equal(t, "127.0.0.1:8080", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.NotNil(t, srv.ErrorLog)
}
