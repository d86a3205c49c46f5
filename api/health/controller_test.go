package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecommerce/api/health"
	"ecommerce/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func engineWith(checks map[string]health.Pinger) *gin.Engine {
	cfg := &config.Config{App: config.AppConfig{Version: "1.0.0", Env: "test"}}
	engine := gin.New()
	health.NewController(cfg, checks).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthy(t *testing.T) {
	ok := health.PingFunc(func(context.Context) error { return nil })
	engine := engineWith(map[string]health.Pinger{"database": ok, "redis": nil})

	w := get(engine, "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":{"status":"healthy"`)
	assert.NotContains(t, w.Body.String(), "redis")

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/health/ready").Code)
	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/health/live").Code)
}

func TestUnhealthyDependency(t *testing.T) {
	down := health.PingFunc(func(context.Context) error { return errors.New("connection refused") })
	engine := engineWith(map[string]health.Pinger{"redis": down})

	w := get(engine, "/api/v1/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = get(engine, "/api/v1/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis not available")

	assert.Equal(t, http.StatusOK, get(engine, "/api/v1/health/live").Code)
}
