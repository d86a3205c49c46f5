package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ecommerce/api/middleware"
	"ecommerce/api/response"
	apporder "ecommerce/application/order"
	"ecommerce/config"
	"ecommerce/infrastructure/idempotency"
	"ecommerce/infrastructure/persistence"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret = "test-secret"
	issuer = "ecommerce-test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, userID string, role apporder.Role, key string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return "Bearer " + signed
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequestIDPropagatesToContext(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	var seen string
	engine.GET("/ping", func(c *gin.Context) {
		seen = persistence.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), seen)
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware(), middleware.RecoveryMiddleware())
	engine.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "INTERNAL_ERROR", body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestCORSHeaders(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware(&config.CORSConfig{
		AllowOrigins: []string{"https://shop.example"},
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Authorization", "Idempotency-Key"},
		MaxAge:       600,
	}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.RateLimitMiddleware(&config.RateLimitConfig{Enabled: true, Rate: 0.001, Burst: 2}))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestAuth(t *testing.T) {
	engine := gin.New()
	engine.Use(middleware.Auth(secret, issuer))
	engine.GET("/me", func(c *gin.Context) {
		actor, ok := middleware.ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role})
	})
	engine.GET("/staff", middleware.RequireRoles(apporder.RoleStaff, apporder.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing header", path: "/me", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", path: "/me", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", path: "/me", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
		{name: "wrong key", path: "/me", header: token(t, "alice", apporder.RoleCustomer, "other"), want: http.StatusUnauthorized},
		{name: "valid", path: "/me", header: token(t, "alice", apporder.RoleCustomer, secret), want: http.StatusOK},
		{name: "customer on staff route", path: "/staff", header: token(t, "alice", apporder.RoleCustomer, secret), want: http.StatusForbidden},
		{name: "admin on staff route", path: "/staff", header: token(t, "root", apporder.RoleAdmin, secret), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	engine := gin.New()
	engine.GET("/x", middleware.RequireRoles(apporder.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdempotencyReplaysCompletedResponse(t *testing.T) {
	store := idempotency.NewMemoryStore(time.Minute)
	var calls int32
	engine := gin.New()
	engine.POST("/orders", middleware.Idempotency(store), func(c *gin.Context) {
		n := atomic.AddInt32(&calls, 1)
		c.JSON(http.StatusCreated, gin.H{"call": n})
	})

	send := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader("{}"))
		if key != "" {
			req.Header.Set(middleware.IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	first := send("k1")
	second := send("k1")
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(middleware.ReplayedHeader))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	send("k2")
	send("")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestIdempotencyReleasesFailedRequests(t *testing.T) {
	store := idempotency.NewMemoryStore(time.Minute)
	fail := true
	engine := gin.New()
	engine.POST("/orders", middleware.Idempotency(store), func(c *gin.Context) {
		if fail {
			c.JSON(http.StatusConflict, gin.H{"error": "INSUFFICIENT_STOCK"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(middleware.IdempotencyKeyHeader, "k")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusConflict, send())
	fail = false
	assert.Equal(t, http.StatusCreated, send(), "a failed attempt does not pin the key")
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store := idempotency.NewMemoryStore(time.Minute)
	_, acquired, err := store.Begin(t.Context(), "anonymous:POST:/orders:busy")
	require.NoError(t, err)
	require.True(t, acquired)

	engine := gin.New()
	engine.POST("/orders", middleware.Idempotency(store), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set(middleware.IdempotencyKeyHeader, "busy")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w).Error)
}

func TestIdempotencyKeyIsScopedToResource(t *testing.T) {
	store := idempotency.NewMemoryStore(time.Minute)
	engine := gin.New()
	engine.POST("/orders/:id/repayment", middleware.Idempotency(store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"redirect_url": "https://pay.example/" + c.Param("id")})
	})

	send := func(orderID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders/"+orderID+"/repayment", nil)
		req.Header.Set(middleware.IdempotencyKeyHeader, "retry-1")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	a := send("A")
	b := send("B")
	assert.Contains(t, a.Body.String(), "https://pay.example/A")
	assert.Contains(t, b.Body.String(), "https://pay.example/B")
	assert.Empty(t, b.Header().Get(middleware.ReplayedHeader))

	again := send("A")
	assert.Equal(t, "true", again.Header().Get(middleware.ReplayedHeader))
	assert.Equal(t, a.Body.String(), again.Body.String())
}

type recordingObserver struct {
	route  string
	status int
}

func (r *recordingObserver) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	r.route = route
	r.status = status
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	obs := &recordingObserver{}
	engine := gin.New()
	engine.Use(middleware.MetricsMiddleware(obs, nil))
	engine.GET("/orders/:id", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/o-123", nil))

	assert.Equal(t, "/orders/:id", obs.route)
	assert.Equal(t, http.StatusAccepted, obs.status)
}
