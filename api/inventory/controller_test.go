package inventory_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apiinventory "ecommerce/api/inventory"
	"ecommerce/api/middleware"
	appinventory "ecommerce/application/inventory"
	"ecommerce/domain/inventory"
	"ecommerce/infrastructure/persistence/mocks"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: "u-" + role,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func setup(t *testing.T) (*gin.Engine, *appinventory.Ledger, *mocks.Store) {
	t.Helper()
	store := mocks.NewStore()
	ledger := appinventory.NewLedger(mocks.NewStockRepository(store), mocks.NewUnitOfWorkFactory(store))

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	apiinventory.NewController(ledger, middleware.Auth(secret, "")).RegisterRoutes(engine.Group("/api/v1"))
	return engine, ledger, store
}

func do(engine *gin.Engine, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestStockEndpoints(t *testing.T) {
	engine, ledger, _ := setup(t)
	admin := bearer(t, "admin")
	staff := bearer(t, "staff")

	w := do(engine, http.MethodPost, "/api/v1/stocks", admin, `{"product_id":"p-1","quantity":5}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(engine, http.MethodPost, "/api/v1/stocks/imports", staff,
		`{"invoice_id":"inv-1","lines":[{"product_id":"p-1","quantity":3}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(engine, http.MethodPost, "/api/v1/stocks/p-1/adjustments", admin, `{"change":-2,"note":"damaged"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	stock, err := ledger.Stock(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 6, stock.Quantity())

	w = do(engine, http.MethodGet, "/api/v1/stocks/p-1", staff, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"balanced":true`)
	assert.Contains(t, w.Body.String(), `"quantity":6`)

	w = do(engine, http.MethodGet, "/api/v1/stocks/p-1/history?limit=2", staff, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"change_type":"`+string(inventory.ChangeAdjustment)+`"`)
}

func TestStockEndpointErrors(t *testing.T) {
	engine, _, _ := setup(t)
	admin := bearer(t, "admin")

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		want   int
	}{
		{name: "staff cannot adjust", method: http.MethodPost, path: "/api/v1/stocks/p-1/adjustments", auth: bearer(t, "staff"), body: `{"change":1,"note":"x"}`, want: http.StatusForbidden},
		{name: "customer cannot read", method: http.MethodGet, path: "/api/v1/stocks/p-1", auth: bearer(t, "customer"), want: http.StatusForbidden},
		{name: "unknown product", method: http.MethodGet, path: "/api/v1/stocks/nope", auth: admin, want: http.StatusNotFound},
		{name: "negative opening", method: http.MethodPost, path: "/api/v1/stocks", auth: admin, body: `{"product_id":"p-2","quantity":-1}`, want: http.StatusBadRequest},
		{name: "empty invoice", method: http.MethodPost, path: "/api/v1/stocks/imports", auth: admin, body: `{"invoice_id":"inv","lines":[]}`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(engine, tt.method, tt.path, tt.auth, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAdjustBelowZeroIsRejected(t *testing.T) {
	engine, _, _ := setup(t)
	admin := bearer(t, "admin")
	require.Equal(t, http.StatusCreated, do(engine, http.MethodPost, "/api/v1/stocks", admin, `{"product_id":"p-1","quantity":1}`).Code)

	w := do(engine, http.MethodPost, "/api/v1/stocks/p-1/adjustments", admin, `{"change":-5,"note":"recount"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_STOCK")
}
