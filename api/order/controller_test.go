package order_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecommerce/api/middleware"
	apiorder "ecommerce/api/order"
	"ecommerce/api/response"
	apporder "ecommerce/application/order"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/idempotency"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// stubService overrides the calls a test needs; anything else panics via the
// nil embedded interface.
type stubService struct {
	apiorder.Service

	created   []apporder.CreateOrderRequest
	callbacks []map[string]string
	actor     apporder.Actor
}

func (s *stubService) CreateOrder(_ context.Context, req apporder.CreateOrderRequest) (*apporder.CreateOrderResponse, error) {
	s.created = append(s.created, req)
	if req.PaymentMethod == "bitcoin" {
		return nil, shared.NewValidationError("order", "payment_method", "unsupported payment method")
	}
	return &apporder.CreateOrderResponse{
		Order:      &apporder.OrderResponse{ID: "o-1", UserID: req.UserID, Status: "pending"},
		PaymentURL: "https://pay.example/redirect",
	}, nil
}

func (s *stubService) VerifyReturnCallback(_ context.Context, params map[string]string) (*apporder.PaymentResultResponse, error) {
	s.callbacks = append(s.callbacks, params)
	if params["vnp_SecureHash"] != "ok" {
		return nil, &shared.DomainError{Err: shared.ErrVerificationFailed, Message: "invalid signature"}
	}
	return &apporder.PaymentResultResponse{
		OrderID:      params["vnp_TxnRef"],
		Success:      params["vnp_ResponseCode"] == "00",
		ResponseCode: params["vnp_ResponseCode"],
	}, nil
}

func (s *stubService) GetOrder(_ context.Context, actor apporder.Actor, orderID string) (*apporder.OrderResponse, error) {
	s.actor = actor
	if orderID == "missing" {
		return nil, shared.NewNotFoundError("order")
	}
	return &apporder.OrderResponse{ID: orderID}, nil
}

func (s *stubService) UserCancelOrder(_ context.Context, userID, orderID string) (*apporder.OrderResponse, error) {
	return nil, shared.NewInvalidStateError("order", "order "+orderID+" is shipping")
}

func (s *stubService) ListOrders(_ context.Context, q apporder.ListOrdersQuery) (*apporder.OrderListResponse, error) {
	return &apporder.OrderListResponse{
		Items: []*apporder.OrderResponse{{ID: "o-1", Status: q.Status}},
		Total: 21,
		Page:  2,
		Size:  10,
	}, nil
}

func (s *stubService) UpdateReturnStatus(_ context.Context, returnID string, req apporder.UpdateReturnStatusRequest) (*apporder.ReturnResponse, error) {
	return &apporder.ReturnResponse{ID: returnID, Status: req.Status}, nil
}

func bearer(t *testing.T, userID string, role apporder.Role) string {
	t.Helper()
	claims := middleware.Claims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func newEngine(svc apiorder.Service) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware())
	ctrl := apiorder.NewController(svc, middleware.Auth(secret, ""), idempotency.NewMemoryStore(time.Minute))
	ctrl.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func do(engine *gin.Engine, method, path, auth, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCreateOrderTakesCallerFromToken(t *testing.T) {
	svc := &stubService{}
	engine := newEngine(svc)

	w := do(engine, http.MethodPost, "/api/v1/orders", bearer(t, "alice", apporder.RoleCustomer),
		`{"address_id":"a-1","payment_method":"vnpay","user_id":"mallory"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, svc.created, 1)
	assert.Equal(t, "alice", svc.created[0].UserID)
	assert.NotEmpty(t, svc.created[0].ClientIP)
	body := decode(t, w)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.RequestID)
}

func TestCreateOrderErrors(t *testing.T) {
	engine := newEngine(&stubService{})
	alice := bearer(t, "alice", apporder.RoleCustomer)

	tests := []struct {
		name string
		auth string
		body string
		want int
		code string
	}{
		{name: "anonymous", auth: "", body: `{"address_id":"a","payment_method":"cash"}`, want: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "staff cannot order", auth: bearer(t, "s", apporder.RoleStaff), body: `{"address_id":"a","payment_method":"cash"}`, want: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "missing address", auth: alice, body: `{"payment_method":"cash"}`, want: http.StatusBadRequest, code: "INVALID_INPUT"},
		{name: "domain validation", auth: alice, body: `{"address_id":"a","payment_method":"bitcoin"}`, want: http.StatusBadRequest, code: "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(engine, http.MethodPost, "/api/v1/orders", tt.auth, tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Error)
		})
	}
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	svc := &stubService{}
	engine := newEngine(svc)
	alice := bearer(t, "alice", apporder.RoleCustomer)
	body := `{"address_id":"a-1","payment_method":"vnpay"}`

	first := do(engine, http.MethodPost, "/api/v1/orders", alice, body, middleware.IdempotencyKeyHeader, "checkout-1")
	second := do(engine, http.MethodPost, "/api/v1/orders", alice, body, middleware.IdempotencyKeyHeader, "checkout-1")

	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Len(t, svc.created, 1)

	bob := bearer(t, "bob", apporder.RoleCustomer)
	do(engine, http.MethodPost, "/api/v1/orders", bob, body, middleware.IdempotencyKeyHeader, "checkout-1")
	assert.Len(t, svc.created, 2, "keys are scoped per caller")
}

func TestVerifyReturnURLAcceptsQueryAndBody(t *testing.T) {
	svc := &stubService{}
	engine := newEngine(svc)

	w := do(engine, http.MethodGet, "/api/v1/orders/verify-return-url?vnp_TxnRef=o-1&vnp_ResponseCode=00&vnp_SecureHash=ok", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "payment confirmed", decode(t, w).Message)

	w = do(engine, http.MethodPost, "/api/v1/orders/verify-return-url", "",
		`{"vnp_TxnRef":"o-2","vnp_ResponseCode":"24","vnp_SecureHash":"ok"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "payment failed", decode(t, w).Message)
	assert.Equal(t, "o-2", svc.callbacks[1]["vnp_TxnRef"])

	w = do(engine, http.MethodPost, "/api/v1/orders/verify-return-url?vnp_TxnRef=o-3&vnp_SecureHash=forged", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VERIFICATION_FAILED", decode(t, w).Error)

	w = do(engine, http.MethodPost, "/api/v1/orders/verify-return-url", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, svc.callbacks, 3)
}

func TestGetOrderPassesActor(t *testing.T) {
	svc := &stubService{}
	engine := newEngine(svc)

	w := do(engine, http.MethodGet, "/api/v1/orders/o-9", bearer(t, "s-1", apporder.RoleStaff), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, apporder.Actor{UserID: "s-1", Role: apporder.RoleStaff}, svc.actor)

	w = do(engine, http.MethodGet, "/api/v1/orders/missing", bearer(t, "alice", apporder.RoleCustomer), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserCancelMapsInvalidState(t *testing.T) {
	engine := newEngine(&stubService{})

	w := do(engine, http.MethodPost, "/api/v1/orders/o-1/user-cancel", bearer(t, "alice", apporder.RoleCustomer), "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decode(t, w).Error)
}

func TestListOrdersIsPaginatedAndStaffOnly(t *testing.T) {
	engine := newEngine(&stubService{})

	w := do(engine, http.MethodGet, "/api/v1/orders?status=pending&page=2&size=10", bearer(t, "alice", apporder.RoleCustomer), "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(engine, http.MethodGet, "/api/v1/orders?status=pending&page=2&size=10", bearer(t, "s-1", apporder.RoleStaff), "")
	require.Equal(t, http.StatusOK, w.Code)
	var body response.PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, response.Pagination{Page: 2, PageSize: 10, TotalItems: 21, TotalPages: 3}, body.Pagination)
}

func TestReturnRoutesDoNotClashWithOrderID(t *testing.T) {
	engine := newEngine(&stubService{})

	w := do(engine, http.MethodPatch, "/api/v1/orders/returns/r-1/status", bearer(t, "admin", apporder.RoleAdmin), `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":"r-1"`)
}
