/*
Package order - 订单 API 控制器

职责:
1. 接收 HTTP 请求，解析参数，从 JWT 取调用方身份
2. 调用应用服务处理业务逻辑
3. 使用 response 包统一处理响应和错误

错误处理原则:
1. 参数绑定错误: 使用 response.HandleError 直接返回 400
2. 业务错误: 使用 response.HandleAppError 自动映射状态码
*/
package order

import (
	"context"
	"net/http"
	"strconv"

	"ecommerce/api/ctxutil"
	"ecommerce/api/middleware"
	"ecommerce/api/response"
	apporder "ecommerce/application/order"
	"ecommerce/infrastructure/idempotency"
	apperrors "ecommerce/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Service is the order workflow surface used by the controller.
type Service interface {
	CreateOrder(ctx context.Context, req apporder.CreateOrderRequest) (*apporder.CreateOrderResponse, error)
	VerifyReturnCallback(ctx context.Context, params map[string]string) (*apporder.PaymentResultResponse, error)
	Repayment(ctx context.Context, userID, orderID, clientIP string) (*apporder.RepaymentResponse, error)
	UpdateOrderStatus(ctx context.Context, orderID string, req apporder.UpdateOrderStatusRequest) (*apporder.OrderResponse, error)
	UserCancelOrder(ctx context.Context, userID, orderID string) (*apporder.OrderResponse, error)
	AdminCancelOrder(ctx context.Context, orderID string) (*apporder.OrderResponse, error)
	UserConfirmDelivery(ctx context.Context, userID, orderID string) (*apporder.OrderResponse, error)
	UserChangePaymentMethod(ctx context.Context, userID, orderID string, req apporder.ChangePaymentMethodRequest) (*apporder.OrderResponse, error)
	GetOrder(ctx context.Context, actor apporder.Actor, orderID string) (*apporder.OrderResponse, error)
	ListMyOrders(ctx context.Context, userID string) ([]*apporder.OrderResponse, error)
	ListOrders(ctx context.Context, query apporder.ListOrdersQuery) (*apporder.OrderListResponse, error)

	CreateReturnRequest(ctx context.Context, userID, orderID string, req apporder.CreateReturnRequest) (*apporder.ReturnResponse, error)
	UpdateReturnStatus(ctx context.Context, returnID string, req apporder.UpdateReturnStatusRequest) (*apporder.ReturnResponse, error)
	CancelReturnRequest(ctx context.Context, userID, returnID string) (*apporder.ReturnResponse, error)
	ListMyReturns(ctx context.Context, userID string, page, size int) (*apporder.ReturnListResponse, error)
	ListReturns(ctx context.Context, query apporder.ListReturnsQuery) (*apporder.ReturnListResponse, error)
}

// Controller 订单控制器
type Controller struct {
	orderService Service
	auth         gin.HandlerFunc
	idempotency  idempotency.Store
}

// NewController 创建订单控制器。auth 为 JWT 中间件，store 可为 nil（不做幂等）
func NewController(orderService Service, auth gin.HandlerFunc, store idempotency.Store) *Controller {
	return &Controller{
		orderService: orderService,
		auth:         auth,
		idempotency:  store,
	}
}

// RegisterRoutes 注册订单和退货路由
func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	customer := middleware.RequireRoles(apporder.RoleCustomer)
	staff := middleware.RequireRoles(apporder.RoleStaff, apporder.RoleAdmin)
	admin := middleware.RequireRoles(apporder.RoleAdmin)

	orders := router.Group("/orders")

	// 支付网关回跳，无登录态
	orders.POST("/verify-return-url", c.VerifyReturnURL)
	orders.GET("/verify-return-url", c.VerifyReturnURL)

	authed := orders.Group("", c.auth)
	{
		authed.POST("", customer, middleware.Idempotency(c.idempotency), c.CreateOrder)
		authed.GET("", staff, c.ListOrders)
		authed.GET("/my", customer, c.ListMyOrders)
		authed.GET("/:id", c.GetOrder)
		authed.PATCH("/:id/status", staff, c.UpdateOrderStatus)
		authed.POST("/:id/user-cancel", customer, c.UserCancelOrder)
		authed.POST("/:id/admin-cancel", admin, c.AdminCancelOrder)
		authed.POST("/:id/repayment", customer, middleware.Idempotency(c.idempotency), c.Repayment)
		authed.POST("/:id/user-confirm-delivery", customer, c.UserConfirmDelivery)
		authed.POST("/:id/user-change-payment-method", customer, c.UserChangePaymentMethod)
		authed.POST("/:id/returns", customer, c.CreateReturnRequest)

		authed.GET("/returns", customer, c.ListMyReturns)
		authed.GET("/returns/admin", staff, c.ListReturns)
		authed.PATCH("/returns/:returnId/status", staff, c.UpdateReturnStatus)
		authed.POST("/returns/:returnId/cancel", customer, c.CancelReturnRequest)
	}
}

// CreateOrder 从购物车下单
// POST /api/v1/orders
func (c *Controller) CreateOrder(ctx *gin.Context) {
	var req apporder.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	actor, _ := middleware.ActorFrom(ctx)
	req.UserID = actor.UserID
	req.ClientIP = ctx.ClientIP()

	created, err := c.orderService.CreateOrder(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, created, "order created successfully")
}

// VerifyReturnURL 校验支付网关回跳参数。参数可以在 query 中，也可以是 JSON 对象
// POST /api/v1/orders/verify-return-url
func (c *Controller) VerifyReturnURL(ctx *gin.Context) {
	params := make(map[string]string)
	for key, values := range ctx.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if ctx.Request.Method == http.MethodPost && ctx.Request.ContentLength != 0 {
		var body map[string]string
		if err := ctx.ShouldBindJSON(&body); err != nil {
			response.HandleError(ctx, err, "invalid callback parameters", http.StatusBadRequest)
			return
		}
		for k, v := range body {
			params[k] = v
		}
	}
	if len(params) == 0 {
		response.HandleAppError(ctx, apperrors.InvalidInput("callback parameters are required"))
		return
	}

	result, err := c.orderService.VerifyReturnCallback(ctxutil.WithRequestID(ctx), params)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	message := "payment confirmed"
	if !result.Success {
		message = "payment failed"
	}
	response.HandleSuccess(ctx, result, message)
}

// GetOrder 订单详情；非员工只能看自己的订单
// GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	actor, _ := middleware.ActorFrom(ctx)
	order, err := c.orderService.GetOrder(ctxutil.WithRequestID(ctx), actor, ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "order retrieved successfully")
}

// ListMyOrders GET /api/v1/orders/my
func (c *Controller) ListMyOrders(ctx *gin.Context) {
	actor, _ := middleware.ActorFrom(ctx)
	orders, err := c.orderService.ListMyOrders(ctxutil.WithRequestID(ctx), actor.UserID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, orders, "orders retrieved successfully")
}

// ListOrders GET /api/v1/orders?status=&payment_status=&from=&to=&page=&size=
func (c *Controller) ListOrders(ctx *gin.Context) {
	var query apporder.ListOrdersQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.HandleError(ctx, err, "invalid query parameters", http.StatusBadRequest)
		return
	}

	list, err := c.orderService.ListOrders(ctxutil.WithRequestID(ctx), query)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandlePaginated(ctx, list.Items, response.NewPagination(list.Page, list.Size, list.Total), "orders retrieved successfully")
}

// UpdateOrderStatus PATCH /api/v1/orders/:id/status
func (c *Controller) UpdateOrderStatus(ctx *gin.Context) {
	var req apporder.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	order, err := c.orderService.UpdateOrderStatus(ctxutil.WithRequestID(ctx), ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "order status updated successfully")
}

// UserCancelOrder POST /api/v1/orders/:id/user-cancel
func (c *Controller) UserCancelOrder(ctx *gin.Context) {
	actor, _ := middleware.ActorFrom(ctx)
	order, err := c.orderService.UserCancelOrder(ctxutil.WithRequestID(ctx), actor.UserID, ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "order cancelled")
}

// AdminCancelOrder POST /api/v1/orders/:id/admin-cancel
func (c *Controller) AdminCancelOrder(ctx *gin.Context) {
	order, err := c.orderService.AdminCancelOrder(ctxutil.WithRequestID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "order cancelled")
}

// Repayment 重新生成支付链接
// POST /api/v1/orders/:id/repayment
func (c *Controller) Repayment(ctx *gin.Context) {
	actor, _ := middleware.ActorFrom(ctx)
	result, err := c.orderService.Repayment(ctxutil.WithRequestID(ctx), actor.UserID, ctx.Param("id"), ctx.ClientIP())
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, result, "payment url generated")
}

// UserConfirmDelivery POST /api/v1/orders/:id/user-confirm-delivery
func (c *Controller) UserConfirmDelivery(ctx *gin.Context) {
	actor, _ := middleware.ActorFrom(ctx)
	order, err := c.orderService.UserConfirmDelivery(ctxutil.WithRequestID(ctx), actor.UserID, ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "delivery confirmed")
}

// UserChangePaymentMethod POST /api/v1/orders/:id/user-change-payment-method
func (c *Controller) UserChangePaymentMethod(ctx *gin.Context) {
	var req apporder.ChangePaymentMethodRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	actor, _ := middleware.ActorFrom(ctx)

	order, err := c.orderService.UserChangePaymentMethod(ctxutil.WithRequestID(ctx), actor.UserID, ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, order, "payment method updated")
}

// CreateReturnRequest POST /api/v1/orders/:id/returns
func (c *Controller) CreateReturnRequest(ctx *gin.Context) {
	var req apporder.CreateReturnRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	actor, _ := middleware.ActorFrom(ctx)

	r, err := c.orderService.CreateReturnRequest(ctxutil.WithRequestID(ctx), actor.UserID, ctx.Param("id"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, r, "return requested")
}

// ListMyReturns GET /api/v1/orders/returns?page=&size=
func (c *Controller) ListMyReturns(ctx *gin.Context) {
	actor, _ := middleware.ActorFrom(ctx)
	page, _ := strconv.Atoi(ctx.Query("page"))
	size, _ := strconv.Atoi(ctx.Query("size"))

	list, err := c.orderService.ListMyReturns(ctxutil.WithRequestID(ctx), actor.UserID, page, size)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandlePaginated(ctx, list.Items, response.NewPagination(list.Page, list.Size, list.Total), "returns retrieved successfully")
}

// ListReturns GET /api/v1/orders/returns/admin
func (c *Controller) ListReturns(ctx *gin.Context) {
	var query apporder.ListReturnsQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.HandleError(ctx, err, "invalid query parameters", http.StatusBadRequest)
		return
	}

	list, err := c.orderService.ListReturns(ctxutil.WithRequestID(ctx), query)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandlePaginated(ctx, list.Items, response.NewPagination(list.Page, list.Size, list.Total), "returns retrieved successfully")
}

// UpdateReturnStatus PATCH /api/v1/orders/returns/:returnId/status
func (c *Controller) UpdateReturnStatus(ctx *gin.Context) {
	var req apporder.UpdateReturnStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	r, err := c.orderService.UpdateReturnStatus(ctxutil.WithRequestID(ctx), ctx.Param("returnId"), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, r, "return status updated")
}

// CancelReturnRequest POST /api/v1/orders/returns/:returnId/cancel
func (c *Controller) CancelReturnRequest(ctx *gin.Context) {
	actor, _ := middleware.ActorFrom(ctx)
	r, err := c.orderService.CancelReturnRequest(ctxutil.WithRequestID(ctx), actor.UserID, ctx.Param("returnId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, r, "return withdrawn")
}
