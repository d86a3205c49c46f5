package discount

import (
	"context"
	"net/http"

	"ecommerce/api/ctxutil"
	"ecommerce/api/middleware"
	"ecommerce/api/response"
	appdiscount "ecommerce/application/discount"
	apporder "ecommerce/application/order"

	"github.com/gin-gonic/gin"
)

// Previewer checks a code without consuming a use.
type Previewer interface {
	Preview(ctx context.Context, code string, orderTotal int64) (*appdiscount.PreviewResponse, error)
}

type ValidateRequest struct {
	Code       string `json:"code" binding:"required"`
	OrderTotal int64  `json:"order_total" binding:"min=0"`
}

// Controller 优惠码校验
type Controller struct {
	validator Previewer
	auth      gin.HandlerFunc
}

func NewController(validator Previewer, auth gin.HandlerFunc) *Controller {
	return &Controller{validator: validator, auth: auth}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/discounts", c.auth)
	group.POST("/validate", middleware.RequireRoles(apporder.RoleCustomer), c.Validate)
}

// Validate POST /api/v1/discounts/validate
func (c *Controller) Validate(ctx *gin.Context) {
	var req ValidateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	preview, err := c.validator.Preview(ctxutil.WithRequestID(ctx), req.Code, req.OrderTotal)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, preview, "discount code is valid")
}
