/*
Package inventory - 库存台账 API

所有写操作都经过台账：每次变动写一条流水，数量由流水累加得出。
*/
package inventory

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ecommerce/api/ctxutil"
	"ecommerce/api/middleware"
	"ecommerce/api/response"
	appinventory "ecommerce/application/inventory"
	apporder "ecommerce/application/order"
	"ecommerce/domain/inventory"

	"github.com/gin-gonic/gin"
)

// Ledger is the subset of the stock ledger exposed over HTTP.
type Ledger interface {
	CreateInitial(ctx context.Context, productID string, quantity int) (*inventory.Stock, error)
	ImportInvoice(ctx context.Context, invoiceID string, lines []appinventory.ImportLine) ([]*inventory.Log, error)
	Adjust(ctx context.Context, productID string, change int, note string) (*inventory.Log, error)
	Stock(ctx context.Context, productID string) (*inventory.Stock, error)
	History(ctx context.Context, productID string, limit int) ([]*inventory.Log, error)
	Audit(ctx context.Context, productID string) (*appinventory.AuditReport, error)
}

type CreateStockRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"min=0"`
}

type ImportRequest struct {
	InvoiceID string                    `json:"invoice_id" binding:"required"`
	Lines     []appinventory.ImportLine `json:"lines" binding:"required,min=1,dive"`
}

type AdjustRequest struct {
	Change int    `json:"change" binding:"required"`
	Note   string `json:"note" binding:"required,max=500"`
}

type StockResponse struct {
	ID        string                    `json:"id"`
	ProductID string                    `json:"product_id"`
	Quantity  int                       `json:"quantity"`
	Audit     *appinventory.AuditReport `json:"audit,omitempty"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

type LogResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	Change        int       `json:"change"`
	ChangeType    string    `json:"change_type"`
	ReferenceType string    `json:"reference_type,omitempty"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Controller 库存台账控制器
type Controller struct {
	ledger Ledger
	auth   gin.HandlerFunc
}

func NewController(ledger Ledger, auth gin.HandlerFunc) *Controller {
	return &Controller{ledger: ledger, auth: auth}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRoles(apporder.RoleStaff, apporder.RoleAdmin)
	admin := middleware.RequireRoles(apporder.RoleAdmin)

	stocks := router.Group("/stocks", c.auth)
	{
		stocks.POST("", admin, c.CreateInitial)
		stocks.POST("/imports", staff, c.ImportInvoice)
		stocks.POST("/:productId/adjustments", admin, c.Adjust)
		stocks.GET("/:productId", staff, c.GetStock)
		stocks.GET("/:productId/history", staff, c.History)
	}
}

// CreateInitial POST /api/v1/stocks
func (c *Controller) CreateInitial(ctx *gin.Context) {
	var req CreateStockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	stock, err := c.ledger.CreateInitial(ctxutil.WithRequestID(ctx), req.ProductID, req.Quantity)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, toStockResponse(stock, nil), "stock created")
}

// ImportInvoice POST /api/v1/stocks/imports
func (c *Controller) ImportInvoice(ctx *gin.Context) {
	var req ImportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	logs, err := c.ledger.ImportInvoice(ctxutil.WithRequestID(ctx), req.InvoiceID, req.Lines)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, toLogResponses(logs), "invoice imported")
}

// Adjust POST /api/v1/stocks/:productId/adjustments
func (c *Controller) Adjust(ctx *gin.Context) {
	var req AdjustRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}

	log, err := c.ledger.Adjust(ctxutil.WithRequestID(ctx), ctx.Param("productId"), req.Change, req.Note)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleCreated(ctx, toLogResponse(log), "stock adjusted")
}

// GetStock 当前数量以及流水对账结果
// GET /api/v1/stocks/:productId
func (c *Controller) GetStock(ctx *gin.Context) {
	reqCtx := ctxutil.WithRequestID(ctx)
	productID := ctx.Param("productId")

	stock, err := c.ledger.Stock(reqCtx, productID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	audit, err := c.ledger.Audit(reqCtx, productID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, toStockResponse(stock, audit), "stock retrieved successfully")
}

// History GET /api/v1/stocks/:productId/history?limit=
func (c *Controller) History(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	logs, err := c.ledger.History(ctxutil.WithRequestID(ctx), ctx.Param("productId"), limit)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	response.HandleSuccess(ctx, toLogResponses(logs), "history retrieved successfully")
}

func toStockResponse(s *inventory.Stock, audit *appinventory.AuditReport) *StockResponse {
	return &StockResponse{
		ID:        s.ID(),
		ProductID: s.ProductID(),
		Quantity:  s.Quantity(),
		Audit:     audit,
		UpdatedAt: s.UpdatedAt(),
	}
}

func toLogResponse(l *inventory.Log) *LogResponse {
	return &LogResponse{
		ID:            l.ID(),
		ProductID:     l.ProductID(),
		Change:        l.Change(),
		ChangeType:    string(l.Reason().ChangeType()),
		ReferenceType: string(l.Reason().ReferenceType()),
		ReferenceID:   l.Reason().ReferenceID(),
		Note:          l.Note(),
		CreatedAt:     l.CreatedAt(),
	}
}

func toLogResponses(logs []*inventory.Log) []*LogResponse {
	out := make([]*LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, toLogResponse(l))
	}
	return out
}
