/*
Package inventory Application Layer - Stock Ledger

The ledger is the only path that changes a stock quantity. Every entry locks
the stock row, writes the new quantity and appends one log row, all inside
one unit of work. When called from another unit of work (order creation,
cancellation, return completion) it joins that transaction.
*/
package inventory

import (
	"context"
	"errors"

	"ecommerce/domain/inventory"
	"ecommerce/domain/shared"
	"ecommerce/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Metrics is the optional sink for ledger counters.
type Metrics interface {
	LedgerEntry(changeType string)
	LedgerRejection(reason string)
}

type noopMetrics struct{}

func (noopMetrics) LedgerEntry(string)     {}
func (noopMetrics) LedgerRejection(string) {}

// Ledger Stock ledger application service
type Ledger struct {
	stockRepo  inventory.Repository
	uowFactory shared.UnitOfWorkFactory
	metrics    Metrics
	tracer     trace.Tracer
}

func NewLedger(stockRepo inventory.Repository, uowFactory shared.UnitOfWorkFactory) *Ledger {
	return &Ledger{
		stockRepo:  stockRepo,
		uowFactory: uowFactory,
		metrics:    noopMetrics{},
		tracer:     otel.Tracer("ecommerce/application/inventory"),
	}
}

// WithMetrics attaches a metrics sink.
func (l *Ledger) WithMetrics(m Metrics) *Ledger {
	if m != nil {
		l.metrics = m
	}
	return l
}

// ImportLine is one invoice line.
type ImportLine struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// AuditReport compares the cached quantity with the sum of the log.
type AuditReport struct {
	ProductID string `json:"product_id"`
	StockID   string `json:"stock_id"`
	Quantity  int    `json:"quantity"`
	LogSum    int    `json:"log_sum"`
	Balanced  bool   `json:"balanced"`
}

// ============================================================================
// Ledger operations
// ============================================================================

// Apply books one entry. A missing stock row yields NotFound; a result below
// zero yields InsufficientStock and changes nothing.
func (l *Ledger) Apply(ctx context.Context, entry inventory.Entry) (*inventory.Log, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Apply", trace.WithAttributes(
		attribute.String("product_id", entry.ProductID),
		attribute.Int("change", entry.Change),
		attribute.String("change_type", string(entry.Reason.ChangeType())),
	))
	defer span.End()

	var log *inventory.Log
	err := l.uowFactory.New().Execute(ctx, func(ctx context.Context) error {
		var err error
		log, err = l.apply(ctx, entry)
		if err != nil {
			return err
		}
		l.countAfterCommit(ctx, entry.Reason.ChangeType())
		return nil
	})
	if err != nil {
		l.reject(span, err)
		return nil, err
	}
	return log, nil
}

// CreateInitial opens the stock row of a product. A positive opening quantity
// is booked as a manual adjustment so that the log stays balanced.
func (l *Ledger) CreateInitial(ctx context.Context, productID string, quantity int) (*inventory.Stock, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.CreateInitial", trace.WithAttributes(
		attribute.String("product_id", productID),
		attribute.Int("quantity", quantity),
	))
	defer span.End()

	if quantity < 0 {
		err := shared.NewValidationError("stock", "quantity", "initial quantity must not be negative")
		l.reject(span, err)
		return nil, err
	}

	var stock *inventory.Stock
	err := l.uowFactory.New().Execute(ctx, func(ctx context.Context) error {
		var err error
		stock, err = inventory.NewStock(productID)
		if err != nil {
			return err
		}
		if err := l.stockRepo.Create(ctx, stock); err != nil {
			return err
		}
		if quantity == 0 {
			return nil
		}
		err = l.book(ctx, stock, inventory.Entry{
			ProductID: productID,
			Change:    quantity,
			Reason:    inventory.ReasonAdjustment(),
			Note:      "initial stock",
		})
		if err != nil {
			return err
		}
		l.countAfterCommit(ctx, inventory.ChangeAdjustment)
		return nil
	})
	if err != nil {
		l.reject(span, err)
		return nil, err
	}

	logger.Info("Stock created",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
	)
	return stock, nil
}

// ImportInvoice books every line of a supplier invoice in one transaction,
// creating stock rows for products seen for the first time.
func (l *Ledger) ImportInvoice(ctx context.Context, invoiceID string, lines []ImportLine) ([]*inventory.Log, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.ImportInvoice", trace.WithAttributes(
		attribute.String("invoice_id", invoiceID),
		attribute.Int("lines", len(lines)),
	))
	defer span.End()

	if err := validateImport(invoiceID, lines); err != nil {
		l.reject(span, err)
		return nil, err
	}

	logs := make([]*inventory.Log, 0, len(lines))
	err := l.uowFactory.New().Execute(ctx, func(ctx context.Context) error {
		logs = logs[:0]
		for _, line := range lines {
			stock, err := l.lockOrCreate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			entry := inventory.Entry{
				ProductID: line.ProductID,
				Change:    line.Quantity,
				Reason:    inventory.ReasonImport(invoiceID),
				Note:      "invoice " + invoiceID,
			}
			log, err := stock.Apply(entry.Change, entry.Reason, entry.Note)
			if err != nil {
				return err
			}
			if err := l.persist(ctx, stock, log); err != nil {
				return err
			}
			logs = append(logs, log)
			l.countAfterCommit(ctx, inventory.ChangeImport)
		}
		return nil
	})
	if err != nil {
		l.reject(span, err)
		return nil, err
	}

	logger.Info("Invoice imported",
		zap.String("invoice_id", invoiceID),
		zap.Int("lines", len(logs)),
	)
	return logs, nil
}

// Adjust books a signed manual correction.
func (l *Ledger) Adjust(ctx context.Context, productID string, change int, note string) (*inventory.Log, error) {
	return l.Apply(ctx, inventory.Entry{
		ProductID: productID,
		Change:    change,
		Reason:    inventory.ReasonAdjustment(),
		Note:      note,
	})
}

// Stock reads the current stock row.
func (l *Ledger) Stock(ctx context.Context, productID string) (*inventory.Stock, error) {
	return l.stockRepo.FindByProductID(ctx, productID)
}

// History returns the most recent log rows, newest first.
func (l *Ledger) History(ctx context.Context, productID string, limit int) ([]*inventory.Log, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if _, err := l.stockRepo.FindByProductID(ctx, productID); err != nil {
		return nil, err
	}
	return l.stockRepo.ListLogs(ctx, productID, limit)
}

// Audit recomputes the quantity from the log.
func (l *Ledger) Audit(ctx context.Context, productID string) (*AuditReport, error) {
	stock, err := l.stockRepo.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	sum, err := l.stockRepo.SumChanges(ctx, stock.ID())
	if err != nil {
		return nil, err
	}
	report := &AuditReport{
		ProductID: productID,
		StockID:   stock.ID(),
		Quantity:  stock.Quantity(),
		LogSum:    sum,
		Balanced:  sum == stock.Quantity(),
	}
	if !report.Balanced {
		logger.Error("Stock ledger out of balance",
			zap.String("product_id", productID),
			zap.Int("quantity", report.Quantity),
			zap.Int("log_sum", report.LogSum),
		)
	}
	return report, nil
}

// ============================================================================
// helpers
// ============================================================================

func (l *Ledger) apply(ctx context.Context, entry inventory.Entry) (*inventory.Log, error) {
	stock, err := l.stockRepo.LockByProductID(ctx, entry.ProductID)
	if err != nil {
		return nil, err
	}
	log, err := stock.Apply(entry.Change, entry.Reason, entry.Note)
	if err != nil {
		return nil, err
	}
	if err := l.persist(ctx, stock, log); err != nil {
		return nil, err
	}
	return log, nil
}

func (l *Ledger) book(ctx context.Context, stock *inventory.Stock, entry inventory.Entry) error {
	log, err := stock.Apply(entry.Change, entry.Reason, entry.Note)
	if err != nil {
		return err
	}
	return l.persist(ctx, stock, log)
}

// persist writes quantity and log row together; callers run it in a unit of work.
func (l *Ledger) persist(ctx context.Context, stock *inventory.Stock, log *inventory.Log) error {
	if err := l.stockRepo.SaveQuantity(ctx, stock); err != nil {
		return err
	}
	return l.stockRepo.AppendLog(ctx, log)
}

func (l *Ledger) lockOrCreate(ctx context.Context, productID string) (*inventory.Stock, error) {
	stock, err := l.stockRepo.LockByProductID(ctx, productID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, inventory.ErrStockNotFound) {
		return nil, err
	}
	stock, err = inventory.NewStock(productID)
	if err != nil {
		return nil, err
	}
	if err := l.stockRepo.Create(ctx, stock); err != nil {
		return nil, err
	}
	return stock, nil
}

// countAfterCommit counts an entry only once the enclosing transaction, which
// may be an order workflow's, has committed.
func (l *Ledger) countAfterCommit(ctx context.Context, changeType inventory.ChangeType) {
	shared.AfterCommit(ctx, func() { l.metrics.LedgerEntry(string(changeType)) })
}

func (l *Ledger) reject(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.metrics.LedgerRejection(rejectionReason(err))
	if errors.Is(err, shared.ErrInsufficientStock) {
		logger.Warn("Stock entry rejected", zap.Error(err))
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrConflict):
		return "conflict"
	case errors.Is(err, shared.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func validateImport(invoiceID string, lines []ImportLine) error {
	if invoiceID == "" {
		return shared.NewValidationError("invoice", "invoice_id", "invoice id is required")
	}
	if len(lines) == 0 {
		return shared.NewValidationError("invoice", "lines", "invoice has no lines")
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if line.ProductID == "" {
			return shared.NewValidationError("invoice", "product_id", "product id is required")
		}
		if line.Quantity <= 0 {
			return shared.NewValidationError("invoice", "quantity", "import quantity must be positive")
		}
		if seen[line.ProductID] {
			return shared.NewValidationError("invoice", "product_id", "duplicate product "+line.ProductID+" in invoice")
		}
		seen[line.ProductID] = true
	}
	return nil
}
