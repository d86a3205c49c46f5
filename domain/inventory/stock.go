/*
Package inventory Stock ledger subdomain.

Stock holds the current quantity of one product; Log is the append-only
history of every change. The quantity is a materialized sum of the log and
is only ever written together with exactly one new log row.
*/
package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stock 商品库存（与商品 1:1）
type Stock struct {
	id        string
	productID string
	quantity  int
	createdAt time.Time
	updatedAt time.Time
}

// Log 库存变动记录，只追加不修改
type Log struct {
	id        string
	stockID   string
	productID string
	change    int
	reason    Reason
	note      string
	createdAt time.Time
}

// NewStock creates an empty stock row for a product. Opening quantities are
// booked through Apply so that the ledger stays balanced.
func NewStock(productID string) (*Stock, error) {
	if productID == "" {
		return nil, newInvalidChangeError("product id is required")
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate stock ID: %w", err)
	}
	now := time.Now()
	return &Stock{
		id:        id.String(),
		productID: productID,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// Apply computes the new quantity and returns the log row that records it.
// Nothing changes when the result would be negative.
func (s *Stock) Apply(change int, reason Reason, note string) (*Log, error) {
	if change == 0 {
		return nil, newInvalidChangeError("stock change must not be zero")
	}
	if reason.IsZero() {
		return nil, ErrInvalidReason
	}

	next := s.quantity + change
	if next < 0 {
		return nil, NewInsufficientStockError(s.productID, s.quantity, -change)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate stock log ID: %w", err)
	}

	now := time.Now()
	s.quantity = next
	s.updatedAt = now

	return &Log{
		id:        id.String(),
		stockID:   s.id,
		productID: s.productID,
		change:    change,
		reason:    reason,
		note:      note,
		createdAt: now,
	}, nil
}

// ============================================================================
// Reconstruction - repository use only
// ============================================================================

type ReconstructionDTO struct {
	ID        string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Stock {
	return &Stock{
		id:        dto.ID,
		productID: dto.ProductID,
		quantity:  dto.Quantity,
		createdAt: dto.CreatedAt,
		updatedAt: dto.UpdatedAt,
	}
}

type LogReconstructionDTO struct {
	ID        string
	StockID   string
	ProductID string
	Change    int
	Reason    Reason
	Note      string
	CreatedAt time.Time
}

func RebuildLogFromDTO(dto LogReconstructionDTO) *Log {
	return &Log{
		id:        dto.ID,
		stockID:   dto.StockID,
		productID: dto.ProductID,
		change:    dto.Change,
		reason:    dto.Reason,
		note:      dto.Note,
		createdAt: dto.CreatedAt,
	}
}

func (s *Stock) ID() string           { return s.id }
func (s *Stock) ProductID() string    { return s.productID }
func (s *Stock) Quantity() int        { return s.quantity }
func (s *Stock) CreatedAt() time.Time { return s.createdAt }
func (s *Stock) UpdatedAt() time.Time { return s.updatedAt }

func (l *Log) ID() string           { return l.id }
func (l *Log) StockID() string      { return l.stockID }
func (l *Log) ProductID() string    { return l.productID }
func (l *Log) Change() int          { return l.change }
func (l *Log) Reason() Reason       { return l.reason }
func (l *Log) Note() string         { return l.note }
func (l *Log) CreatedAt() time.Time { return l.createdAt }
