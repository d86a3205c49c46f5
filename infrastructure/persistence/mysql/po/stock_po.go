package po

import (
	"time"

	"ecommerce/domain/inventory"
)

// StockPO one row per product; quantity must equal the sum of its log rows.
type StockPO struct {
	ID        string    `gorm:"primaryKey;size:64"`
	ProductID string    `gorm:"size:64;uniqueIndex;not null"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"precision:3"`
	UpdatedAt time.Time `gorm:"precision:3"`
}

func (StockPO) TableName() string {
	return "stocks"
}

// StockLogPO append-only ledger row
type StockLogPO struct {
	ID            string    `gorm:"primaryKey;size:64"`
	StockID       string    `gorm:"size:64;index;not null"`
	ProductID     string    `gorm:"size:64;index;not null"`
	Change        int       `gorm:"column:change_qty;not null"`
	ChangeType    string    `gorm:"size:20;not null"`
	ReferenceType string    `gorm:"size:20;not null"`
	ReferenceID   string    `gorm:"size:64;index"`
	Note          string    `gorm:"size:500"`
	CreatedAt     time.Time `gorm:"precision:3;index"`
}

func (StockLogPO) TableName() string {
	return "stock_logs"
}

func FromStockDomain(s *inventory.Stock) *StockPO {
	return &StockPO{
		ID:        s.ID(),
		ProductID: s.ProductID(),
		Quantity:  s.Quantity(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
	}
}

func (po *StockPO) ToDomain() *inventory.Stock {
	return inventory.RebuildFromDTO(inventory.ReconstructionDTO{
		ID:        po.ID,
		ProductID: po.ProductID,
		Quantity:  po.Quantity,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	})
}

func FromStockLogDomain(l *inventory.Log) *StockLogPO {
	reason := l.Reason()
	return &StockLogPO{
		ID:            l.ID(),
		StockID:       l.StockID(),
		ProductID:     l.ProductID(),
		Change:        l.Change(),
		ChangeType:    string(reason.ChangeType()),
		ReferenceType: string(reason.ReferenceType()),
		ReferenceID:   reason.ReferenceID(),
		Note:          l.Note(),
		CreatedAt:     l.CreatedAt(),
	}
}

func (po *StockLogPO) ToDomain() (*inventory.Log, error) {
	reason, err := inventory.RebuildReason(po.ChangeType, po.ReferenceType, po.ReferenceID)
	if err != nil {
		return nil, err
	}
	return inventory.RebuildLogFromDTO(inventory.LogReconstructionDTO{
		ID:        po.ID,
		StockID:   po.StockID,
		ProductID: po.ProductID,
		Change:    po.Change,
		Reason:    reason,
		Note:      po.Note,
		CreatedAt: po.CreatedAt,
	}), nil
}
