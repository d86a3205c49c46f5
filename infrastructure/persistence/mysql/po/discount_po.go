package po

import (
	"time"

	"ecommerce/domain/discount"
	"ecommerce/domain/shared"

	"github.com/shopspring/decimal"
)

// DiscountPO discount definition. Deleted rows stay readable so that a
// deleted code is reported as such instead of as unknown.
type DiscountPO struct {
	ID               string          `gorm:"primaryKey;size:64"`
	Code             string          `gorm:"size:64;uniqueIndex;not null"`
	Type             string          `gorm:"size:20;not null"`
	Value            decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	StartDate        *time.Time
	EndDate          *time.Time
	MaxUses          *int
	MaxDiscountValue *int64
	MinOrderTotal    *int64
	UsedCount        int  `gorm:"not null;default:0"`
	Active           bool `gorm:"not null;default:true"`
	Deleted          bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (DiscountPO) TableName() string {
	return "discounts"
}

func (po *DiscountPO) ToDomain() (*discount.Discount, error) {
	return discount.RebuildFromDTO(discount.ReconstructionDTO{
		ID:               po.ID,
		Code:             po.Code,
		Type:             discount.Type(po.Type),
		Value:            po.Value,
		StartDate:        po.StartDate,
		EndDate:          po.EndDate,
		MaxUses:          po.MaxUses,
		MaxDiscountValue: optionalMoney(po.MaxDiscountValue),
		MinOrderTotal:    optionalMoney(po.MinOrderTotal),
		UsedCount:        po.UsedCount,
		Active:           po.Active,
		Deleted:          po.Deleted,
	})
}

func optionalMoney(v *int64) *shared.Money {
	if v == nil {
		return nil
	}
	m := shared.NewMoney(*v)
	return &m
}
