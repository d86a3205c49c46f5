package discount

import (
	"testing"
	"time"

	"ecommerce/domain/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func moneyPtr(v int64) *shared.Money {
	m := shared.NewMoney(v)
	return &m
}

func timePtr(t time.Time) *time.Time { return &t }

func newDiscount(t *testing.T, dto ReconstructionDTO) *Discount {
	t.Helper()
	if dto.ID == "" {
		dto.ID = "d1"
	}
	if dto.Code == "" {
		dto.Code = "save10"
	}
	d, err := RebuildFromDTO(dto)
	require.NoError(t, err)
	return d
}

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "SAVE10", CanonicalCode("  save10 "))
	d := newDiscount(t, ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(1), Active: true})
	assert.Equal(t, "SAVE10", d.Code())
}

func TestEvaluatePercentageClampedToCap(t *testing.T) {
	d := newDiscount(t, ReconstructionDTO{
		Type:             TypePercentage,
		Value:            decimal.NewFromInt(10),
		MaxDiscountValue: moneyPtr(50_000),
		Active:           true,
	})

	amount, err := d.Evaluate(time.Now(), shared.NewMoney(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), amount.Amount())
	assert.Equal(t, 0, d.UsedCount())
}

func TestEvaluatePercentageFloors(t *testing.T) {
	d := newDiscount(t, ReconstructionDTO{Type: TypePercentage, Value: decimal.RequireFromString("12.5"), Active: true})

	amount, err := d.Evaluate(time.Now(), shared.NewMoney(999))
	require.NoError(t, err)
	// 999 * 12.5 / 100 = 124.875
	assert.Equal(t, int64(124), amount.Amount())
}

func TestEvaluateFixedClampedToOrderTotal(t *testing.T) {
	d := newDiscount(t, ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(300_000), Active: true})

	amount, err := d.Evaluate(time.Now(), shared.NewMoney(120_000))
	require.NoError(t, err)
	assert.Equal(t, int64(120_000), amount.Amount())

	amount, err = d.Evaluate(time.Now(), shared.NewMoney(500_000))
	require.NoError(t, err)
	assert.Equal(t, int64(300_000), amount.Amount())
}

func TestEvaluateCheckOrder(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	total := shared.NewMoney(100_000)

	tests := []struct {
		name   string
		dto    ReconstructionDTO
		reason RejectionReason
	}{
		{
			name:   "deleted wins over everything",
			dto:    ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(1), Deleted: true, Active: false},
			reason: RejectNotFound,
		},
		{
			name:   "inactive",
			dto:    ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(1), Active: false, MaxUses: intPtr(0)},
			reason: RejectInactive,
		},
		{
			name: "not started",
			dto: ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(1), Active: true,
				StartDate: timePtr(now.Add(time.Hour))},
			reason: RejectNotStarted,
		},
		{
			name: "expired",
			dto: ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(1), Active: true,
				EndDate: timePtr(now.Add(-time.Hour))},
			reason: RejectExpired,
		},
		{
			name: "exhausted before min order check",
			dto: ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(1), Active: true,
				MaxUses: intPtr(3), UsedCount: 3, MinOrderTotal: moneyPtr(1_000_000)},
			reason: RejectExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDiscount(t, tt.dto)
			_, err := d.Evaluate(now, total)

			var rejection *Rejection
			require.ErrorAs(t, err, &rejection)
			assert.Equal(t, tt.reason, rejection.Reason)
			assert.ErrorIs(t, err, ErrDiscountRejected)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestEvaluateMinOrderIsHardError(t *testing.T) {
	d := newDiscount(t, ReconstructionDTO{Type: TypeFixed, Value: decimal.NewFromInt(1), Active: true,
		MinOrderTotal: moneyPtr(200_000)})

	_, err := d.Evaluate(time.Now(), shared.NewMoney(199_999))
	assert.ErrorIs(t, err, ErrMinOrderTotalNotMet)

	var rejection *Rejection
	assert.NotErrorAs(t, err, &rejection)

	_, err = d.Evaluate(time.Now(), shared.NewMoney(200_000))
	assert.NoError(t, err)
}

func TestRebuildRejectsInvalidDefinitions(t *testing.T) {
	_, err := RebuildFromDTO(ReconstructionDTO{Type: TypePercentage, Value: decimal.NewFromInt(101)})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = RebuildFromDTO(ReconstructionDTO{Type: TypeFixed, Value: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	_, err = RebuildFromDTO(ReconstructionDTO{Type: "bogus", Value: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}
