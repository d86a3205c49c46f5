package inventory

import (
	"testing"

	"ecommerce/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockApply(t *testing.T) {
	stock, err := NewStock("product-1")
	require.NoError(t, err)

	log, err := stock.Apply(5, ReasonImport("invoice-1"), "opening")
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity())
	assert.Equal(t, 5, log.Change())
	assert.Equal(t, ChangeImport, log.Reason().ChangeType())
	assert.Equal(t, ReferenceInvoice, log.Reason().ReferenceType())
	assert.Equal(t, "invoice-1", log.Reason().ReferenceID())
	assert.Equal(t, stock.ID(), log.StockID())

	log, err = stock.Apply(-2, ReasonSale("order-1"), "")
	require.NoError(t, err)
	assert.Equal(t, 3, stock.Quantity())
	assert.Equal(t, -2, log.Change())
}

func TestStockApplyNeverGoesNegative(t *testing.T) {
	stock := RebuildFromDTO(ReconstructionDTO{ID: "s1", ProductID: "p1", Quantity: 1})

	log, err := stock.Apply(-2, ReasonSale("order-1"), "")
	assert.Nil(t, log)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 1, stock.Quantity())
}

func TestStockApplyRejectsZeroChangeAndZeroReason(t *testing.T) {
	stock := RebuildFromDTO(ReconstructionDTO{ID: "s1", ProductID: "p1", Quantity: 1})

	_, err := stock.Apply(0, ReasonAdjustment(), "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = stock.Apply(1, Reason{}, "")
	assert.ErrorIs(t, err, ErrInvalidReason)
}

func TestReasonPairs(t *testing.T) {
	tests := []struct {
		name   string
		reason Reason
		change ChangeType
		ref    ReferenceType
	}{
		{"import", ReasonImport("i"), ChangeImport, ReferenceInvoice},
		{"sale", ReasonSale("o"), ChangeSale, ReferenceOrder},
		{"cancel", ReasonCancel("o"), ChangeCancel, ReferenceOrder},
		{"return", ReasonReturn("r"), ChangeReturn, ReferenceProductReturn},
		{"adjustment", ReasonAdjustment(), ChangeAdjustment, ReferenceManual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.change, tt.reason.ChangeType())
			assert.Equal(t, tt.ref, tt.reason.ReferenceType())

			rebuilt, err := RebuildReason(string(tt.change), string(tt.ref), tt.reason.ReferenceID())
			require.NoError(t, err)
			assert.Equal(t, tt.reason, rebuilt)
		})
	}

	_, err := RebuildReason("sale", "invoice", "x")
	assert.ErrorIs(t, err, ErrInvalidReason)
}

// Conservation: the quantity always equals the sum of the changes that were
// accepted, whatever mix of accepted and rejected changes is applied.
func TestStockConservation(t *testing.T) {
	stock := RebuildFromDTO(ReconstructionDTO{ID: "s1", ProductID: "p1"})
	changes := []int{5, -3, -4, 10, -8, -1, 2, -7}

	sum := 0
	for _, c := range changes {
		log, err := stock.Apply(c, ReasonAdjustment(), "")
		if err != nil {
			require.ErrorIs(t, err, ErrInsufficientStock)
			continue
		}
		sum += log.Change()
		require.GreaterOrEqual(t, stock.Quantity(), 0)
	}
	assert.Equal(t, sum, stock.Quantity())
}
