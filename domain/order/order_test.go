package order

import (
	"context"
	"testing"
	"time"

	"ecommerce/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T, method PaymentMethod) *Order {
	t.Helper()
	o, err := NewOrder(NewOrderParams{
		UserID:        "user-1",
		AddressID:     "addr-1",
		PaymentMethod: method,
		Lines: []Line{
			{ProductID: "p1", UnitPrice: shared.NewMoney(100_000), Quantity: 2},
			{ProductID: "p2", UnitPrice: shared.NewMoney(50_000), Quantity: 1},
		},
	})
	require.NoError(t, err)
	o.PullEvents()
	return o
}

func rebuild(status Status, payment PaymentStatus, method PaymentMethod) *Order {
	return RebuildFromDTO(ReconstructionDTO{
		ID:            "order-1",
		UserID:        "user-1",
		Status:        status,
		PaymentStatus: payment,
		PaymentMethod: method,
		OrderTotal:    shared.NewMoney(250_000),
	})
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder(NewOrderParams{
		UserID:        "user-1",
		AddressID:     "addr-1",
		PaymentMethod: MethodCash,
		Note:          "leave at door",
		Lines: []Line{
			{ProductID: "p1", UnitPrice: shared.NewMoney(100_000), Quantity: 2},
			{ProductID: "p2", UnitPrice: shared.NewMoney(50_000), Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status())
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus())
	assert.Equal(t, int64(250_000), o.OrderTotal().Amount())
	assert.Equal(t, int64(250_000), o.FinalTotal().Amount())
	assert.False(t, o.StockCommitted())
	require.Len(t, o.Items(), 2)
	for _, item := range o.Items() {
		assert.Equal(t, o.ID(), item.OrderID())
	}

	events := o.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "order.placed", events[0].EventName())
	assert.Empty(t, o.PullEvents())
}

func TestNewOrderValidation(t *testing.T) {
	valid := []Line{{ProductID: "p1", UnitPrice: shared.NewMoney(10), Quantity: 1}}
	tests := []struct {
		name   string
		params NewOrderParams
	}{
		{"empty cart", NewOrderParams{UserID: "u", AddressID: "a", PaymentMethod: MethodCash}},
		{"missing user", NewOrderParams{AddressID: "a", PaymentMethod: MethodCash, Lines: valid}},
		{"missing address", NewOrderParams{UserID: "u", PaymentMethod: MethodCash, Lines: valid}},
		{"bad method", NewOrderParams{UserID: "u", AddressID: "a", PaymentMethod: "card", Lines: valid}},
		{"zero quantity", NewOrderParams{UserID: "u", AddressID: "a", PaymentMethod: MethodCash,
			Lines: []Line{{ProductID: "p1", UnitPrice: shared.NewMoney(10), Quantity: 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewOrder(tt.params)
			assert.Nil(t, o)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	o := newTestOrder(t, MethodGateway)

	require.NoError(t, o.ApplyDiscount("d1", "SAVE10", shared.NewMoney(25_000)))
	assert.Equal(t, int64(250_000), o.OrderTotal().Amount())
	assert.Equal(t, int64(225_000), o.FinalTotal().Amount())
	assert.Equal(t, "SAVE10", o.DiscountCode())

	err := o.ApplyDiscount("d2", "OTHER", shared.NewMoney(1))
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, "d1", o.DiscountID())
}

func TestApplyDiscountCannotExceedTotal(t *testing.T) {
	o := newTestOrder(t, MethodCash)
	err := o.ApplyDiscount("d1", "BIG", shared.NewMoney(250_001))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestChangeStatusStateMachine(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipping, false},
		{StatusProcessing, StatusShipping, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipping, StatusDelivered, true},
		{StatusShipping, StatusCancelled, true},
		{StatusDelivered, StatusReturned, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusReturned, StatusDelivered, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			o := rebuild(tt.from, PaymentUnpaid, MethodCash)
			p, err := o.ChangeStatus(tt.to, time.Now())
			if !tt.ok {
				assert.ErrorIs(t, err, shared.ErrInvalidState)
				assert.Equal(t, tt.from, o.Status())
				assert.True(t, p.IsEmpty())
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p.Status)
			assert.Equal(t, tt.to, *p.Status)
			assert.Equal(t, tt.to, o.Status())
		})
	}
}

func TestDeliverySettlesUnpaidOrder(t *testing.T) {
	o := rebuild(StatusShipping, PaymentUnpaid, MethodCash)
	now := time.Now()

	p, err := o.ChangeStatus(StatusDelivered, now)
	require.NoError(t, err)
	require.NotNil(t, p.PaymentStatus)
	assert.Equal(t, PaymentPaid, *p.PaymentStatus)
	assert.Equal(t, PaymentPaid, o.PaymentStatus())
	require.NotNil(t, o.PaidAt())
	assert.True(t, now.Equal(*o.PaidAt()))
}

func TestCancelReleasesCommittedStockOnly(t *testing.T) {
	committed := rebuild(StatusProcessing, PaymentPaid, MethodGateway)
	committed.MarkStockCommitted()
	p, err := committed.ChangeStatus(StatusCancelled, time.Now())
	require.NoError(t, err)
	require.NotNil(t, p.StockCommitted)
	assert.False(t, *p.StockCommitted)
	assert.False(t, committed.StockCommitted())

	uncommitted := rebuild(StatusPending, PaymentUnpaid, MethodGateway)
	p, err = uncommitted.ChangeStatus(StatusCancelled, time.Now())
	require.NoError(t, err)
	assert.Nil(t, p.StockCommitted)
}

func TestCancelByUser(t *testing.T) {
	o := rebuild(StatusPending, PaymentUnpaid, MethodCash)
	o.MarkStockCommitted()

	p, err := o.CancelByUser("user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, *p.Status)
	assert.Equal(t, PaymentFailed, *p.PaymentStatus)
	assert.False(t, *p.StockCommitted)

	names := []string{}
	for _, e := range o.PullEvents() {
		names = append(names, e.EventName())
	}
	assert.Equal(t, []string{"order.status_changed", "order.cancelled"}, names)
}

func TestCancelByUserRejections(t *testing.T) {
	_, err := rebuild(StatusProcessing, PaymentUnpaid, MethodCash).CancelByUser("user-1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = rebuild(StatusPending, PaymentPaid, MethodGateway).CancelByUser("user-1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = rebuild(StatusPending, PaymentUnpaid, MethodCash).CancelByUser("someone-else")
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCancelByAdmin(t *testing.T) {
	o := rebuild(StatusShipping, PaymentPaid, MethodGateway)
	p, err := o.CancelByAdmin()
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status())
	assert.Nil(t, p.PaymentStatus)

	_, err = o.CancelByAdmin()
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestConfirmDelivery(t *testing.T) {
	o := rebuild(StatusShipping, PaymentUnpaid, MethodCash)
	_, err := o.ConfirmDelivery("user-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, o.Status())
	assert.Equal(t, PaymentPaid, o.PaymentStatus())

	for _, status := range []Status{StatusPending, StatusProcessing, StatusDelivered, StatusCancelled} {
		_, err := rebuild(status, PaymentUnpaid, MethodCash).ConfirmDelivery("user-1", time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidState, status)
		assert.Contains(t, err.Error(), confirmDeliveryRejections[status])
	}
}

func TestChangePaymentMethod(t *testing.T) {
	o := rebuild(StatusPending, PaymentUnpaid, MethodGateway)
	p, err := o.ChangePaymentMethod("user-1", MethodCash)
	require.NoError(t, err)
	assert.Equal(t, MethodCash, *p.PaymentMethod)
	assert.Equal(t, PaymentUnpaid, *p.PaymentStatus)

	_, err = o.ChangePaymentMethod("user-1", MethodCash)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = rebuild(StatusProcessing, PaymentUnpaid, MethodCash).ChangePaymentMethod("user-1", MethodGateway)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPrepareRepayment(t *testing.T) {
	p, err := rebuild(StatusPending, PaymentUnpaid, MethodGateway).PrepareRepayment("user-1")
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())

	failed := rebuild(StatusPending, PaymentFailed, MethodGateway)
	p, err = failed.PrepareRepayment("user-1")
	require.NoError(t, err)
	assert.Equal(t, PaymentUnpaid, *p.PaymentStatus)
	assert.Equal(t, PaymentUnpaid, failed.PaymentStatus())

	_, err = rebuild(StatusPending, PaymentUnpaid, MethodCash).PrepareRepayment("user-1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = rebuild(StatusPending, PaymentPaid, MethodGateway).PrepareRepayment("user-1")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestFilterSpecification(t *testing.T) {
	assert.Nil(t, Filter{}.Specification())

	o := rebuild(StatusPending, PaymentUnpaid, MethodCash)
	spec := Filter{Status: StatusPending, PaymentMethod: MethodCash}.Specification()
	require.NotNil(t, spec)
	assert.True(t, spec.IsSatisfiedBy(context.Background(), o))

	spec = Filter{Status: StatusPending, PaymentStatus: PaymentPaid}.Specification()
	assert.False(t, spec.IsSatisfiedBy(context.Background(), o))
}
