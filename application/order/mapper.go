package order

import (
	"ecommerce/domain/customer"
	"ecommerce/domain/order"
	"ecommerce/domain/productreturn"
)

func toOrderResponse(o *order.Order, address *customer.Address, returns []*productreturn.ProductReturn) *OrderResponse {
	byItem := make(map[string][]ReturnResponse)
	for _, r := range returns {
		byItem[r.OrderItemID()] = append(byItem[r.OrderItemID()], *toReturnResponse(r))
	}

	items := make([]OrderItemResponse, len(o.Items()))
	for i, item := range o.Items() {
		itemReturns := byItem[item.ID()]
		if itemReturns == nil {
			itemReturns = []ReturnResponse{}
		}
		items[i] = OrderItemResponse{
			ID:        item.ID(),
			ProductID: item.ProductID(),
			UnitPrice: item.UnitPrice().Amount(),
			Quantity:  item.Quantity(),
			Subtotal:  item.Subtotal().Amount(),
			Returns:   itemReturns,
		}
	}

	return &OrderResponse{
		ID:             o.ID(),
		UserID:         o.UserID(),
		Status:         string(o.Status()),
		PaymentStatus:  string(o.PaymentStatus()),
		PaymentMethod:  string(o.PaymentMethod()),
		TransactionID:  o.TransactionID(),
		PaidAt:         o.PaidAt(),
		OrderTotal:     o.OrderTotal().Amount(),
		DiscountCode:   o.DiscountCode(),
		DiscountAmount: o.DiscountAmount().Amount(),
		ShippingFee:    o.ShippingFee().Amount(),
		FinalTotal:     o.FinalTotal().Amount(),
		Note:           o.Note(),
		Address:        toAddressResponse(address),
		Items:          items,
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
	}
}

func toAddressResponse(a *customer.Address) *AddressResponse {
	if a == nil {
		return nil
	}
	return &AddressResponse{
		ID:        a.ID,
		Recipient: a.Recipient,
		Phone:     a.Phone,
		Street:    a.Street,
		City:      a.City,
	}
}

func toReturnResponse(r *productreturn.ProductReturn) *ReturnResponse {
	return &ReturnResponse{
		ID:          r.ID(),
		OrderID:     r.OrderID(),
		OrderItemID: r.OrderItemID(),
		ProductID:   r.ProductID(),
		UserID:      r.UserID(),
		Quantity:    r.Quantity(),
		Reason:      r.Reason(),
		Status:      string(r.Status()),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func toReturnResponses(returns []*productreturn.ProductReturn) []*ReturnResponse {
	responses := make([]*ReturnResponse, len(returns))
	for i, r := range returns {
		responses[i] = toReturnResponse(r)
	}
	return responses
}
