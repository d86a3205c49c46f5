/*
Package mocks provides in-memory implementations of every repository and
collaborator port over one shared Store. A unit of work snapshots the store
and restores it when the business function fails, so rollback behavior can
be exercised without a database.
*/
package mocks

import (
	"sort"
	"sync"

	"ecommerce/domain/catalog"
	"ecommerce/domain/customer"
	"ecommerce/domain/discount"
	"ecommerce/domain/inventory"
	"ecommerce/domain/order"
	"ecommerce/domain/productreturn"
	"ecommerce/infrastructure/outbox"
)

// Store 内存数据源。txMu 串行化工作单元，mu 保护数据本身。
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data storeData
}

type storeData struct {
	orders    map[string]order.ReconstructionDTO
	stocks    map[string]inventory.ReconstructionDTO // by product id
	logs      []inventory.LogReconstructionDTO
	discounts map[string]discount.ReconstructionDTO
	returns   map[string]productreturn.ReconstructionDTO
	outbox    []outbox.Record
	carts     map[string][]customer.CartLine
	addresses map[string]customer.Address
	products  map[string]catalog.Product
}

func NewStore() *Store {
	return &Store{data: storeData{
		orders:    make(map[string]order.ReconstructionDTO),
		stocks:    make(map[string]inventory.ReconstructionDTO),
		discounts: make(map[string]discount.ReconstructionDTO),
		returns:   make(map[string]productreturn.ReconstructionDTO),
		carts:     make(map[string][]customer.CartLine),
		addresses: make(map[string]customer.Address),
		products:  make(map[string]catalog.Product),
	}}
}

func (s *Store) snapshot() storeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.clone()
}

func (s *Store) restore(d storeData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = d
}

func (d storeData) clone() storeData {
	c := storeData{
		orders:    make(map[string]order.ReconstructionDTO, len(d.orders)),
		stocks:    make(map[string]inventory.ReconstructionDTO, len(d.stocks)),
		logs:      append([]inventory.LogReconstructionDTO(nil), d.logs...),
		discounts: make(map[string]discount.ReconstructionDTO, len(d.discounts)),
		returns:   make(map[string]productreturn.ReconstructionDTO, len(d.returns)),
		outbox:    append([]outbox.Record(nil), d.outbox...),
		carts:     make(map[string][]customer.CartLine, len(d.carts)),
		addresses: make(map[string]customer.Address, len(d.addresses)),
		products:  make(map[string]catalog.Product, len(d.products)),
	}
	for k, v := range d.orders {
		v.Items = append([]order.OrderItem(nil), v.Items...)
		c.orders[k] = v
	}
	for k, v := range d.stocks {
		c.stocks[k] = v
	}
	for k, v := range d.discounts {
		c.discounts[k] = v
	}
	for k, v := range d.returns {
		c.returns[k] = v
	}
	for k, v := range d.carts {
		c.carts[k] = append([]customer.CartLine(nil), v...)
	}
	for k, v := range d.addresses {
		c.addresses[k] = v
	}
	for k, v := range d.products {
		c.products[k] = v
	}
	return c
}

// ============================================================================
// Seeding helpers for tests and the mock runtime
// ============================================================================

func (s *Store) PutProduct(p catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.products[p.ID] = p
}

func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.products, id)
}

func (s *Store) PutAddress(a customer.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.addresses[a.ID] = a
}

func (s *Store) PutCart(userID string, lines ...customer.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.carts[userID] = append([]customer.CartLine(nil), lines...)
}

func (s *Store) PutDiscount(dto discount.ReconstructionDTO) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dto.Code = discount.CanonicalCode(dto.Code)
	s.data.discounts[dto.ID] = dto
}

// PutOrder stores an order as-is, bypassing the workflow.
func (s *Store) PutOrder(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.orders[o.ID()] = orderToDTO(o)
}

// PutReturn stores a return as-is, bypassing the workflow.
func (s *Store) PutReturn(r *productreturn.ProductReturn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.returns[r.ID()] = returnToDTO(r)
}

// ============================================================================
// Inspection helpers
// ============================================================================

// Cart returns a copy of the user's cart.
func (s *Store) Cart(userID string) []customer.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]customer.CartLine(nil), s.data.carts[userID]...)
}

// StockQuantity returns the stored quantity and whether the row exists.
func (s *Store) StockQuantity(productID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.stocks[productID]
	return st.Quantity, ok
}

// StockLogs returns the product's log rows in insertion order.
func (s *Store) StockLogs(productID string) []*inventory.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logs []*inventory.Log
	for _, l := range s.data.logs {
		if l.ProductID == productID {
			logs = append(logs, inventory.RebuildLogFromDTO(l))
		}
	}
	return logs
}

func (s *Store) DiscountUsedCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.discounts[id].UsedCount
}

func (s *Store) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

// OutboxEventTypes lists the event types written so far, oldest first.
func (s *Store) OutboxEventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, len(s.data.outbox))
	for i, r := range s.data.outbox {
		types[i] = r.EventType
	}
	return types
}

// OutboxRecords returns a copy of the outbox.
func (s *Store) OutboxRecords() []outbox.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Record(nil), s.data.outbox...)
}

func orderToDTO(o *order.Order) order.ReconstructionDTO {
	return order.ReconstructionDTO{
		ID:             o.ID(),
		UserID:         o.UserID(),
		AddressID:      o.AddressID(),
		DiscountID:     o.DiscountID(),
		DiscountCode:   o.DiscountCode(),
		Status:         o.Status(),
		PaymentStatus:  o.PaymentStatus(),
		PaymentMethod:  o.PaymentMethod(),
		TransactionID:  o.TransactionID(),
		PaidAt:         o.PaidAt(),
		OrderTotal:     o.OrderTotal(),
		DiscountAmount: o.DiscountAmount(),
		ShippingFee:    o.ShippingFee(),
		Note:           o.Note(),
		StockCommitted: o.StockCommitted(),
		Items:          o.Items(),
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
	}
}

func returnToDTO(r *productreturn.ProductReturn) productreturn.ReconstructionDTO {
	return productreturn.ReconstructionDTO{
		ID:          r.ID(),
		OrderID:     r.OrderID(),
		OrderItemID: r.OrderItemID(),
		ProductID:   r.ProductID(),
		UserID:      r.UserID(),
		Quantity:    r.Quantity(),
		Reason:      r.Reason(),
		Status:      r.Status(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

// newestFirst sorts by creation time descending, id as tie breaker.
func newestFirst[T any](items []T, createdAt func(T) int64, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := createdAt(items[i]), createdAt(items[j])
		if ci != cj {
			return ci > cj
		}
		return id(items[i]) > id(items[j])
	})
}
