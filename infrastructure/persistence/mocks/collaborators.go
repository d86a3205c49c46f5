package mocks

import (
	"context"

	"ecommerce/domain/catalog"
	"ecommerce/domain/customer"
)

// CartProvider in-memory carts
type CartProvider struct {
	store *Store
}

func NewCartProvider(store *Store) *CartProvider {
	return &CartProvider{store: store}
}

func (p *CartProvider) GetCart(ctx context.Context, userID string) ([]customer.CartLine, error) {
	return p.store.Cart(userID), nil
}

func (p *CartProvider) ClearCart(ctx context.Context, userID string) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	delete(p.store.data.carts, userID)
	return nil
}

// AddressProvider in-memory address book
type AddressProvider struct {
	store *Store
}

func NewAddressProvider(store *Store) *AddressProvider {
	return &AddressProvider{store: store}
}

func (p *AddressProvider) FindByID(ctx context.Context, addressID string) (*customer.Address, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	a, ok := p.store.data.addresses[addressID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ProductCatalog in-memory products
type ProductCatalog struct {
	store *Store
}

func NewProductCatalog(store *Store) *ProductCatalog {
	return &ProductCatalog{store: store}
}

func (c *ProductCatalog) FindByID(ctx context.Context, productID string) (*catalog.Product, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	p, ok := c.store.data.products[productID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

var (
	_ customer.CartProvider    = (*CartProvider)(nil)
	_ customer.AddressProvider = (*AddressProvider)(nil)
	_ catalog.ProductCatalog   = (*ProductCatalog)(nil)
)
