/*
Package catalog is the read-only product port used to freeze prices into
order lines.
*/
package catalog

import (
	"context"

	"ecommerce/domain/shared"
)

type Product struct {
	ID        string
	Name      string
	Price     shared.Money
	SalePrice *shared.Money
}

// EffectivePrice is the sale price when one is set, else the list price.
func (p Product) EffectivePrice() shared.Money {
	if p.SalePrice != nil && !p.SalePrice.IsNegative() {
		return *p.SalePrice
	}
	return p.Price
}

// ProductCatalog returns nil, nil when the product does not exist.
type ProductCatalog interface {
	FindByID(ctx context.Context, productID string) (*Product, error)
}
