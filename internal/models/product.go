package models

import "github.com/shopspring/decimal"

// Product is a catalog row the product-aware dialogue variant shows to the model.
type Product struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	InStock         bool            `json:"in_stock"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// FinalPrice applies the discount to the list price.
func (p Product) FinalPrice() decimal.Decimal {
	if p.DiscountPercent.IsZero() {
		return p.Price
	}
	factor := decimal.NewFromInt(100).Sub(p.DiscountPercent).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor).Round(2)
}
