package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hservice/internal/models"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by FindByName when no product matches.
var ErrNotFound = errors.New("product not found")

// Repository reads the product catalog.
type Repository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
}

// MockProducts is the catalog used when no database is configured.
func MockProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Notebook Lenovo", Description: "Notebook con 8GB RAM y SSD 256GB", Price: decimal.NewFromInt(250000), InStock: true, DiscountPercent: decimal.NewFromInt(10)},
		{ID: 2, Name: "Mouse Gamer RGB", Description: "Mouse con luces y sensor óptico", Price: decimal.NewFromInt(8000), InStock: true, DiscountPercent: decimal.NewFromInt(5)},
		{ID: 3, Name: "Auriculares Bluetooth", Description: "Inalámbricos con cancelación de ruido", Price: decimal.NewFromInt(15000), InStock: false, DiscountPercent: decimal.Zero},
		{ID: 4, Name: "Teclado Mecánico", Description: "Switches rojos y retroiluminación RGB", Price: decimal.NewFromInt(12000), InStock: true, DiscountPercent: decimal.NewFromInt(15)},
	}
}

// Format renders products as the plain-text catalog block embedded in prompts.
func Format(products []models.Product) string {
	if len(products) == 0 {
		return "no products available"
	}
	var b strings.Builder
	for i, p := range products {
		if i > 0 {
			b.WriteByte('\n')
		}
		stock := "in stock"
		if !p.InStock {
			stock = "out of stock"
		}
		fmt.Fprintf(&b, "- %s (id %d): %s. Price %s", p.Name, p.ID, p.Description, p.Price.StringFixed(2))
		if p.DiscountPercent.IsPositive() {
			fmt.Fprintf(&b, ", discount %s%%, final price %s", p.DiscountPercent.String(), p.FinalPrice().StringFixed(2))
		}
		fmt.Fprintf(&b, ", %s.", stock)
	}
	return b.String()
}
