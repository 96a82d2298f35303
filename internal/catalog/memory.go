package catalog

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"hservice/internal/models"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MemoryRepository serves a fixed product list.
type MemoryRepository struct {
	mu       sync.RWMutex
	products []models.Product
}

func NewMemoryRepository(products []models.Product) *MemoryRepository {
	cp := make([]models.Product, len(products))
	copy(cp, products)
	return &MemoryRepository{products: cp}
}

func (r *MemoryRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

// FindByName returns the first product whose name contains name, ignoring case
// and accents ("teclado mecanico" finds "Teclado Mecánico").
func (r *MemoryRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	needle := fold(name)
	if needle == "" {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.products {
		if strings.Contains(fold(p.Name), needle) {
			found := p
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
