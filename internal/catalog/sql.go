package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hservice/internal/models"
	"hservice/internal/storage"
)

const productColumns = `id, name, description, price, in_stock, discount_percent`

// SQLRepository reads products from the productos table.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

func NewSQLRepository(db *sql.DB, driver string) *SQLRepository {
	return &SQLRepository{db: db, driver: driver}
}

func (r *SQLRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM productos ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.InStock, &p.DiscountPercent); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// FindByName looks a product up by its exact name.
func (r *SQLRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	query := storage.Rebind(r.driver, `SELECT `+productColumns+` FROM productos WHERE name = ?`)
	var p models.Product
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.InStock, &p.DiscountPercent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %q: %w", name, err)
	}
	return &p, nil
}

// Seed inserts the given products when the table is empty. It reports how
// many rows were written.
func Seed(ctx context.Context, db *sql.DB, driver string, products []models.Product) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM productos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, storage.Rebind(driver,
		`INSERT INTO productos (name, description, price, in_stock, discount_percent) VALUES (?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.Name, p.Description, p.Price, p.InStock, p.DiscountPercent); err != nil {
			return 0, fmt.Errorf("seed product %s: %w", p.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(products), nil
}
