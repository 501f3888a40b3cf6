package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/inventario/internal/platform/db"
	"github.com/odyssey-erp/inventario/internal/shared"
)

// Repository is the product store.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetForUpdate(ctx context.Context, id int64) (Product, error)
	FindByNameContains(ctx context.Context, substr string) ([]Product, error)
	Save(ctx context.Context, p Product) (Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	CountByBrand(ctx context.Context, brandID int64) (int64, error)
	ListLowStock(ctx context.Context, limit int) ([]Product, error)
}

// PGRepository implements Repository on PostgreSQL. It runs on the pool or
// on a transaction depending on the DBTX it was built with.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs PGRepository.
func NewRepository(q db.DBTX) *PGRepository {
	return &PGRepository{db: q}
}

const productColumns = `id, name, price, cost_price, stock, min_stock, category_id, brand_id, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CostPrice, &p.Stock, &p.MinStock, &p.CategoryID, &p.BrandID, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		query += ` WHERE name ILIKE $1`
	}
	query += ` ORDER BY name ASC, id ASC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, max(filter.Offset, 0))
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	return collectProducts(rows)
}

func (r *PGRepository) Get(ctx context.Context, id int64) (Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate reads the product and locks its row until the surrounding
// transaction ends.
func (r *PGRepository) GetForUpdate(ctx context.Context, id int64) (Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *PGRepository) get(ctx context.Context, query string, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
		}
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

// FindByNameContains matches products whose name contains substr, ignoring case.
func (r *PGRepository) FindByNameContains(ctx context.Context, substr string) ([]Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE name ILIKE $1 ORDER BY id`, likePattern(substr))
	if err != nil {
		return nil, fmt.Errorf("products: find by name: %w", err)
	}
	return collectProducts(rows)
}

// Save inserts a product without ID or updates an existing one.
func (r *PGRepository) Save(ctx context.Context, p Product) (Product, error) {
	var row pgx.Row
	if p.ID == 0 {
		row = r.db.QueryRow(ctx, `
			INSERT INTO products (name, price, cost_price, stock, min_stock, category_id, brand_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+productColumns,
			p.Name, p.Price, p.CostPrice, p.Stock, p.MinStock, p.CategoryID, p.BrandID)
	} else {
		row = r.db.QueryRow(ctx, `
			UPDATE products
			SET name = $2, price = $3, cost_price = $4, stock = $5, min_stock = $6,
			    category_id = $7, brand_id = $8, updated_at = now()
			WHERE id = $1
			RETURNING `+productColumns,
			p.ID, p.Name, p.Price, p.CostPrice, p.Stock, p.MinStock, p.CategoryID, p.BrandID)
	}
	saved, err := scanProduct(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Product{}, fmt.Errorf("product %d: %w", p.ID, shared.ErrNotFound)
		case db.IsForeignKeyViolation(err):
			return Product{}, fmt.Errorf("products: unknown category or brand: %w", shared.ErrInvalidArgument)
		case db.IsCheckViolation(err):
			return Product{}, fmt.Errorf("products: %v: %w", err, shared.ErrInvalidArgument)
		}
		return Product{}, fmt.Errorf("products: save: %w", err)
	}
	return saved, nil
}

func (r *PGRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("products: exists: %w", err)
	}
	return exists, nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("products: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("products: count by category: %w", err)
	}
	return n, nil
}

func (r *PGRepository) CountByBrand(ctx context.Context, brandID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE brand_id = $1`, brandID).Scan(&n); err != nil {
		return 0, fmt.Errorf("products: count by brand: %w", err)
	}
	return n, nil
}

// ListLowStock returns products at or under their minimum stock, emptiest first.
func (r *PGRepository) ListLowStock(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE stock <= min_stock
		ORDER BY stock ASC, name ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("products: low stock: %w", err)
	}
	return collectProducts(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(substr string) string {
	return "%" + likeEscaper.Replace(substr) + "%"
}
