package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/inventario/internal/platform/db"
	"github.com/odyssey-erp/inventario/internal/shared"
)

// Repository persists categories and brands.
type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	SaveCategory(ctx context.Context, c Category) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	GetOrCreateCategory(ctx context.Context, name string) (Category, error)
	CountBrandsByCategory(ctx context.Context, categoryID int64) (int64, error)

	ListBrands(ctx context.Context) ([]Brand, error)
	GetBrand(ctx context.Context, id int64) (Brand, error)
	SaveBrand(ctx context.Context, b Brand) (Brand, error)
	DeleteBrand(ctx context.Context, id int64) error
}

// Pool is the subset of *pgxpool.Pool the repository needs.
type Pool interface {
	db.DBTX
	db.Beginner
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PGRepository) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, fmt.Errorf("category %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Category{}, fmt.Errorf("catalog: get category: %w", err)
	}
	return c, nil
}

func (r *PGRepository) SaveCategory(ctx context.Context, c Category) (Category, error) {
	var row pgx.Row
	if c.ID == 0 {
		row = r.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at, updated_at`, c.Name)
	} else {
		row = r.pool.QueryRow(ctx, `UPDATE categories SET name = $2, updated_at = now() WHERE id = $1 RETURNING id, name, created_at, updated_at`, c.ID, c.Name)
	}
	var saved Category
	if err := row.Scan(&saved.ID, &saved.Name, &saved.CreatedAt, &saved.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Category{}, fmt.Errorf("category %d: %w", c.ID, shared.ErrNotFound)
		case db.IsUniqueViolation(err):
			return Category{}, fmt.Errorf("category %q already exists: %w", c.Name, shared.ErrConflict)
		}
		return Category{}, fmt.Errorf("catalog: save category: %w", err)
	}
	return saved, nil
}

// DeleteCategory removes the category. A product inserted after the
// service-level check still trips the RESTRICT foreign key and is reported
// as a conflict.
func (r *PGRepository) DeleteCategory(ctx context.Context, id int64) error {
	return r.delete(ctx, `DELETE FROM categories WHERE id = $1`, "category", id)
}

// CountBrandsByCategory reports how many brands are filed under the category.
func (r *PGRepository) CountBrandsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM brand_categories WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count brands by category: %w", err)
	}
	return n, nil
}

// GetOrCreateCategory returns the category called name, inserting it when
// missing. Concurrent callers all receive the same row.
func (r *PGRepository) GetOrCreateCategory(ctx context.Context, name string) (Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at, updated_at`, name).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Category{}, fmt.Errorf("catalog: get or create category %q: %w", name, err)
	}
	return c, nil
}

const brandSelect = `
	SELECT b.id, b.name, b.created_at, b.updated_at,
	       COALESCE(array_agg(bc.category_id ORDER BY bc.category_id) FILTER (WHERE bc.category_id IS NOT NULL), '{}')
	FROM brands b
	LEFT JOIN brand_categories bc ON bc.brand_id = b.id`

func scanBrand(row pgx.Row) (Brand, error) {
	var b Brand
	err := row.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt, &b.CategoryIDs)
	return b, err
}

func (r *PGRepository) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := r.pool.Query(ctx, brandSelect+` GROUP BY b.id ORDER BY b.name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list brands: %w", err)
	}
	defer rows.Close()
	var out []Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PGRepository) GetBrand(ctx context.Context, id int64) (Brand, error) {
	return getBrand(ctx, r.pool, id)
}

func getBrand(ctx context.Context, q db.DBTX, id int64) (Brand, error) {
	b, err := scanBrand(q.QueryRow(ctx, brandSelect+` WHERE b.id = $1 GROUP BY b.id`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Brand{}, fmt.Errorf("brand %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return Brand{}, fmt.Errorf("catalog: get brand: %w", err)
	}
	return b, nil
}

// SaveBrand writes the brand row and replaces its category links in one
// transaction.
func (r *PGRepository) SaveBrand(ctx context.Context, b Brand) (Brand, error) {
	var saved Brand
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		id := b.ID
		var err error
		if id == 0 {
			err = tx.QueryRow(ctx, `INSERT INTO brands (name) VALUES ($1) RETURNING id`, b.Name).Scan(&id)
		} else {
			err = tx.QueryRow(ctx, `UPDATE brands SET name = $2, updated_at = now() WHERE id = $1 RETURNING id`, id, b.Name).Scan(&id)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM brand_categories WHERE brand_id = $1`, id); err != nil {
			return err
		}
		ids := append([]int64(nil), b.CategoryIDs...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, categoryID := range ids {
			if _, err := tx.Exec(ctx, `INSERT INTO brand_categories (brand_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, categoryID); err != nil {
				return err
			}
		}
		saved, err = getBrand(ctx, tx, id)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return Brand{}, fmt.Errorf("brand %d: %w", b.ID, shared.ErrNotFound)
		case db.IsUniqueViolation(err):
			return Brand{}, fmt.Errorf("brand %q already exists: %w", b.Name, shared.ErrConflict)
		case db.IsForeignKeyViolation(err):
			return Brand{}, fmt.Errorf("brand %q: unknown category: %w", b.Name, shared.ErrInvalidArgument)
		}
		return Brand{}, fmt.Errorf("catalog: save brand: %w", err)
	}
	return saved, nil
}

func (r *PGRepository) DeleteBrand(ctx context.Context, id int64) error {
	return r.delete(ctx, `DELETE FROM brands WHERE id = $1`, "brand", id)
}

func (r *PGRepository) delete(ctx context.Context, query, kind string, id int64) error {
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("%s %d is still referenced: %w", kind, id, shared.ErrConflict)
		}
		return fmt.Errorf("catalog: delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, shared.ErrNotFound)
	}
	return nil
}
