package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/inventario/internal/platform/db"
	"github.com/odyssey-erp/inventario/internal/products"
	"github.com/odyssey-erp/inventario/internal/shared"
)

// Pool is the subset of *pgxpool.Pool the repository needs.
type Pool interface {
	db.DBTX
	db.Beginner
}

// Repository persists sales in PostgreSQL and runs ledger transactions.
type Repository struct {
	pool Pool
}

// NewRepository constructs Repository.
func NewRepository(pool Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations a ledger transaction may perform.
// Reads of products through it lock the row until commit.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, id int64) (products.Product, error)
	FindProductsByName(ctx context.Context, substr string) ([]products.Product, error)
	SaveProduct(ctx context.Context, p products.Product) (products.Product, error)
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	GetSaleForUpdate(ctx context.Context, id int64) (Sale, error)
	DeleteSale(ctx context.Context, id int64) error
}

type txRepo struct {
	tx       pgx.Tx
	products *products.PGRepository
}

// WithTx executes the callback inside a read-committed transaction. Product
// and sale rows are locked FOR UPDATE, so concurrent ledger operations on the
// same product run one after the other.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxLevel(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, products: products.NewRepository(tx)})
	})
}

const saleColumns = `id, created_at, product_name, product_id, quantity, unit_price, total_amount, unit_cost`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.CreatedAt, &s.ProductName, &s.ProductID, &s.Quantity, &s.UnitPrice, &s.TotalAmount, &s.UnitCost)
	return s, err
}

func getSale(ctx context.Context, q db.DBTX, query string, id int64) (Sale, error) {
	s, err := scanSale(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, fmt.Errorf("sale %d: %w", id, shared.ErrNotFound)
		}
		return Sale{}, fmt.Errorf("inventory: get sale: %w", err)
	}
	return s, nil
}

// GetSale loads a sale outside any transaction.
func (r *Repository) GetSale(ctx context.Context, id int64) (Sale, error) {
	return getSale(ctx, r.pool, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// ListSales returns sales newest first.
func (r *Repository) ListSales(ctx context.Context, filter SalesFilter) ([]Sale, error) {
	where, args := salesWhere(filter)
	query := `SELECT ` + saleColumns + ` FROM sales` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, max(filter.Offset, 0))
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("inventory: list sales: %w", err)
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Summarize aggregates sales created in [from, to).
func (r *Repository) Summarize(ctx context.Context, from, to time.Time) (Summary, error) {
	where, args := salesWhere(SalesFilter{From: from, To: to})
	sum := Summary{From: from, To: to}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(total_amount), 0),
		       COALESCE(SUM(unit_cost * quantity), 0),
		       COALESCE(SUM(total_amount - unit_cost * quantity), 0)
		FROM sales`+where, args...).
		Scan(&sum.SalesCount, &sum.Units, &sum.Revenue, &sum.Cost, &sum.Profit)
	if err != nil {
		return Summary{}, fmt.Errorf("inventory: summarize sales: %w", err)
	}
	return sum, nil
}

func salesWhere(filter SalesFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		clauses = append(clauses, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func (r *txRepo) GetProductForUpdate(ctx context.Context, id int64) (products.Product, error) {
	return r.products.GetForUpdate(ctx, id)
}

func (r *txRepo) FindProductsByName(ctx context.Context, substr string) ([]products.Product, error) {
	return r.products.FindByNameContains(ctx, substr)
}

func (r *txRepo) SaveProduct(ctx context.Context, p products.Product) (products.Product, error) {
	return r.products.Save(ctx, p)
}

func (r *txRepo) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	saved, err := scanSale(r.tx.QueryRow(ctx, `
		INSERT INTO sales (product_name, product_id, quantity, unit_price, total_amount, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+saleColumns,
		sale.ProductName, sale.ProductID, sale.Quantity, sale.UnitPrice, sale.TotalAmount, sale.UnitCost))
	if err != nil {
		return Sale{}, fmt.Errorf("inventory: insert sale: %w", err)
	}
	return saved, nil
}

func (r *txRepo) GetSaleForUpdate(ctx context.Context, id int64) (Sale, error) {
	return getSale(ctx, r.tx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
}

func (r *txRepo) DeleteSale(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("inventory: delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
