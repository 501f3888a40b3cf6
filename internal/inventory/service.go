package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/odyssey-erp/inventario/internal/observability"
	"github.com/odyssey-erp/inventario/internal/products"
	"github.com/odyssey-erp/inventario/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetSale(ctx context.Context, id int64) (Sale, error)
	ListSales(ctx context.Context, filter SalesFilter) ([]Sale, error)
	Summarize(ctx context.Context, from, to time.Time) (Summary, error)
}

// IdempotencyPort claims and releases request keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Release(ctx context.Context, key string) error
}

const idempotencyModule = "inventory.sell"

// Service is the inventory ledger: the only place that moves stock because
// of a sale.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	cache       *SummaryCache
	metrics     *observability.LedgerMetrics
	logger      *slog.Logger
	group       singleflight.Group
}

// ServiceConfig groups optional collaborators. Every field may be nil.
type ServiceConfig struct {
	Idempotency IdempotencyPort
	Cache       *SummaryCache
	Metrics     *observability.LedgerMetrics
	Logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		idempotency: cfg.Idempotency,
		cache:       cfg.Cache,
		metrics:     cfg.Metrics,
		logger:      logger,
	}
}

// Sell debits stock and records the sale atomically. The sale snapshots the
// product's name, price and cost as they were under the row lock.
func (s *Service) Sell(ctx context.Context, in SellInput) (SellResult, error) {
	if in.ProductID <= 0 {
		s.metrics.SaleRejected(observability.ReasonInvalid)
		return SellResult{}, fmt.Errorf("inventory: invalid product id: %w", shared.ErrInvalidArgument)
	}
	if in.Quantity <= 0 {
		s.metrics.SaleRejected(observability.ReasonInvalid)
		return SellResult{}, fmt.Errorf("inventory: quantity must be positive, got %d: %w", in.Quantity, shared.ErrInvalidArgument)
	}

	key := ""
	if in.IdempotencyKey != "" && s.idempotency != nil {
		key = "sell:" + in.IdempotencyKey
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			s.metrics.SaleRejected(rejectionReason(err))
			return SellResult{}, err
		}
	}

	var result SellResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if p.Stock < in.Quantity {
			return fmt.Errorf("product %d has %d units, %d requested: %w", p.ID, p.Stock, in.Quantity, shared.ErrInsufficientStock)
		}
		productID := p.ID
		sale, err := tx.InsertSale(ctx, Sale{
			ProductName: p.Name,
			ProductID:   &productID,
			Quantity:    in.Quantity,
			UnitPrice:   p.Price,
			TotalAmount: p.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
			UnitCost:    p.CostPrice,
		})
		if err != nil {
			return err
		}
		p.Stock -= in.Quantity
		p, err = tx.SaveProduct(ctx, p)
		if err != nil {
			return err
		}
		result = SellResult{Product: p, Sale: sale}
		return nil
	})
	if err != nil {
		if key != "" {
			if relErr := s.idempotency.Release(context.WithoutCancel(ctx), key); relErr != nil {
				s.logger.Warn("release idempotency key failed", slog.Any("error", relErr), slog.String("key", key))
			}
		}
		s.metrics.SaleRejected(rejectionReason(err))
		return SellResult{}, err
	}

	s.metrics.SaleRecorded(in.Quantity)
	s.invalidate(ctx)
	s.logger.Info("sale recorded",
		slog.Int64("sale_id", result.Sale.ID),
		slog.Int64("product_id", result.Product.ID),
		slog.Int("quantity", in.Quantity),
		slog.Int("stock", result.Product.Stock))
	return result, nil
}

// DeleteSale removes a sale and gives its units back to the product. A sale
// that still references its product restores to that product. A legacy sale
// without a reference restores to the product whose name equals the
// snapshot ignoring case; when none matches the sale is deleted without
// restoring anything.
func (s *Service) DeleteSale(ctx context.Context, saleID int64) (DeleteSaleResult, error) {
	if saleID <= 0 {
		return DeleteSaleResult{}, fmt.Errorf("inventory: invalid sale id: %w", shared.ErrInvalidArgument)
	}

	var result DeleteSaleResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		result = DeleteSaleResult{Sale: sale, Path: RestoreNone}

		target, path, err := s.restoreTarget(ctx, tx, sale)
		if err != nil {
			return err
		}
		if target != nil {
			target.Stock += sale.Quantity
			saved, err := tx.SaveProduct(ctx, *target)
			if err != nil {
				return err
			}
			result.Restored = true
			result.Path = path
			result.Product = &saved
		}
		return tx.DeleteSale(ctx, saleID)
	})
	if err != nil {
		return DeleteSaleResult{}, err
	}

	s.metrics.SaleDeleted(result.Path)
	s.invalidate(ctx)
	attrs := []any{slog.Int64("sale_id", saleID), slog.String("restore", result.Path)}
	if result.Product != nil {
		attrs = append(attrs, slog.Int64("product_id", result.Product.ID), slog.Int("stock", result.Product.Stock))
	}
	s.logger.Info("sale deleted", attrs...)
	return result, nil
}

// restoreTarget locks the product that should receive the sale's units.
func (s *Service) restoreTarget(ctx context.Context, tx TxRepository, sale Sale) (*products.Product, string, error) {
	if sale.ProductID != nil {
		p, err := tx.GetProductForUpdate(ctx, *sale.ProductID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, RestoreNone, nil
		}
		if err != nil {
			return nil, "", err
		}
		return &p, RestoreDirect, nil
	}
	if sale.ProductName == "" {
		return nil, RestoreNone, nil
	}
	candidates, err := tx.FindProductsByName(ctx, sale.ProductName)
	if err != nil {
		return nil, "", err
	}
	fold := cases.Fold()
	want := fold.String(sale.ProductName)
	for _, c := range candidates {
		if fold.String(c.Name) != want {
			continue
		}
		p, err := tx.GetProductForUpdate(ctx, c.ID)
		if err != nil {
			return nil, "", err
		}
		return &p, RestoreByName, nil
	}
	return nil, RestoreNone, nil
}

// ComputeMargin returns the product's margin percentage.
func (s *Service) ComputeMargin(p products.Product) decimal.Decimal {
	return products.Margin(p.Price, p.CostPrice)
}

func (s *Service) GetSale(ctx context.Context, id int64) (Sale, error) {
	if id <= 0 {
		return Sale{}, fmt.Errorf("inventory: invalid sale id: %w", shared.ErrInvalidArgument)
	}
	return s.repo.GetSale(ctx, id)
}

func (s *Service) ListSales(ctx context.Context, filter SalesFilter) ([]Sale, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return nil, fmt.Errorf("inventory: from must be before to: %w", shared.ErrInvalidArgument)
	}
	return s.repo.ListSales(ctx, filter)
}

// Summary aggregates sales in [from, to). Results are cached until the next
// ledger change and concurrent identical requests share one query.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (Summary, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return Summary{}, fmt.Errorf("inventory: from must be before to: %w", shared.ErrInvalidArgument)
	}
	key, err := s.cache.BuildKey(ctx, boundToken(from), boundToken(to))
	if err != nil {
		s.logger.Warn("summary cache unavailable", slog.Any("error", err))
		return s.repo.Summarize(ctx, from, to)
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.cache.Fetch(ctx, key, func(ctx context.Context) (Summary, error) {
			return s.repo.Summarize(ctx, from, to)
		})
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump summary cache failed", slog.Any("error", err))
	}
}

func boundToken(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.UTC().Format(time.RFC3339)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrInvalidArgument):
		return observability.ReasonInvalid
	case errors.Is(err, shared.ErrNotFound):
		return observability.ReasonNotFound
	case errors.Is(err, shared.ErrInsufficientStock):
		return observability.ReasonInsufficientStock
	case errors.Is(err, shared.ErrIdempotencyConflict):
		return observability.ReasonDuplicate
	default:
		return observability.ReasonError
	}
}
