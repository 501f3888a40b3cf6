package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/inventario/internal/shared"
)

// Service exposes product maintenance. Stock changes caused by sales go
// through the inventory ledger, never through here; Update only sets an
// absolute stock count.
type Service struct {
	repo Repository
}

// NewService builds Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("products: invalid id: %w", shared.ErrInvalidArgument)
	}
	return s.repo.Get(ctx, id)
}

// LowStock lists products whose stock is at or under the threshold.
func (s *Service) LowStock(ctx context.Context, limit int) ([]Product, error) {
	return s.repo.ListLowStock(ctx, limit)
}

func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	p, err := apply(Product{MinStock: DefaultMinStock}, in)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Save(ctx, p)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (Product, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	p, err := apply(current, in)
	if err != nil {
		return Product{}, err
	}
	return s.repo.Save(ctx, p)
}

// Delete removes the product. Historical sales keep their snapshots.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("products: invalid id: %w", shared.ErrInvalidArgument)
	}
	return s.repo.Delete(ctx, id)
}

func apply(p Product, in Input) (Product, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return Product{}, fmt.Errorf("products: name is required: %w", shared.ErrInvalidArgument)
	case in.Price.IsNegative():
		return Product{}, fmt.Errorf("products: price must be >= 0: %w", shared.ErrInvalidArgument)
	case in.CostPrice.Valid && in.CostPrice.Decimal.IsNegative():
		return Product{}, fmt.Errorf("products: cost price must be >= 0: %w", shared.ErrInvalidArgument)
	case in.Stock < 0:
		return Product{}, fmt.Errorf("products: stock must be >= 0: %w", shared.ErrInvalidArgument)
	case in.MinStock != nil && *in.MinStock < 0:
		return Product{}, fmt.Errorf("products: min stock must be >= 0: %w", shared.ErrInvalidArgument)
	}
	p.Name = name
	p.Price = in.Price
	p.CostPrice = in.CostPrice
	p.Stock = in.Stock
	if in.MinStock != nil {
		p.MinStock = *in.MinStock
	}
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
	return p, nil
}
