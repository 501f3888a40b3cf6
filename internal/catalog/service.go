package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/inventario/internal/shared"
)

// ProductCounter reports how many products reference a category or brand.
type ProductCounter interface {
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)
	CountByBrand(ctx context.Context, brandID int64) (int64, error)
}

// Service guards categorization: nothing referenced by a product can be
// deleted and every brand belongs to at least one category.
type Service struct {
	repo     Repository
	products ProductCounter
}

// NewService builds Service.
func NewService(repo Repository, products ProductCounter) *Service {
	return &Service{repo: repo, products: products}
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, fmt.Errorf("catalog: invalid category id: %w", shared.ErrInvalidArgument)
	}
	return s.repo.GetCategory(ctx, id)
}

// SaveCategory creates the category when ID is zero and renames it otherwise.
func (s *Service) SaveCategory(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return Category{}, fmt.Errorf("catalog: category name is required: %w", shared.ErrInvalidArgument)
	}
	return s.repo.SaveCategory(ctx, c)
}

// DeleteCategory refuses while any product or brand is filed under the
// category, so no brand is left without one.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("catalog: delete category: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("category %q is used by %d products: %w", c.Name, n, shared.ErrConflict)
	}
	brands, err := s.repo.CountBrandsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if brands > 0 {
		return fmt.Errorf("category %q is linked to %d brands: %w", c.Name, brands, shared.ErrConflict)
	}
	return s.repo.DeleteCategory(ctx, id)
}

func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	return s.repo.ListBrands(ctx)
}

func (s *Service) GetBrand(ctx context.Context, id int64) (Brand, error) {
	if id <= 0 {
		return Brand{}, fmt.Errorf("catalog: invalid brand id: %w", shared.ErrInvalidArgument)
	}
	return s.repo.GetBrand(ctx, id)
}

// SaveBrand persists b. A brand without categories is filed under
// OthersCategoryName, which is created on first use.
func (s *Service) SaveBrand(ctx context.Context, b Brand) (Brand, error) {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return Brand{}, fmt.Errorf("catalog: brand name is required: %w", shared.ErrInvalidArgument)
	}
	b.CategoryIDs = uniqueIDs(b.CategoryIDs)
	if len(b.CategoryIDs) == 0 {
		others, err := s.repo.GetOrCreateCategory(ctx, OthersCategoryName)
		if err != nil {
			return Brand{}, err
		}
		b.CategoryIDs = []int64{others.ID}
	}
	return s.repo.SaveBrand(ctx, b)
}

// DeleteBrand refuses while any product carries the brand.
func (s *Service) DeleteBrand(ctx context.Context, id int64) error {
	b, err := s.GetBrand(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.products.CountByBrand(ctx, id)
	if err != nil {
		return fmt.Errorf("catalog: delete brand: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("brand %q is used by %d products: %w", b.Name, n, shared.ErrConflict)
	}
	return s.repo.DeleteBrand(ctx, id)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
