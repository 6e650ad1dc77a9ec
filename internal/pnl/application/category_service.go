package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

// ReferenceCounter is satisfied by every store that can hold references to a
// category; deletion is refused while any of them still counts one.
type ReferenceCounter interface {
	CountByCategory(ctx context.Context, categoryID int) (int, error)
}

type CategoryService struct {
	repo   domain.CategoryRepository
	refs   []ReferenceCounter
	logger *slog.Logger
}

func NewCategoryService(repo domain.CategoryRepository, logger *slog.Logger, refs ...ReferenceCounter) *CategoryService {
	return &CategoryService{repo: repo, refs: refs, logger: logger}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortCategories(categories)
	return categories, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id int) (*domain.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, pnlErrors.ErrCategoryNotFound
	}
	return category, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Policy == "" {
		category.Policy = domain.PolicyAuto
	}
	if err := category.Validate(); err != nil {
		return err
	}
	taken, err := s.repo.ExistsByName(ctx, category.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return pnlErrors.NewValidationError("Category name is already in use")
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	return s.repo.Save(ctx, category)
}

// CategoryUpdate carries the partial update; nil fields stay untouched.
type CategoryUpdate struct {
	Name        *string
	Description *string
	Policy      *domain.CategoryPolicy
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id int, update CategoryUpdate) (*domain.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		category.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	if update.Policy != nil {
		category.Policy = *update.Policy
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if update.Name != nil {
		taken, err := s.repo.ExistsByName(ctx, category.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, pnlErrors.NewValidationError("Category name is already in use")
		}
	}
	category.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses while any transaction or manual entry still
// references the category; counts are summed across all registered stores.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	total := 0
	for _, ref := range s.refs {
		count, err := ref.CountByCategory(ctx, id)
		if err != nil {
			return err
		}
		total += count
	}
	if total > 0 {
		return pnlErrors.NewReferentialIntegrityError(
			fmt.Sprintf("Category is still referenced by %d records and cannot be deleted", total))
	}
	s.logger.Info("deleting category", "category_id", id)
	return s.repo.Delete(ctx, id)
}

// MoveCategory swaps the target's display order with its immediate neighbor
// in sorted order. Positions are materialized from the sorted index first, so
// lists that predate explicit ordering still reorder deterministically.
func (s *CategoryService) MoveCategory(ctx context.Context, id int, up bool) error {
	supported, err := s.repo.HasDisplayOrder(ctx)
	if err != nil {
		return err
	}
	if !supported {
		return pnlErrors.NewValidationError("Reordering is not supported by the current schema")
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return err
	}
	index := -1
	for i := range categories {
		if categories[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return pnlErrors.ErrCategoryNotFound
	}
	neighbor := index + 1
	if up {
		neighbor = index - 1
	}
	if neighbor < 0 || neighbor >= len(categories) {
		return pnlErrors.NewValidationError("Category is already at the boundary")
	}

	targetOrder := effectiveOrder(categories, index)
	neighborOrder := effectiveOrder(categories, neighbor)
	return s.repo.SwapDisplayOrder(ctx, categories[index].ID, neighborOrder, categories[neighbor].ID, targetOrder)
}

func effectiveOrder(categories []domain.Category, index int) int {
	if categories[index].DisplayOrder != nil {
		return *categories[index].DisplayOrder
	}
	// 1-based position in the sorted list stands in for a missing order.
	return index + 1
}
