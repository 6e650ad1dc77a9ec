package interfaces

import (
	"context"

	"github.com/plcore/PnLReporter/internal/pnl/application"
	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

type MockCategoryService struct {
	categories []domain.Category
	err        error
	moved      []int
	deleted    []int
}

func (m *MockCategoryService) ListCategories(_ context.Context) ([]domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func (m *MockCategoryService) GetCategory(_ context.Context, id int) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.categories {
		if m.categories[i].ID == id {
			return &m.categories[i], nil
		}
	}
	return nil, pnlErrors.NewNotFoundError(pnlErrors.ErrCategoryNotFound.Error())
}

func (m *MockCategoryService) CreateCategory(_ context.Context, category *domain.Category) error {
	if m.err != nil {
		return m.err
	}
	category.ID = len(m.categories) + 1
	m.categories = append(m.categories, *category)
	return nil
}

func (m *MockCategoryService) UpdateCategory(ctx context.Context, id int, update application.CategoryUpdate) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	category, err := m.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		category.Name = *update.Name
	}
	return category, nil
}

func (m *MockCategoryService) DeleteCategory(_ context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *MockCategoryService) MoveCategory(_ context.Context, id int, up bool) error {
	if m.err != nil {
		return m.err
	}
	m.moved = append(m.moved, id)
	return nil
}
