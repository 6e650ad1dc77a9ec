package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

type MockCategoryLister struct {
	Categories []domain.Category
	Err        error
}

func (m *MockCategoryLister) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	categories := append([]domain.Category{}, m.Categories...)
	domain.SortCategories(categories)
	return categories, nil
}

type MockLedgerReader struct {
	Data map[int]map[int][]domain.ManualEntry
	Err  error
}

func (m *MockLedgerReader) ListByCategoriesAndPeriod(ctx context.Context, categoryIDs []int, year int, direction domain.Direction) (map[int]map[int][]domain.ManualEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	result := make(map[int]map[int][]domain.ManualEntry)
	for _, id := range categoryIDs {
		if months, ok := m.Data[id]; ok {
			result[id] = months
		}
	}
	return result, nil
}

type MockTransactionRepository struct {
	Transactions []domain.Transaction
	RefundedIDs  []string
	Err          error
	Calls        int
}

func (m *MockTransactionRepository) FindByDirectionAndRange(ctx context.Context, direction domain.Direction, from, to time.Time) ([]domain.Transaction, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var filtered []domain.Transaction
	for _, transaction := range m.Transactions {
		if transaction.Direction != direction {
			continue
		}
		if transaction.OccurredAt.Before(from) || !transaction.OccurredAt.Before(to) {
			continue
		}
		filtered = append(filtered, transaction)
	}
	return filtered, nil
}

func (m *MockTransactionRepository) FindRefundedIDs(ctx context.Context, from, to time.Time, reasons []domain.RefundReason) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.RefundedIDs, nil
}

func (m *MockTransactionRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, transaction := range m.Transactions {
		if transaction.CategoryID != nil && *transaction.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

type MockRateProvider struct {
	Rates map[string]decimal.Decimal
	Err   error
	Calls int
}

func (m *MockRateProvider) GetRate(ctx context.Context, from, to string, asOf time.Time) (decimal.Decimal, error) {
	m.Calls++
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	rate, ok := m.Rates[from+"/"+to]
	if !ok {
		return decimal.Zero, errors.New("rate not found")
	}
	return rate, nil
}

// MockManualEntryRepository keeps entries in memory and honors the revenue
// period-key uniqueness the real store enforces with its partial index.
type MockManualEntryRepository struct {
	Entries map[string]domain.ManualEntry
	Err     error
}

func NewMockManualEntryRepository() *MockManualEntryRepository {
	return &MockManualEntryRepository{Entries: make(map[string]domain.ManualEntry)}
}

func (m *MockManualEntryRepository) UpsertByPeriod(ctx context.Context, entry domain.ManualEntry) (*domain.ManualEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for id, existing := range m.Entries {
		if existing.Direction == domain.DirectionRevenue &&
			existing.CategoryID == entry.CategoryID &&
			existing.Year == entry.Year && existing.Month == entry.Month {
			existing.Amount = entry.Amount
			existing.Breakdown = entry.Breakdown
			existing.Note = entry.Note
			existing.UpdatedAt = time.Now().UTC()
			m.Entries[id] = existing
			return &existing, nil
		}
	}
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	m.Entries[entry.ID] = entry
	return &entry, nil
}

func (m *MockManualEntryRepository) Insert(ctx context.Context, entry domain.ManualEntry) error {
	if m.Err != nil {
		return m.Err
	}
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	m.Entries[entry.ID] = entry
	return nil
}

func (m *MockManualEntryRepository) FindByID(ctx context.Context, id string) (*domain.ManualEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	entry, ok := m.Entries[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *MockManualEntryRepository) FindByCategoryAndYear(ctx context.Context, categoryID, year int, direction domain.Direction) ([]domain.ManualEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var entries []domain.ManualEntry
	for _, entry := range m.Entries {
		if entry.CategoryID == categoryID && entry.Year == year && entry.Direction == direction {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *MockManualEntryRepository) FindByCategoriesAndYear(ctx context.Context, categoryIDs []int, year int, direction domain.Direction) (map[int][]domain.ManualEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	wanted := make(map[int]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = true
	}
	result := make(map[int][]domain.ManualEntry)
	for _, entry := range m.Entries {
		if wanted[entry.CategoryID] && entry.Year == year && entry.Direction == direction {
			result[entry.CategoryID] = append(result[entry.CategoryID], entry)
		}
	}
	return result, nil
}

func (m *MockManualEntryRepository) UpdateByID(ctx context.Context, id string, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) error {
	if m.Err != nil {
		return m.Err
	}
	entry, ok := m.Entries[id]
	if !ok {
		return fmt.Errorf("entry %s not found", id)
	}
	entry.Amount = amount
	entry.Breakdown = breakdown
	entry.Note = note
	entry.UpdatedAt = time.Now().UTC()
	m.Entries[id] = entry
	return nil
}

func (m *MockManualEntryRepository) DeleteByID(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Entries, id)
	return nil
}

func (m *MockManualEntryRepository) DeleteByPeriod(ctx context.Context, categoryID, year, month int, direction domain.Direction) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	deleted := 0
	for id, entry := range m.Entries {
		if entry.CategoryID == categoryID && entry.Year == year && entry.Month == month && entry.Direction == direction {
			delete(m.Entries, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockManualEntryRepository) CountByCategory(ctx context.Context, categoryID int) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	count := 0
	for _, entry := range m.Entries {
		if entry.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// MockCategoryRepository keeps categories in memory for registry tests.
type MockCategoryRepository struct {
	Categories []domain.Category
	NoOrdering bool
	Err        error
	nextID     int
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]domain.Category{}, m.Categories...), nil
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id int) (*domain.Category, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, category := range m.Categories {
		if category.ID == id {
			category := category
			return &category, nil
		}
	}
	return nil, nil
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, name string, excludeID int) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	for _, category := range m.Categories {
		if category.Name == name && category.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *domain.Category) error {
	if m.Err != nil {
		return m.Err
	}
	m.nextID = len(m.Categories) + 1
	for _, existing := range m.Categories {
		if existing.ID >= m.nextID {
			m.nextID = existing.ID + 1
		}
	}
	category.ID = m.nextID
	m.Categories = append(m.Categories, *category)
	return nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category domain.Category) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Categories {
		if m.Categories[i].ID == category.ID {
			m.Categories[i] = category
			return nil
		}
	}
	return fmt.Errorf("category %d not found", category.ID)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id int) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Categories {
		if m.Categories[i].ID == id {
			m.Categories = append(m.Categories[:i], m.Categories[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("category %d not found", id)
}

func (m *MockCategoryRepository) SwapDisplayOrder(ctx context.Context, firstID, firstOrder, secondID, secondOrder int) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Categories {
		if m.Categories[i].ID == firstID {
			order := firstOrder
			m.Categories[i].DisplayOrder = &order
		}
		if m.Categories[i].ID == secondID {
			order := secondOrder
			m.Categories[i].DisplayOrder = &order
		}
	}
	return nil
}

func (m *MockCategoryRepository) HasDisplayOrder(ctx context.Context) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return !m.NoOrdering, nil
}
