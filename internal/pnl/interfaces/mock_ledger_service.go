package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

type MockLedgerService struct {
	entries map[string]domain.ManualEntry
	err     error
	upserts int
	creates int
}

func NewMockLedgerService() *MockLedgerService {
	return &MockLedgerService{entries: make(map[string]domain.ManualEntry)}
}

func (m *MockLedgerService) record(id string, categoryID, year, month int, direction domain.Direction, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) *domain.ManualEntry {
	entry := domain.ManualEntry{
		ID:         id,
		CategoryID: categoryID,
		Direction:  direction,
		Year:       year,
		Month:      month,
		Amount:     amount,
		Breakdown:  breakdown,
		Note:       note,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	m.entries[id] = entry
	return &entry
}

func (m *MockLedgerService) UpsertRevenueEntry(_ context.Context, categoryID, year, month int, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.upserts++
	return m.record("revenue-entry", categoryID, year, month, domain.DirectionRevenue, amount, breakdown, note), nil
}

func (m *MockLedgerService) CreateExpenseEntry(_ context.Context, categoryID, year, month int, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.creates++
	return m.record("expense-entry", categoryID, year, month, domain.DirectionExpense, amount, breakdown, note), nil
}

func (m *MockLedgerService) GetEntry(_ context.Context, id string) (*domain.ManualEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	entry, ok := m.entries[id]
	if !ok {
		return nil, pnlErrors.NewNotFoundError(pnlErrors.ErrEntryNotFound.Error())
	}
	return &entry, nil
}

func (m *MockLedgerService) ListEntries(_ context.Context, categoryID, year int, direction domain.Direction) ([]domain.ManualEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var entries []domain.ManualEntry
	for _, entry := range m.entries {
		if entry.CategoryID == categoryID && entry.Year == year && entry.Direction == direction {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (m *MockLedgerService) UpdateEntry(ctx context.Context, id string, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	entry, err := m.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	entry.Amount = amount
	entry.Breakdown = breakdown
	entry.Note = note
	m.entries[id] = *entry
	return entry, nil
}

func (m *MockLedgerService) DeleteEntry(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.entries[id]; !ok {
		return pnlErrors.NewNotFoundError(pnlErrors.ErrEntryNotFound.Error())
	}
	delete(m.entries, id)
	return nil
}

func (m *MockLedgerService) DeleteByPeriod(_ context.Context, categoryID, year, month int, direction domain.Direction) error {
	if m.err != nil {
		return m.err
	}
	found := false
	for id, entry := range m.entries {
		if entry.CategoryID == categoryID && entry.Year == year && entry.Month == month && entry.Direction == direction {
			delete(m.entries, id)
			found = true
		}
	}
	if !found {
		return pnlErrors.NewNotFoundError(pnlErrors.ErrEntryNotFound.Error())
	}
	return nil
}
