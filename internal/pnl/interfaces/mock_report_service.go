package interfaces

import (
	"context"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

type MockReportService struct {
	report *domain.YearlyReport
	err    error
}

func (m *MockReportService) YearlyReport(_ context.Context, year int, direction domain.Direction, withBreakdown bool) (*domain.YearlyReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

type MockDuplicateService struct {
	groups []domain.DuplicateGroup
	err    error
}

func (m *MockDuplicateService) FindDuplicates(_ context.Context, year, month int, direction domain.Direction) ([]domain.DuplicateGroup, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.groups, nil
}
