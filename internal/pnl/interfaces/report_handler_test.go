package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

func TestGetYearlyReport_DefaultsToRevenue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports/2024", nil)
	req.SetPathValue("year", "2024")
	w := httptest.NewRecorder()

	mockReports := &MockReportService{report: &domain.YearlyReport{
		Year:      2024,
		Direction: domain.DirectionRevenue,
		Total:     decimal.RequireFromString("1234.56"),
	}}
	handler := NewReportHandler(mockReports, &MockDuplicateService{}, respondJSON, respondError)
	handler.GetYearlyReport(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response struct {
		Data struct {
			Year  int    `json:"year"`
			Total string `json:"total"`
		} `json:"data"`
	}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, 2024, response.Data.Year)
	assert.Equal(t, "1234.56", response.Data.Total)
}

func TestGetYearlyReport_InvalidYear(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports/notayear", nil)
	req.SetPathValue("year", "notayear")
	w := httptest.NewRecorder()

	handler := NewReportHandler(&MockReportService{}, &MockDuplicateService{}, respondJSON, respondError)
	handler.GetYearlyReport(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetYearlyReport_OutOfRangeMapsTo400(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports/2019", nil)
	req.SetPathValue("year", "2019")
	w := httptest.NewRecorder()

	mockReports := &MockReportService{err: pnlErrors.NewValidationError("year 2019 is outside the reportable range")}
	handler := NewReportHandler(mockReports, &MockDuplicateService{}, respondJSON, respondError)
	handler.GetYearlyReport(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetDuplicates_ReturnsGroups(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports/2024/6/duplicates", nil)
	req.SetPathValue("year", "2024")
	req.SetPathValue("month", "6")
	w := httptest.NewRecorder()

	mockDuplicates := &MockDuplicateService{groups: []domain.DuplicateGroup{
		{Key: "fp-1", Match: domain.MatchExact, Transactions: []domain.Transaction{{ID: "a"}, {ID: "b"}}},
	}}
	handler := NewReportHandler(&MockReportService{}, mockDuplicates, respondJSON, respondError)
	handler.GetDuplicates(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response struct {
		Data []domain.DuplicateGroup `json:"data"`
	}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(response.Data))
	assert.Equal(t, 2, len(response.Data[0].Transactions))
}

func TestGetDuplicates_UpstreamFailureMapsTo502(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/reports/2024/6/duplicates", nil)
	req.SetPathValue("year", "2024")
	req.SetPathValue("month", "6")
	w := httptest.NewRecorder()

	mockDuplicates := &MockDuplicateService{err: pnlErrors.NewUpstreamUnavailableError("bank feed unavailable", nil)}
	handler := NewReportHandler(&MockReportService{}, mockDuplicates, respondJSON, respondError)
	handler.GetDuplicates(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadGateway, res.StatusCode)
}
