package interfaces

import (
	"context"
	"net/http"
	"strconv"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

type ReportServiceInterface interface {
	YearlyReport(ctx context.Context, year int, direction domain.Direction, withBreakdown bool) (*domain.YearlyReport, error)
}

type DuplicateServiceInterface interface {
	FindDuplicates(ctx context.Context, year, month int, direction domain.Direction) ([]domain.DuplicateGroup, error)
}

type ReportHandler struct {
	reports      ReportServiceInterface
	duplicates   DuplicateServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewReportHandler(
	reports ReportServiceInterface,
	duplicates DuplicateServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *ReportHandler {
	if reports == nil || duplicates == nil || respondJSON == nil || respondError == nil {
		panic("Services and response functions must not be nil")
	}
	return &ReportHandler{
		reports:      reports,
		duplicates:   duplicates,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *ReportHandler) GetYearlyReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}

	direction := domain.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = domain.DirectionRevenue
	}
	if !direction.Valid() {
		h.respondError(w, http.StatusBadRequest, "Direction must be 'revenue' or 'expense'")
		return
	}
	withBreakdown := r.URL.Query().Get("breakdown") == "true"

	report, err := h.reports.YearlyReport(r.Context(), year, direction, withBreakdown)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Report generated successfully.",
		"data":    report,
	})
}

func (h *ReportHandler) GetDuplicates(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid month")
		return
	}

	direction := domain.Direction(r.URL.Query().Get("direction"))
	if direction == "" {
		direction = domain.DirectionRevenue
	}
	if !direction.Valid() {
		h.respondError(w, http.StatusBadRequest, "Direction must be 'revenue' or 'expense'")
		return
	}

	groups, err := h.duplicates.FindDuplicates(r.Context(), year, month, direction)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}
	if groups == nil {
		groups = []domain.DuplicateGroup{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Duplicate candidates retrieved successfully.",
		"data":    groups,
	})
}
