package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

type LedgerServiceInterface interface {
	UpsertRevenueEntry(ctx context.Context, categoryID, year, month int, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error)
	CreateExpenseEntry(ctx context.Context, categoryID, year, month int, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error)
	GetEntry(ctx context.Context, id string) (*domain.ManualEntry, error)
	ListEntries(ctx context.Context, categoryID, year int, direction domain.Direction) ([]domain.ManualEntry, error)
	UpdateEntry(ctx context.Context, id string, amount decimal.Decimal, breakdown map[string]decimal.Decimal, note string) (*domain.ManualEntry, error)
	DeleteEntry(ctx context.Context, id string) error
	DeleteByPeriod(ctx context.Context, categoryID, year, month int, direction domain.Direction) error
}

type LedgerHandler struct {
	service      LedgerServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewLedgerHandler(
	service LedgerServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *LedgerHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &LedgerHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type ledgerEntryRequest struct {
	CategoryID int                        `json:"category_id"`
	Year       int                        `json:"year"`
	Month      int                        `json:"month"`
	Amount     decimal.Decimal            `json:"amount"`
	Breakdown  map[string]decimal.Decimal `json:"breakdown"`
	Note       string                     `json:"note"`
}

// UpsertRevenue replaces the revenue figure for the entry's period; repeating
// the request leaves a single entry behind.
func (h *LedgerHandler) UpsertRevenue(w http.ResponseWriter, r *http.Request) {
	var req ledgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.service.UpsertRevenueEntry(r.Context(), req.CategoryID, req.Year, req.Month, req.Amount, req.Breakdown, req.Note)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Revenue entry successfully recorded.",
		"data":    entry,
	})
}

// CreateExpense always appends; expense entries for the same period accumulate.
func (h *LedgerHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req ledgerEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.service.CreateExpenseEntry(r.Context(), req.CategoryID, req.Year, req.Month, req.Amount, req.Breakdown, req.Note)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Expense entry successfully created.",
		"data":    entry,
	})
}

func (h *LedgerHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.GetEntry(r.Context(), r.PathValue("id"))
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Entry retrieved successfully.",
		"data":    entry,
	})
}

func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(r.URL.Query().Get("category_id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category_id")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	direction := domain.Direction(r.URL.Query().Get("direction"))
	if !direction.Valid() {
		h.respondError(w, http.StatusBadRequest, "Direction must be 'revenue' or 'expense'")
		return
	}

	entries, err := h.service.ListEntries(r.Context(), categoryID, year, direction)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}
	if entries == nil {
		entries = []domain.ManualEntry{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Entries retrieved successfully.",
		"data":    entries,
	})
}

func (h *LedgerHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount    decimal.Decimal            `json:"amount"`
		Breakdown map[string]decimal.Decimal `json:"breakdown"`
		Note      string                     `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.service.UpdateEntry(r.Context(), r.PathValue("id"), req.Amount, req.Breakdown, req.Note)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Entry successfully updated.",
		"data":    entry,
	})
}

func (h *LedgerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Entry successfully deleted.",
	})
}

func (h *LedgerHandler) DeleteByPeriod(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.Atoi(r.URL.Query().Get("category_id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category_id")
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid month")
		return
	}
	direction := domain.Direction(r.URL.Query().Get("direction"))
	if !direction.Valid() {
		h.respondError(w, http.StatusBadRequest, "Direction must be 'revenue' or 'expense'")
		return
	}

	if err := h.service.DeleteByPeriod(r.Context(), categoryID, year, month, direction); err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Entries successfully deleted.",
	})
}
