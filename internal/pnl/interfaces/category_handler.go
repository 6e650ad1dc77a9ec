package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/plcore/PnLReporter/internal/pnl/application"
	"github.com/plcore/PnLReporter/internal/pnl/domain"
)

type CategoryServiceInterface interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategory(ctx context.Context, id int) (*domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	UpdateCategory(ctx context.Context, id int, update application.CategoryUpdate) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int) error
	MoveCategory(ctx context.Context, id int, up bool) error
}

type CategoryHandler struct {
	service      CategoryServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewCategoryHandler(
	service CategoryServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *CategoryHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &CategoryHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "success",
		"message":    "Categories retrieved successfully.",
		"categories": categories,
	})
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := h.service.GetCategory(r.Context(), id)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category retrieved successfully.",
		"data":    category,
	})
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		Policy       string `json:"policy"`
		DisplayOrder *int   `json:"display_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category := domain.Category{
		Name:         req.Name,
		Description:  req.Description,
		Policy:       domain.CategoryPolicy(req.Policy),
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.service.CreateCategory(r.Context(), &category); err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully created.",
		"data":    category,
	})
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Policy      *string `json:"policy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	update := application.CategoryUpdate{Name: req.Name, Description: req.Description}
	if req.Policy != nil {
		policy := domain.CategoryPolicy(*req.Policy)
		update.Policy = &policy
	}

	category, err := h.service.UpdateCategory(r.Context(), id, update)
	if err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully updated.",
		"data":    category,
	})
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully deleted.",
	})
}

func (h *CategoryHandler) MoveCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Direction != "up" && req.Direction != "down" {
		h.respondError(w, http.StatusBadRequest, "Direction must be 'up' or 'down'")
		return
	}

	if err := h.service.MoveCategory(r.Context(), id, req.Direction == "up"); err != nil {
		status, message := statusForError(err)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Category successfully moved.",
	})
}
