package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plcore/PnLReporter/internal/pnl/domain"
	pnlErrors "github.com/plcore/PnLReporter/internal/pnl/errors"
)

func TestGetCategories_ReturnsAll(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	w := httptest.NewRecorder()

	mockService := &MockCategoryService{
		categories: []domain.Category{
			{ID: 1, Name: "Licensing", Policy: domain.PolicyManual},
			{ID: 2, Name: "Office", Policy: domain.PolicyAuto},
		},
	}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)
	handler.GetCategories(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response struct {
		Categories []domain.Category `json:"categories"`
	}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(response.Categories))
}

func TestCreateCategory_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader("{not json"))
	w := httptest.NewRecorder()

	handler := NewCategoryHandler(&MockCategoryService{}, respondJSON, respondError)
	handler.CreateCategory(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateCategory_ValidationErrorMapsTo400(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(`{"name":""}`))
	w := httptest.NewRecorder()

	mockService := &MockCategoryService{err: pnlErrors.NewValidationError("category name is required")}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)
	handler.CreateCategory(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var response map[string]interface{}
	err := json.NewDecoder(res.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, "category name is required", response["message"])
}

func TestDeleteCategory_ReferentialIntegrityMapsTo409(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/categories/1", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()

	mockService := &MockCategoryService{err: pnlErrors.NewReferentialIntegrityError("category is still referenced")}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)
	handler.DeleteCategory(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestMoveCategory_RejectsUnknownDirection(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/categories/1/move", strings.NewReader(`{"direction":"sideways"}`))
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()

	mockService := &MockCategoryService{}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)
	handler.MoveCategory(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Empty(t, mockService.moved)
}

func TestMoveCategory_DelegatesToService(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/categories/3/move", strings.NewReader(`{"direction":"up"}`))
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()

	mockService := &MockCategoryService{}
	handler := NewCategoryHandler(mockService, respondJSON, respondError)
	handler.MoveCategory(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []int{3}, mockService.moved)
}

func TestGetCategory_NotFoundMapsTo404(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/categories/42", nil)
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()

	handler := NewCategoryHandler(&MockCategoryService{}, respondJSON, respondError)
	handler.GetCategory(w, req)

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
