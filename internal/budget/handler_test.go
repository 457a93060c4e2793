package budgets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func testRespondError(w http.ResponseWriter, status int, message string) {
	testRespondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

type mockBudgetService struct {
	budget *Budget
	err    error
}

func (s *mockBudgetService) CreateBudget(_ context.Context, userID string, allocatedAmount float64, category, color string) (*Budget, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Budget{ID: uuid.New(), UserID: userID, AllocatedAmount: allocatedAmount, Category: category, Color: color}, nil
}

func (s *mockBudgetService) GetBudget(_ context.Context, _ string, _ uuid.UUID) (*Budget, error) {
	return s.budget, s.err
}

func (s *mockBudgetService) GetAllBudgets(_ context.Context, _ string) ([]Budget, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.budget == nil {
		return []Budget{}, nil
	}
	return []Budget{*s.budget}, nil
}

func (s *mockBudgetService) UpdateBudget(_ context.Context, _ string, _ uuid.UUID, _ *float64, _, _ *string) (*Budget, error) {
	return s.budget, s.err
}

func (s *mockBudgetService) DeleteBudget(_ context.Context, _ string, _ uuid.UUID) error {
	return s.err
}

func (s *mockBudgetService) GetBudgetOwner(_ context.Context, _ uuid.UUID) (string, error) {
	if s.budget == nil {
		return "", ErrBudgetNotFound
	}
	return s.budget.UserID, nil
}

func (s *mockBudgetService) GetBudgetByCategory(_ context.Context, _, _ string) (*Budget, error) {
	return s.budget, s.err
}

func (s *mockBudgetService) GetBudgetIDsByCategory(_ context.Context, _, _ string) ([]uuid.UUID, error) {
	return nil, s.err
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), "userID", "user-1"))
}

func TestCreateBudget_Success(t *testing.T) {
	handler := NewHandler(&mockBudgetService{}, testRespondJSON, testRespondError)

	req := authedRequest(http.MethodPost, "/api/protected/budgets", `{"allocated_amount":1000,"category":"Food"}`)
	w := httptest.NewRecorder()
	handler.CreateBudget(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusCreated, res.StatusCode)

	var response struct {
		Status string `json:"status"`
		Data   Budget `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "success", response.Status)
	assert.Equal(t, "Food", response.Data.Category)
}

func TestCreateBudget_MissingCategory(t *testing.T) {
	handler := NewHandler(&mockBudgetService{err: ErrMissingCategory}, testRespondJSON, testRespondError)

	req := authedRequest(http.MethodPost, "/api/protected/budgets", `{"allocated_amount":1000}`)
	w := httptest.NewRecorder()
	handler.CreateBudget(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestCreateBudget_NoUserInContext(t *testing.T) {
	handler := NewHandler(&mockBudgetService{}, testRespondJSON, testRespondError)

	req := httptest.NewRequest(http.MethodPost, "/api/protected/budgets", strings.NewReader(`{"allocated_amount":1000,"category":"Food"}`))
	w := httptest.NewRecorder()
	handler.CreateBudget(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestGetBudget_NotFound(t *testing.T) {
	handler := NewHandler(&mockBudgetService{err: ErrBudgetNotFound}, testRespondJSON, testRespondError)

	req := authedRequest(http.MethodGet, "/api/protected/budgets/"+uuid.NewString(), "")
	req.SetPathValue("budgetID", uuid.NewString())
	w := httptest.NewRecorder()
	handler.GetBudget(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "Budget not found", response["message"])
}

func TestGetBudget_InvalidID(t *testing.T) {
	handler := NewHandler(&mockBudgetService{}, testRespondJSON, testRespondError)

	req := authedRequest(http.MethodGet, "/api/protected/budgets/not-a-uuid", "")
	req.SetPathValue("budgetID", "not-a-uuid")
	w := httptest.NewRecorder()
	handler.GetBudget(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestGetAllBudgets_EmptyListIsSuccess(t *testing.T) {
	handler := NewHandler(&mockBudgetService{}, testRespondJSON, testRespondError)

	req := authedRequest(http.MethodGet, "/api/protected/budgets", "")
	w := httptest.NewRecorder()
	handler.GetAllBudgets(w, req)

	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var response struct {
		Status string   `json:"status"`
		Data   []Budget `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))
	assert.Equal(t, "success", response.Status)
	assert.Empty(t, response.Data)
}
