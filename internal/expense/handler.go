package expenses

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Handler struct {
	expenseService Service
	respondJSON    func(w http.ResponseWriter, status int, payload interface{})
	respondError   func(w http.ResponseWriter, status int, message string)
}

func NewHandler(
	expenseService Service,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *Handler {
	return &Handler{
		expenseService: expenseService,
		respondJSON:    respondJSON,
		respondError:   respondError,
	}
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type createExpenseRequest struct {
	Amount      float64          `json:"amount"`
	Description string           `json:"description"`
	Date        *time.Time       `json:"date"`
	BudgetID    *string          `json:"budget_id"`
	Location    *locationRequest `json:"location"`
}

type updateExpenseRequest struct {
	Amount      *float64         `json:"amount"`
	Description *string          `json:"description"`
	Date        *time.Time       `json:"date"`
	BudgetID    *string          `json:"budget_id"`
	Location    *locationRequest `json:"location"`
}

func (h *Handler) getUserIDReq(w http.ResponseWriter, r *http.Request) string {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return ""
	}
	return userID
}

func (h *Handler) getExpenseIDReq(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	expenseID, err := uuid.Parse(r.PathValue("expenseID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid expense ID")
		return uuid.Nil, false
	}
	return expenseID, true
}

func parseBudgetID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	budgetID, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &budgetID, nil
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrExpenseNotFound):
		h.respondError(w, http.StatusNotFound, "Expense not found")
	case errors.Is(err, ErrBudgetNotFound):
		h.respondError(w, http.StatusNotFound, "Budget not found")
	case errors.Is(err, ErrBudgetNotOwned):
		h.respondError(w, http.StatusForbidden, "Budget does not belong to the user")
	case errors.Is(err, ErrMissingFields), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidDateFilter):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budgetID, err := parseBudgetID(req.BudgetID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid budget ID")
		return
	}

	input := CreateExpenseInput{
		Amount:      req.Amount,
		Description: req.Description,
		BudgetID:    budgetID,
	}
	if req.Date != nil {
		input.Date = *req.Date
	} else {
		input.Date = time.Now()
	}
	if req.Location != nil {
		input.Location = &Location{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	expense, err := h.expenseService.CreateExpense(r.Context(), userID, input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"data":   expense,
	})
}

func (h *Handler) GetAllExpenses(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	expenseList, err := h.expenseService.GetAllExpenses(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve expenses")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   expenseList,
	})
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	expenseID, ok := h.getExpenseIDReq(w, r)
	if !ok {
		return
	}

	expense, err := h.expenseService.GetExpense(r.Context(), userID, expenseID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   expense,
	})
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	expenseID, ok := h.getExpenseIDReq(w, r)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budgetID, err := parseBudgetID(req.BudgetID)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid budget ID")
		return
	}

	input := UpdateExpenseInput{
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
		BudgetID:    budgetID,
	}
	if req.Location != nil {
		input.Location = &Location{Lat: req.Location.Lat, Lng: req.Location.Lng}
	}

	expense, err := h.expenseService.UpdateExpense(r.Context(), userID, expenseID, input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   expense,
	})
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	expenseID, ok := h.getExpenseIDReq(w, r)
	if !ok {
		return
	}

	if err := h.expenseService.DeleteExpense(r.Context(), userID, expenseID); err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Expense deleted",
	})
}

func (h *Handler) FilterExpenses(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	category := r.URL.Query().Get("category")
	date := r.URL.Query().Get("date")

	expenseList, err := h.expenseService.FilterExpenses(r.Context(), userID, category, date)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   expenseList,
	})
}

func (h *Handler) GetExpensesByBudget(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	category := r.PathValue("category")
	if category == "" {
		h.respondError(w, http.StatusBadRequest, "Budget category is required")
		return
	}

	expenseList, err := h.expenseService.GetExpensesByBudgetCategory(r.Context(), userID, category)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   expenseList,
	})
}
