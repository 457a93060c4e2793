package budgets

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

type Handler struct {
	budgetService Service
	respondJSON   func(w http.ResponseWriter, status int, payload interface{})
	respondError  func(w http.ResponseWriter, status int, message string)
}

func NewHandler(
	budgetService Service,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *Handler {
	return &Handler{
		budgetService: budgetService,
		respondJSON:   respondJSON,
		respondError:  respondError,
	}
}

type createBudgetRequest struct {
	AllocatedAmount float64 `json:"allocated_amount"`
	Category        string  `json:"category"`
	Color           string  `json:"color"`
}

type updateBudgetRequest struct {
	AllocatedAmount *float64 `json:"allocated_amount"`
	Category        *string  `json:"category"`
	Color           *string  `json:"color"`
}

func (h *Handler) getUserIDReq(w http.ResponseWriter, r *http.Request) string {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return ""
	}
	return userID
}

func (h *Handler) getBudgetIDReq(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	budgetID, err := uuid.Parse(r.PathValue("budgetID"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid budget ID")
		return uuid.Nil, false
	}
	return budgetID, true
}

func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	var req createBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget, err := h.budgetService.CreateBudget(r.Context(), userID, req.AllocatedAmount, req.Category, req.Color)
	if err != nil {
		if errors.Is(err, ErrMissingCategory) || errors.Is(err, ErrInvalidAmount) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to create budget")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status": "success",
		"data":   budget,
	})
}

func (h *Handler) GetAllBudgets(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}

	budgetList, err := h.budgetService.GetAllBudgets(r.Context(), userID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve budgets")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   budgetList,
	})
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	budgetID, ok := h.getBudgetIDReq(w, r)
	if !ok {
		return
	}

	budget, err := h.budgetService.GetBudget(r.Context(), userID, budgetID)
	if err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			h.respondError(w, http.StatusNotFound, "Budget not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve budget")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   budget,
	})
}

func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	budgetID, ok := h.getBudgetIDReq(w, r)
	if !ok {
		return
	}

	var req updateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget, err := h.budgetService.UpdateBudget(r.Context(), userID, budgetID, req.AllocatedAmount, req.Category, req.Color)
	if err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			h.respondError(w, http.StatusNotFound, "Budget not found")
			return
		}
		if errors.Is(err, ErrMissingCategory) || errors.Is(err, ErrInvalidAmount) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to update budget")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   budget,
	})
}

func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := h.getUserIDReq(w, r)
	if userID == "" {
		return
	}
	budgetID, ok := h.getBudgetIDReq(w, r)
	if !ok {
		return
	}

	err := h.budgetService.DeleteBudget(r.Context(), userID, budgetID)
	if err != nil {
		if errors.Is(err, ErrBudgetNotFound) {
			h.respondError(w, http.StatusNotFound, "Budget not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Failed to delete budget")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Budget deleted",
	})
}
