package expenses

import (
	"context"
	"errors"
	"time"

	budgets "github.com/adilenc/BudgetManager/internal/budget"
	"github.com/adilenc/BudgetManager/internal/scope"
	"github.com/google/uuid"
)

var (
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrMissingFields     = errors.New("amount, description and date are required")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrBudgetNotFound    = errors.New("budget not found")
	ErrBudgetNotOwned    = errors.New("budget does not belong to the user")
	ErrInvalidDateFilter = errors.New("date filter must use the YYYY-MM-DD format")
)

// Push event names are part of the wire contract with the existing web
// client. Do not rename.
const (
	eventExpenseCreated = "dépense ajoutée"
	eventExpenseUpdated = "depensemsj"
	eventExpenseDeleted = "depensesup"
)

type expenseEvent struct {
	Event     string   `json:"event"`
	Expense   *Expense `json:"expense,omitempty"`
	ExpenseID string   `json:"expenseId,omitempty"`
}

type Notifier interface {
	Notify(userID string, event interface{})
}

// BudgetService is the slice of the budget service the expense service
// consumes: cross-reference ownership checks and category resolution.
type BudgetService interface {
	GetBudgetOwner(ctx context.Context, id uuid.UUID) (string, error)
	GetBudgetByCategory(ctx context.Context, userID, category string) (*budgets.Budget, error)
	GetBudgetIDsByCategory(ctx context.Context, userID, category string) ([]uuid.UUID, error)
}

type CreateExpenseInput struct {
	Amount      float64
	Description string
	Date        time.Time
	BudgetID    *uuid.UUID
	Location    *Location
}

type UpdateExpenseInput struct {
	Amount      *float64
	Description *string
	Date        *time.Time
	BudgetID    *uuid.UUID
	Location    *Location
}

type Service interface {
	CreateExpense(ctx context.Context, userID string, input CreateExpenseInput) (*Expense, error)
	GetExpense(ctx context.Context, userID string, id uuid.UUID) (*Expense, error)
	GetAllExpenses(ctx context.Context, userID string) ([]Expense, error)
	UpdateExpense(ctx context.Context, userID string, id uuid.UUID, input UpdateExpenseInput) (*Expense, error)
	DeleteExpense(ctx context.Context, userID string, id uuid.UUID) error
	FilterExpenses(ctx context.Context, userID, category, date string) ([]Expense, error)
	GetExpensesByBudgetCategory(ctx context.Context, userID, category string) ([]Expense, error)
}

type service struct {
	store         *scope.Store[Expense]
	repo          ExpenseRepository
	budgetService BudgetService
	notifier      Notifier
}

func NewExpenseService(repo ExpenseRepository, budgetService BudgetService, notifier Notifier) Service {
	return &service{
		store:         scope.NewStore[Expense](repo),
		repo:          repo,
		budgetService: budgetService,
		notifier:      notifier,
	}
}

// checkBudgetReference verifies that the referenced budget exists and
// belongs to userID. A missing budget is NotFound; a budget owned by someone
// else is the one place where the API answers Forbidden instead of masking.
func (s *service) checkBudgetReference(ctx context.Context, userID string, budgetID uuid.UUID) error {
	ownerID, err := s.budgetService.GetBudgetOwner(ctx, budgetID)
	if err != nil {
		if errors.Is(err, budgets.ErrBudgetNotFound) {
			return ErrBudgetNotFound
		}
		return err
	}
	if ownerID != userID {
		return ErrBudgetNotOwned
	}
	return nil
}

func (s *service) CreateExpense(ctx context.Context, userID string, input CreateExpenseInput) (*Expense, error) {
	if input.Description == "" || input.Date.IsZero() {
		return nil, ErrMissingFields
	}
	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if input.BudgetID != nil {
		if err := s.checkBudgetReference(ctx, userID, *input.BudgetID); err != nil {
			return nil, err
		}
	}

	expense := &Expense{
		ID:          uuid.New(),
		UserID:      userID,
		BudgetID:    input.BudgetID,
		Amount:      input.Amount,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.store.Create(ctx, expense); err != nil {
		return nil, err
	}

	s.notifier.Notify(userID, expenseEvent{Event: eventExpenseCreated, Expense: expense})
	return expense, nil
}

func (s *service) GetExpense(ctx context.Context, userID string, id uuid.UUID) (*Expense, error) {
	expense, err := s.store.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return expense, nil
}

func (s *service) GetAllExpenses(ctx context.Context, userID string) ([]Expense, error) {
	return s.store.List(ctx, userID)
}

func (s *service) UpdateExpense(ctx context.Context, userID string, id uuid.UUID, input UpdateExpenseInput) (*Expense, error) {
	if input.BudgetID != nil {
		if err := s.checkBudgetReference(ctx, userID, *input.BudgetID); err != nil {
			return nil, err
		}
	}

	expense, err := s.store.Update(ctx, userID, id, func(e *Expense) error {
		if input.Amount != nil {
			if *input.Amount <= 0 {
				return ErrInvalidAmount
			}
			e.Amount = *input.Amount
		}
		if input.Description != nil {
			if *input.Description == "" {
				return ErrMissingFields
			}
			e.Description = *input.Description
		}
		if input.Date != nil {
			e.Date = *input.Date
		}
		if input.BudgetID != nil {
			e.BudgetID = input.BudgetID
		}
		if input.Location != nil {
			e.Location = input.Location
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}

	s.notifier.Notify(userID, expenseEvent{Event: eventExpenseUpdated, Expense: expense})
	return expense, nil
}

func (s *service) DeleteExpense(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return ErrExpenseNotFound
		}
		return err
	}

	s.notifier.Notify(userID, expenseEvent{Event: eventExpenseDeleted, ExpenseID: id.String()})
	return nil
}

// FilterExpenses combines the category and date predicates with AND. A
// category matching none of the caller's budgets yields an empty list, not
// an error.
func (s *service) FilterExpenses(ctx context.Context, userID, category, date string) ([]Expense, error) {
	var filter Filter

	if category != "" {
		budgetIDs, err := s.budgetService.GetBudgetIDsByCategory(ctx, userID, category)
		if err != nil {
			return nil, err
		}
		if len(budgetIDs) == 0 {
			return []Expense{}, nil
		}
		filter.BudgetIDs = budgetIDs
	}

	if date != "" {
		from, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, ErrInvalidDateFilter
		}
		to := from.AddDate(0, 0, 1)
		filter.From = &from
		filter.To = &to
	}

	result, err := s.repo.FindFiltered(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []Expense{}
	}
	return result, nil
}

func (s *service) GetExpensesByBudgetCategory(ctx context.Context, userID, category string) ([]Expense, error) {
	budget, err := s.budgetService.GetBudgetByCategory(ctx, userID, category)
	if err != nil {
		if errors.Is(err, budgets.ErrBudgetNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}

	result, err := s.repo.FindByBudget(ctx, userID, budget.ID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []Expense{}
	}
	return result, nil
}
