package expenses

import (
	"context"
	"database/sql"
	"testing"
	"time"

	budgets "github.com/adilenc/BudgetManager/internal/budget"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExpenseRepo struct {
	expenses    map[uuid.UUID]*Expense
	filterCalls int
}

func newMockExpenseRepo() *mockExpenseRepo {
	return &mockExpenseRepo{expenses: make(map[uuid.UUID]*Expense)}
}

func (r *mockExpenseRepo) Insert(_ context.Context, expense *Expense) error {
	copied := *expense
	r.expenses[expense.ID] = &copied
	return nil
}

func (r *mockExpenseRepo) FindByID(_ context.Context, ownerID string, id uuid.UUID) (*Expense, error) {
	expense, ok := r.expenses[id]
	if !ok || expense.UserID != ownerID {
		return nil, sql.ErrNoRows
	}
	copied := *expense
	return &copied, nil
}

func (r *mockExpenseRepo) FindByOwner(_ context.Context, ownerID string) ([]Expense, error) {
	var result []Expense
	for _, expense := range r.expenses {
		if expense.UserID == ownerID {
			result = append(result, *expense)
		}
	}
	return result, nil
}

func (r *mockExpenseRepo) Update(_ context.Context, ownerID string, id uuid.UUID, expense *Expense) (int64, error) {
	existing, ok := r.expenses[id]
	if !ok || existing.UserID != ownerID {
		return 0, nil
	}
	copied := *expense
	copied.UserID = existing.UserID
	r.expenses[id] = &copied
	return 1, nil
}

func (r *mockExpenseRepo) Delete(_ context.Context, ownerID string, id uuid.UUID) (int64, error) {
	existing, ok := r.expenses[id]
	if !ok || existing.UserID != ownerID {
		return 0, nil
	}
	delete(r.expenses, id)
	return 1, nil
}

func (r *mockExpenseRepo) FindFiltered(_ context.Context, ownerID string, filter Filter) ([]Expense, error) {
	r.filterCalls++
	var result []Expense
	for _, expense := range r.expenses {
		if expense.UserID != ownerID {
			continue
		}
		if len(filter.BudgetIDs) > 0 {
			if expense.BudgetID == nil || !containsID(filter.BudgetIDs, *expense.BudgetID) {
				continue
			}
		}
		if filter.From != nil && expense.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !expense.Date.Before(*filter.To) {
			continue
		}
		result = append(result, *expense)
	}
	return result, nil
}

func (r *mockExpenseRepo) FindByBudget(_ context.Context, ownerID string, budgetID uuid.UUID) ([]Expense, error) {
	var result []Expense
	for _, expense := range r.expenses {
		if expense.UserID == ownerID && expense.BudgetID != nil && *expense.BudgetID == budgetID {
			result = append(result, *expense)
		}
	}
	return result, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

type mockBudgetService struct {
	owners        map[uuid.UUID]string
	byCategory    map[string]*budgets.Budget
	idsByCategory map[string][]uuid.UUID
}

func newMockBudgetService() *mockBudgetService {
	return &mockBudgetService{
		owners:        make(map[uuid.UUID]string),
		byCategory:    make(map[string]*budgets.Budget),
		idsByCategory: make(map[string][]uuid.UUID),
	}
}

func (s *mockBudgetService) GetBudgetOwner(_ context.Context, id uuid.UUID) (string, error) {
	ownerID, ok := s.owners[id]
	if !ok {
		return "", budgets.ErrBudgetNotFound
	}
	return ownerID, nil
}

func (s *mockBudgetService) GetBudgetByCategory(_ context.Context, userID, category string) (*budgets.Budget, error) {
	budget, ok := s.byCategory[userID+"/"+category]
	if !ok {
		return nil, budgets.ErrBudgetNotFound
	}
	return budget, nil
}

func (s *mockBudgetService) GetBudgetIDsByCategory(_ context.Context, userID, category string) ([]uuid.UUID, error) {
	return s.idsByCategory[userID+"/"+category], nil
}

type recordedEvent struct {
	userID string
	event  interface{}
}

type mockNotifier struct {
	events []recordedEvent
}

func (n *mockNotifier) Notify(userID string, event interface{}) {
	n.events = append(n.events, recordedEvent{userID: userID, event: event})
}

func validInput() CreateExpenseInput {
	return CreateExpenseInput{
		Amount:      20,
		Description: "Macdo",
		Date:        time.Now(),
	}
}

func TestCreateExpense_NotifiesOwner(t *testing.T) {
	repo := newMockExpenseRepo()
	notifier := &mockNotifier{}
	service := NewExpenseService(repo, newMockBudgetService(), notifier)

	expense, err := service.CreateExpense(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	assert.Equal(t, "user-1", expense.UserID)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "user-1", notifier.events[0].userID)
	event := notifier.events[0].event.(expenseEvent)
	assert.Equal(t, "dépense ajoutée", event.Event)
	assert.Equal(t, expense.ID, event.Expense.ID)
}

func TestCreateExpense_RequiresFields(t *testing.T) {
	service := NewExpenseService(newMockExpenseRepo(), newMockBudgetService(), &mockNotifier{})

	input := validInput()
	input.Description = ""
	_, err := service.CreateExpense(context.Background(), "user-1", input)
	assert.ErrorIs(t, err, ErrMissingFields)

	input = validInput()
	input.Amount = 0
	_, err = service.CreateExpense(context.Background(), "user-1", input)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateExpense_MissingBudgetReferenceIsNotFound(t *testing.T) {
	repo := newMockExpenseRepo()
	service := NewExpenseService(repo, newMockBudgetService(), &mockNotifier{})

	missing := uuid.New()
	input := validInput()
	input.BudgetID = &missing

	_, err := service.CreateExpense(context.Background(), "user-1", input)
	assert.ErrorIs(t, err, ErrBudgetNotFound)
	assert.Empty(t, repo.expenses)
}

func TestCreateExpense_ForeignBudgetReferenceIsForbidden(t *testing.T) {
	repo := newMockExpenseRepo()
	budgetService := newMockBudgetService()
	notifier := &mockNotifier{}
	service := NewExpenseService(repo, budgetService, notifier)

	foreignBudget := uuid.New()
	budgetService.owners[foreignBudget] = "user-2"

	input := validInput()
	input.BudgetID = &foreignBudget

	_, err := service.CreateExpense(context.Background(), "user-1", input)
	assert.ErrorIs(t, err, ErrBudgetNotOwned)
	assert.Empty(t, repo.expenses)
	assert.Empty(t, notifier.events)
}

func TestCreateExpense_OwnBudgetReferenceSucceeds(t *testing.T) {
	repo := newMockExpenseRepo()
	budgetService := newMockBudgetService()
	service := NewExpenseService(repo, budgetService, &mockNotifier{})

	ownBudget := uuid.New()
	budgetService.owners[ownBudget] = "user-1"

	input := validInput()
	input.BudgetID = &ownBudget

	expense, err := service.CreateExpense(context.Background(), "user-1", input)
	require.NoError(t, err)
	require.NotNil(t, expense.BudgetID)
	assert.Equal(t, ownBudget, *expense.BudgetID)
}

func TestGetExpense_OtherUsersExpenseIsNotFound(t *testing.T) {
	repo := newMockExpenseRepo()
	service := NewExpenseService(repo, newMockBudgetService(), &mockNotifier{})

	expense, err := service.CreateExpense(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	got, err := service.GetExpense(context.Background(), "user-2", expense.ID)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrExpenseNotFound)
}

func TestUpdateExpense_NotifiesWithUpdatedRecord(t *testing.T) {
	repo := newMockExpenseRepo()
	notifier := &mockNotifier{}
	service := NewExpenseService(repo, newMockBudgetService(), notifier)

	expense, err := service.CreateExpense(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	notifier.events = nil

	newAmount := 35.0
	updated, err := service.UpdateExpense(context.Background(), "user-1", expense.ID, UpdateExpenseInput{Amount: &newAmount})
	require.NoError(t, err)
	assert.Equal(t, 35.0, updated.Amount)
	assert.Equal(t, "Macdo", updated.Description)

	require.Len(t, notifier.events, 1)
	event := notifier.events[0].event.(expenseEvent)
	assert.Equal(t, "depensemsj", event.Event)
	assert.Equal(t, 35.0, event.Expense.Amount)
}

func TestDeleteExpense_NotifiesWithIDOnly(t *testing.T) {
	repo := newMockExpenseRepo()
	notifier := &mockNotifier{}
	service := NewExpenseService(repo, newMockBudgetService(), notifier)

	expense, err := service.CreateExpense(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	notifier.events = nil

	require.NoError(t, service.DeleteExpense(context.Background(), "user-1", expense.ID))

	require.Len(t, notifier.events, 1)
	event := notifier.events[0].event.(expenseEvent)
	assert.Equal(t, "depensesup", event.Event)
	assert.Nil(t, event.Expense)
	assert.Equal(t, expense.ID.String(), event.ExpenseID)
}

func TestFilterExpenses_UnmatchedCategoryIsEmptyNotError(t *testing.T) {
	repo := newMockExpenseRepo()
	service := NewExpenseService(repo, newMockBudgetService(), &mockNotifier{})

	result, err := service.FilterExpenses(context.Background(), "user-1", "Voyages", "")
	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
	// The lookup short-circuits before touching the expense table.
	assert.Equal(t, 0, repo.filterCalls)
}

func TestFilterExpenses_CategoryAndDateCompose(t *testing.T) {
	repo := newMockExpenseRepo()
	budgetService := newMockBudgetService()
	service := NewExpenseService(repo, budgetService, &mockNotifier{})

	budgetID := uuid.New()
	budgetService.owners[budgetID] = "user-1"
	budgetService.idsByCategory["user-1/Food"] = []uuid.UUID{budgetID}

	date := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	input := validInput()
	input.BudgetID = &budgetID
	input.Date = date
	_, err := service.CreateExpense(context.Background(), "user-1", input)
	require.NoError(t, err)

	otherDay := validInput()
	otherDay.BudgetID = &budgetID
	otherDay.Date = date.AddDate(0, 0, 3)
	_, err = service.CreateExpense(context.Background(), "user-1", otherDay)
	require.NoError(t, err)

	result, err := service.FilterExpenses(context.Background(), "user-1", "Food", "2024-03-10")
	require.NoError(t, err)
	assert.Len(t, result, 1)

	result, err = service.FilterExpenses(context.Background(), "user-1", "Food", "")
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestFilterExpenses_BadDateIsValidationError(t *testing.T) {
	service := NewExpenseService(newMockExpenseRepo(), newMockBudgetService(), &mockNotifier{})

	_, err := service.FilterExpenses(context.Background(), "user-1", "", "10/03/2024")
	assert.ErrorIs(t, err, ErrInvalidDateFilter)
}

func TestGetExpensesByBudgetCategory_UnknownCategoryIsNotFound(t *testing.T) {
	service := NewExpenseService(newMockExpenseRepo(), newMockBudgetService(), &mockNotifier{})

	_, err := service.GetExpensesByBudgetCategory(context.Background(), "user-1", "Voyages")
	assert.ErrorIs(t, err, ErrBudgetNotFound)
}
