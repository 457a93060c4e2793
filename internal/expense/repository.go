package expenses

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Expense struct {
	ID          uuid.UUID  `json:"id"`
	UserID      string     `json:"-"`
	BudgetID    *uuid.UUID `json:"budget_id,omitempty"`
	Amount      float64    `json:"amount"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	Location    *Location  `json:"location,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Filter combines independent predicates with AND. Zero values disable a
// predicate.
type Filter struct {
	BudgetIDs []uuid.UUID
	From      *time.Time
	To        *time.Time
}

// ExpenseRepository satisfies scope.Repository[Expense]; every query carries
// the owner predicate.
type ExpenseRepository interface {
	Insert(ctx context.Context, expense *Expense) error
	FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*Expense, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Expense, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, expense *Expense) (int64, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) (int64, error)
	FindFiltered(ctx context.Context, ownerID string, filter Filter) ([]Expense, error)
	FindByBudget(ctx context.Context, ownerID string, budgetID uuid.UUID) ([]Expense, error)
}

type expenseRepository struct {
	db *sql.DB
}

func NewExpenseRepository(db *sql.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = `id, user_id, budget_id, amount, description, spent_at, location_lat, location_lng, created_at, updated_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (*Expense, error) {
	var expense Expense
	var budgetID uuid.NullUUID
	var lat, lng sql.NullFloat64
	err := row.Scan(&expense.ID, &expense.UserID, &budgetID, &expense.Amount, &expense.Description, &expense.Date, &lat, &lng, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if budgetID.Valid {
		expense.BudgetID = &budgetID.UUID
	}
	if lat.Valid && lng.Valid {
		expense.Location = &Location{Lat: lat.Float64, Lng: lng.Float64}
	}
	return &expense, nil
}

func (r *expenseRepository) Insert(ctx context.Context, expense *Expense) error {
	query := `INSERT INTO expenses (id, user_id, budget_id, amount, description, spent_at, location_lat, location_lng, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	var lat, lng interface{}
	if expense.Location != nil {
		lat, lng = expense.Location.Lat, expense.Location.Lng
	}
	_, err := r.db.ExecContext(ctx, query,
		expense.ID, expense.UserID, expense.BudgetID, expense.Amount, expense.Description, expense.Date, lat, lng, expense.CreatedAt, expense.UpdatedAt)
	return err
}

func (r *expenseRepository) FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE id = $1 AND user_id = $2`, expenseColumns)
	return scanExpense(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *expenseRepository) FindByOwner(ctx context.Context, ownerID string) ([]Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE user_id = $1 ORDER BY spent_at DESC`, expenseColumns)
	return r.queryExpenses(ctx, query, ownerID)
}

func (r *expenseRepository) Update(ctx context.Context, ownerID string, id uuid.UUID, expense *Expense) (int64, error) {
	query := `UPDATE expenses
              SET budget_id = $1, amount = $2, description = $3, spent_at = $4, location_lat = $5, location_lng = $6, updated_at = $7
              WHERE id = $8 AND user_id = $9`

	var lat, lng interface{}
	if expense.Location != nil {
		lat, lng = expense.Location.Lat, expense.Location.Lng
	}
	result, err := r.db.ExecContext(ctx, query,
		expense.BudgetID, expense.Amount, expense.Description, expense.Date, lat, lng, time.Now(), id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *expenseRepository) Delete(ctx context.Context, ownerID string, id uuid.UUID) (int64, error) {
	query := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *expenseRepository) FindFiltered(ctx context.Context, ownerID string, filter Filter) ([]Expense, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{ownerID}

	if len(filter.BudgetIDs) > 0 {
		placeholders := make([]string, len(filter.BudgetIDs))
		for i, budgetID := range filter.BudgetIDs {
			args = append(args, budgetID)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("budget_id IN (%s)", strings.Join(placeholders, ", ")))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("spent_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("spent_at < $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE %s ORDER BY spent_at DESC`,
		expenseColumns, strings.Join(conditions, " AND "))
	return r.queryExpenses(ctx, query, args...)
}

func (r *expenseRepository) FindByBudget(ctx context.Context, ownerID string, budgetID uuid.UUID) ([]Expense, error) {
	query := fmt.Sprintf(`SELECT %s FROM expenses WHERE user_id = $1 AND budget_id = $2 ORDER BY spent_at DESC`, expenseColumns)
	return r.queryExpenses(ctx, query, ownerID, budgetID)
}

func (r *expenseRepository) queryExpenses(ctx context.Context, query string, args ...interface{}) ([]Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *expense)
	}
	return result, rows.Err()
}
