package budgets

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Budget struct {
	ID              uuid.UUID `json:"id"`
	UserID          string    `json:"-"`
	AllocatedAmount float64   `json:"allocated_amount"`
	Category        string    `json:"category"`
	Color           string    `json:"color,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BudgetRepository satisfies scope.Repository[Budget]: every query carries
// the owner predicate. The two category lookups back the expense filtering
// endpoints; FindOwnerByID is the only unscoped query and exists solely for
// the cross-reference check on expense creation.
type BudgetRepository interface {
	Insert(ctx context.Context, budget *Budget) error
	FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*Budget, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Budget, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, budget *Budget) (int64, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) (int64, error)
	FindOwnerByID(ctx context.Context, id uuid.UUID) (string, error)
	FindByCategory(ctx context.Context, ownerID string, category string) (*Budget, error)
	DistinctIDsByCategory(ctx context.Context, ownerID string, category string) ([]uuid.UUID, error)
}

type budgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

func (r *budgetRepository) Insert(ctx context.Context, budget *Budget) error {
	query := `INSERT INTO budgets (id, user_id, allocated_amount, category, color, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, budget.ID, budget.UserID, budget.AllocatedAmount, budget.Category, budget.Color, budget.CreatedAt, budget.UpdatedAt)
	return err
}

func (r *budgetRepository) FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*Budget, error) {
	query := `SELECT id, user_id, allocated_amount, category, color, created_at, updated_at
              FROM budgets WHERE id = $1 AND user_id = $2`

	var budget Budget
	var color sql.NullString
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&budget.ID, &budget.UserID, &budget.AllocatedAmount, &budget.Category, &color, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		return nil, err
	}
	budget.Color = color.String
	return &budget, nil
}

func (r *budgetRepository) FindByOwner(ctx context.Context, ownerID string) ([]Budget, error) {
	query := `SELECT id, user_id, allocated_amount, category, color, created_at, updated_at
              FROM budgets WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		var budget Budget
		var color sql.NullString
		if err := rows.Scan(&budget.ID, &budget.UserID, &budget.AllocatedAmount, &budget.Category, &color, &budget.CreatedAt, &budget.UpdatedAt); err != nil {
			return nil, err
		}
		budget.Color = color.String
		budgets = append(budgets, budget)
	}
	return budgets, rows.Err()
}

func (r *budgetRepository) Update(ctx context.Context, ownerID string, id uuid.UUID, budget *Budget) (int64, error) {
	query := `UPDATE budgets
              SET allocated_amount = $1, category = $2, color = $3, updated_at = $4
              WHERE id = $5 AND user_id = $6`

	result, err := r.db.ExecContext(ctx, query, budget.AllocatedAmount, budget.Category, budget.Color, time.Now(), id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *budgetRepository) Delete(ctx context.Context, ownerID string, id uuid.UUID) (int64, error) {
	query := `DELETE FROM budgets WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *budgetRepository) FindOwnerByID(ctx context.Context, id uuid.UUID) (string, error) {
	query := `SELECT user_id FROM budgets WHERE id = $1`

	var ownerID string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ownerID)
	if err != nil {
		return "", err
	}
	return ownerID, nil
}

func (r *budgetRepository) FindByCategory(ctx context.Context, ownerID string, category string) (*Budget, error) {
	query := `SELECT id, user_id, allocated_amount, category, color, created_at, updated_at
              FROM budgets WHERE user_id = $1 AND category = $2
              ORDER BY created_at LIMIT 1`

	var budget Budget
	var color sql.NullString
	err := r.db.QueryRowContext(ctx, query, ownerID, category).Scan(
		&budget.ID, &budget.UserID, &budget.AllocatedAmount, &budget.Category, &color, &budget.CreatedAt, &budget.UpdatedAt)
	if err != nil {
		return nil, err
	}
	budget.Color = color.String
	return &budget, nil
}

func (r *budgetRepository) DistinctIDsByCategory(ctx context.Context, ownerID string, category string) ([]uuid.UUID, error) {
	query := `SELECT DISTINCT id FROM budgets WHERE user_id = $1 AND category = $2`

	rows, err := r.db.QueryContext(ctx, query, ownerID, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
