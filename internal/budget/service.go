package budgets

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/adilenc/BudgetManager/internal/scope"
	"github.com/google/uuid"
)

var (
	ErrBudgetNotFound  = errors.New("budget not found")
	ErrMissingCategory = errors.New("budget category is required")
	ErrInvalidAmount   = errors.New("allocated amount must be greater than zero")
)

// Push event names are part of the wire contract with the existing web
// client. Do not rename.
const (
	eventBudgetCreated = "budgetCreated"
	eventBudgetUpdated = "budget mise à jour"
	eventBudgetDeleted = "budget éffacé"
)

type budgetEvent struct {
	Event    string  `json:"event"`
	Budget   *Budget `json:"budget,omitempty"`
	BudgetID string  `json:"budgetId,omitempty"`
}

// Notifier pushes an event to the owner's live channel, if any. Delivery is
// best effort and must never fail the mutation.
type Notifier interface {
	Notify(userID string, event interface{})
}

type Service interface {
	CreateBudget(ctx context.Context, userID string, allocatedAmount float64, category, color string) (*Budget, error)
	GetBudget(ctx context.Context, userID string, id uuid.UUID) (*Budget, error)
	GetAllBudgets(ctx context.Context, userID string) ([]Budget, error)
	UpdateBudget(ctx context.Context, userID string, id uuid.UUID, allocatedAmount *float64, category, color *string) (*Budget, error)
	DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error

	// Cross-reference and filtering support for the expense service.
	GetBudgetOwner(ctx context.Context, id uuid.UUID) (string, error)
	GetBudgetByCategory(ctx context.Context, userID, category string) (*Budget, error)
	GetBudgetIDsByCategory(ctx context.Context, userID, category string) ([]uuid.UUID, error)
}

type service struct {
	store    *scope.Store[Budget]
	repo     BudgetRepository
	notifier Notifier
}

func NewBudgetService(repo BudgetRepository, notifier Notifier) Service {
	return &service{
		store:    scope.NewStore[Budget](repo),
		repo:     repo,
		notifier: notifier,
	}
}

// CreateBudget stamps the authenticated user as owner. Any owner value the
// client may have supplied in the request body is ignored.
func (s *service) CreateBudget(ctx context.Context, userID string, allocatedAmount float64, category, color string) (*Budget, error) {
	if category == "" {
		return nil, ErrMissingCategory
	}
	if allocatedAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	budget := &Budget{
		ID:              uuid.New(),
		UserID:          userID,
		AllocatedAmount: allocatedAmount,
		Category:        category,
		Color:           color,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := s.store.Create(ctx, budget); err != nil {
		return nil, err
	}

	s.notifier.Notify(userID, budgetEvent{Event: eventBudgetCreated, Budget: budget})
	return budget, nil
}

func (s *service) GetBudget(ctx context.Context, userID string, id uuid.UUID) (*Budget, error) {
	budget, err := s.store.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}
	return budget, nil
}

func (s *service) GetAllBudgets(ctx context.Context, userID string) ([]Budget, error) {
	return s.store.List(ctx, userID)
}

func (s *service) UpdateBudget(ctx context.Context, userID string, id uuid.UUID, allocatedAmount *float64, category, color *string) (*Budget, error) {
	budget, err := s.store.Update(ctx, userID, id, func(b *Budget) error {
		if allocatedAmount != nil {
			if *allocatedAmount <= 0 {
				return ErrInvalidAmount
			}
			b.AllocatedAmount = *allocatedAmount
		}
		if category != nil {
			if *category == "" {
				return ErrMissingCategory
			}
			b.Category = *category
		}
		if color != nil {
			b.Color = *color
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}

	s.notifier.Notify(userID, budgetEvent{Event: eventBudgetUpdated, Budget: budget})
	return budget, nil
}

// DeleteBudget notifies with the deleted id only, the record is gone.
func (s *service) DeleteBudget(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, scope.ErrNotFound) {
			return ErrBudgetNotFound
		}
		return err
	}

	s.notifier.Notify(userID, budgetEvent{Event: eventBudgetDeleted, BudgetID: id.String()})
	return nil
}

// GetBudgetOwner resolves a budget id to its owner without scoping. Used
// only by the expense cross-reference check, which needs to distinguish a
// missing budget from a foreign one.
func (s *service) GetBudgetOwner(ctx context.Context, id uuid.UUID) (string, error) {
	ownerID, err := s.repo.FindOwnerByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrBudgetNotFound
		}
		return "", err
	}
	return ownerID, nil
}

func (s *service) GetBudgetByCategory(ctx context.Context, userID, category string) (*Budget, error) {
	budget, err := s.repo.FindByCategory(ctx, userID, category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBudgetNotFound
		}
		return nil, err
	}
	return budget, nil
}

func (s *service) GetBudgetIDsByCategory(ctx context.Context, userID, category string) ([]uuid.UUID, error) {
	return s.repo.DistinctIDsByCategory(ctx, userID, category)
}
