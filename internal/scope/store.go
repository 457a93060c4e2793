// Package scope enforces the per-user ownership discipline shared by all
// owned entities. Every repository query carries the owner predicate, so a
// record owned by another user behaves exactly like a missing record.
package scope

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound covers both "record does not exist" and "record is owned by
// another user". The two cases are deliberately indistinguishable so that
// the API never reveals the existence of other users' records.
var ErrNotFound = errors.New("record not found")

// Repository is the minimal data-access surface an owned entity exposes.
// FindByID must return sql.ErrNoRows when no record matches both the id and
// the owner; Update and Delete must report the number of affected rows with
// the same predicate applied.
type Repository[T any] interface {
	Insert(ctx context.Context, record *T) error
	FindByID(ctx context.Context, ownerID string, id uuid.UUID) (*T, error)
	FindByOwner(ctx context.Context, ownerID string) ([]T, error)
	Update(ctx context.Context, ownerID string, id uuid.UUID, record *T) (int64, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) (int64, error)
}

// Store wraps a Repository and translates the ownership predicate into the
// caller-visible NotFound semantics in one place.
type Store[T any] struct {
	repo Repository[T]
}

func NewStore[T any](repo Repository[T]) *Store[T] {
	return &Store[T]{repo: repo}
}

func (s *Store[T]) Create(ctx context.Context, record *T) error {
	return s.repo.Insert(ctx, record)
}

func (s *Store[T]) Get(ctx context.Context, ownerID string, id uuid.UUID) (*T, error) {
	record, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

// List returns all records owned by ownerID. No match is an empty slice,
// never an error.
func (s *Store[T]) List(ctx context.Context, ownerID string) ([]T, error) {
	records, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// Update loads the caller's record, applies merge and persists the result.
// There is no optimistic-concurrency token: concurrent updates of the same
// record are last-write-wins.
func (s *Store[T]) Update(ctx context.Context, ownerID string, id uuid.UUID, merge func(*T) error) (*T, error) {
	record, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := merge(record); err != nil {
		return nil, err
	}

	affected, err := s.repo.Update(ctx, ownerID, id, record)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return record, nil
}

func (s *Store[T]) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
