package repository

import (
	"context"

	"datacatalog/internal/domain"
)

// DatasetRepository exposes persistence operations for Dataset records.
// Reads and writes are scoped to the owning user: a lookup with the wrong
// user id behaves exactly like a lookup for a missing id.
type DatasetRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, dataset *domain.Dataset) error
	Get(ctx context.Context, id, userID string) (*domain.Dataset, error)
	// ListByUser returns the user's datasets in insertion order.
	ListByUser(ctx context.Context, userID string) ([]domain.Dataset, error)
	// Update replaces name, description and tags of the record matching the
	// dataset's ID and UserID. Creation time never changes.
	Update(ctx context.Context, dataset *domain.Dataset) error
	Delete(ctx context.Context, id, userID string) error
}
