package memory

import (
	"context"
	"sync"

	"datacatalog/internal/domain"
	"datacatalog/internal/repository"
)

// DatasetRepository keeps datasets in an insertion-ordered slice guarded by
// a mutex.
type DatasetRepository struct {
	mu       sync.RWMutex
	datasets []domain.Dataset
}

func NewDatasetRepository() *DatasetRepository {
	return &DatasetRepository{}
}

func (r *DatasetRepository) Init(ctx context.Context) error {
	return nil
}

func (r *DatasetRepository) Create(ctx context.Context, dataset *domain.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *dataset
	stored.Tags = cloneTags(dataset.Tags)
	r.datasets = append(r.datasets, stored)
	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, id, userID string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.datasets {
		if r.datasets[i].ID == id && r.datasets[i].UserID == userID {
			found := r.datasets[i]
			found.Tags = cloneTags(found.Tags)
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *DatasetRepository) ListByUser(ctx context.Context, userID string) ([]domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Dataset, 0)
	for i := range r.datasets {
		if r.datasets[i].UserID != userID {
			continue
		}
		found := r.datasets[i]
		found.Tags = cloneTags(found.Tags)
		out = append(out, found)
	}
	return out, nil
}

func (r *DatasetRepository) Update(ctx context.Context, dataset *domain.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.datasets {
		if r.datasets[i].ID == dataset.ID && r.datasets[i].UserID == dataset.UserID {
			r.datasets[i].Name = dataset.Name
			r.datasets[i].Description = dataset.Description
			r.datasets[i].Tags = cloneTags(dataset.Tags)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *DatasetRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.datasets {
		if r.datasets[i].ID == id && r.datasets[i].UserID == userID {
			r.datasets = append(r.datasets[:i], r.datasets[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
