package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"datacatalog/internal/domain"
	"datacatalog/internal/repository"
)

// DatasetService coordinates owner-scoped dataset operations backed by a
// repository. The owner id comes from the caller's verified token; a dataset
// belonging to someone else is indistinguishable from a missing one.
type DatasetService interface {
	List(ctx context.Context, userID string) ([]domain.Dataset, error)
	Create(ctx context.Context, userID, name, description string, tags []string) (*domain.Dataset, error)
	Get(ctx context.Context, id, userID string) (*domain.Dataset, error)
	Update(ctx context.Context, id, userID, name, description string, tags []string) (*domain.Dataset, error)
	Delete(ctx context.Context, id, userID string) (*domain.Dataset, error)
}

type datasetService struct {
	datasets repository.DatasetRepository
}

func NewDatasetService(datasets repository.DatasetRepository) DatasetService {
	return &datasetService{datasets: datasets}
}

func (s *datasetService) List(ctx context.Context, userID string) ([]domain.Dataset, error) {
	return s.datasets.ListByUser(ctx, userID)
}

func (s *datasetService) Create(ctx context.Context, userID, name, description string, tags []string) (*domain.Dataset, error) {
	if err := validateDatasetFields(name, description, tags); err != nil {
		return nil, err
	}

	dataset := &domain.Dataset{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Tags:        tags,
		CreatedAt:   time.Now().UTC(),
		UserID:      userID,
	}

	if err := s.datasets.Create(ctx, dataset); err != nil {
		return nil, err
	}
	return dataset, nil
}

func (s *datasetService) Get(ctx context.Context, id, userID string) (*domain.Dataset, error) {
	dataset, err := s.datasets.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, err
	}
	return dataset, nil
}

func (s *datasetService) Update(ctx context.Context, id, userID, name, description string, tags []string) (*domain.Dataset, error) {
	if err := validateDatasetFields(name, description, tags); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	existing.Name = name
	existing.Description = description
	existing.Tags = tags

	if err := s.datasets.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, err
	}
	return existing, nil
}

func (s *datasetService) Delete(ctx context.Context, id, userID string) (*domain.Dataset, error) {
	snapshot, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := s.datasets.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDatasetNotFound
		}
		return nil, err
	}
	return snapshot, nil
}

// validateDatasetFields enforces the shared create/update rules before any
// mutation happens.
func validateDatasetFields(name, description string, tags []string) error {
	if name == "" || description == "" {
		return invalidInput("name and description are required")
	}
	if tags == nil {
		return invalidInput("tags must be an array")
	}
	return nil
}
