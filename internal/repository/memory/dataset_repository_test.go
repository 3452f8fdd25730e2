package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datacatalog/internal/domain"
	"datacatalog/internal/repository"
)

func TestDatasetRepositoryLifecycle(t *testing.T) {
	repo := NewDatasetRepository()
	ctx := context.Background()
	require.NoError(t, repo.Init(ctx))

	created := &domain.Dataset{
		ID:          "d1",
		Name:        "Sales",
		Description: "Q4 sales data",
		Tags:        []string{"q4"},
		CreatedAt:   time.Now().UTC(),
		UserID:      "u1",
	}
	require.NoError(t, repo.Create(ctx, created))

	// stored copy must not alias the caller's slice
	created.Tags[0] = "mutated"
	got, err := repo.Get(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"q4"}, got.Tags)

	_, err = repo.Get(ctx, "d1", "u2")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	require.NoError(t, repo.Update(ctx, &domain.Dataset{
		ID:          "d1",
		UserID:      "u1",
		Name:        "Sales 2025",
		Description: "Full year",
		Tags:        []string{"fy"},
	}))

	got, err = repo.Get(ctx, "d1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sales 2025", got.Name)
	assert.Equal(t, created.CreatedAt, got.CreatedAt, "update must not touch creation time")

	err = repo.Update(ctx, &domain.Dataset{ID: "d1", UserID: "u2", Name: "x", Description: "y", Tags: []string{}})
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	require.NoError(t, repo.Delete(ctx, "d1", "u1"))
	_, err = repo.Get(ctx, "d1", "u1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, "d1", "u1"), repository.ErrNotFound))
}

func TestDatasetRepositoryListOrder(t *testing.T) {
	repo := NewDatasetRepository()
	ctx := context.Background()

	for _, id := range []string{"d1", "d2", "d3"} {
		owner := "u1"
		if id == "d2" {
			owner = "u2"
		}
		require.NoError(t, repo.Create(ctx, &domain.Dataset{
			ID: id, Name: id, Description: id, Tags: []string{}, UserID: owner,
		}))
	}

	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d1", list[0].ID)
	assert.Equal(t, "d3", list[1].ID)
}

func TestUserRepositoryDuplicateEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Email: "a@b.com", PasswordHash: "h"}))
	err := repo.Create(ctx, &domain.User{ID: "u2", Email: "a@b.com", PasswordHash: "h"})
	assert.True(t, errors.Is(err, repository.ErrEmailTaken))

	user, err := repo.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	// lookup is exact and case-sensitive
	_, err = repo.GetByEmail(ctx, "A@b.com")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
