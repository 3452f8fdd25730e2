package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"datacatalog/internal/domain"
	"datacatalog/internal/repository"
)

const createDatasetsTable = `
CREATE TABLE IF NOT EXISTS datasets (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	tags TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL,
	user_id TEXT NOT NULL
);
`

type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) repository.DatasetRepository {
	return &DatasetRepository{db: db}
}

func (r *DatasetRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createDatasetsTable); err != nil {
		return fmt.Errorf("create datasets table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_datasets_user_id ON datasets (user_id)`); err != nil {
		return fmt.Errorf("create datasets user index: %w", err)
	}
	return nil
}

func (r *DatasetRepository) Create(ctx context.Context, dataset *domain.Dataset) error {
	tags, err := encodeTags(dataset.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO datasets (id, name, description, tags, created_at, user_id)
VALUES (?, ?, ?, ?, ?, ?)`,
		dataset.ID,
		dataset.Name,
		dataset.Description,
		tags,
		dataset.CreatedAt,
		dataset.UserID,
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

func (r *DatasetRepository) Get(ctx context.Context, id, userID string) (*domain.Dataset, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, tags, created_at, user_id
FROM datasets
WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	dataset, err := scanDataset(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return dataset, nil
}

func (r *DatasetRepository) ListByUser(ctx context.Context, userID string) ([]domain.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, description, tags, created_at, user_id
FROM datasets
WHERE user_id = ?
ORDER BY rowid ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]domain.Dataset, 0)
	for rows.Next() {
		dataset, err := scanDataset(rows.Scan)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return datasets, nil
}

func (r *DatasetRepository) Update(ctx context.Context, dataset *domain.Dataset) error {
	tags, err := encodeTags(dataset.Tags)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE datasets
SET name = ?, description = ?, tags = ?
WHERE id = ? AND user_id = ?`,
		dataset.Name,
		dataset.Description,
		tags,
		dataset.ID,
		dataset.UserID,
	)
	if err != nil {
		return fmt.Errorf("update dataset: %w", err)
	}
	return requireAffected(res)
}

func (r *DatasetRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM datasets
WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanDataset(scan func(dest ...any) error) (*domain.Dataset, error) {
	var (
		dataset domain.Dataset
		rawTags string
	)
	if err := scan(
		&dataset.ID,
		&dataset.Name,
		&dataset.Description,
		&rawTags,
		&dataset.CreatedAt,
		&dataset.UserID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	if err := json.Unmarshal([]byte(rawTags), &dataset.Tags); err != nil {
		return nil, fmt.Errorf("decode dataset tags: %w", err)
	}
	if dataset.Tags == nil {
		dataset.Tags = []string{}
	}
	return &dataset, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode dataset tags: %w", err)
	}
	return string(raw), nil
}
