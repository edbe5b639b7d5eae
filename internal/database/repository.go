package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertRepository creates or refreshes the record of a local clone
func (db *DB) UpsertRepository(ctx context.Context, repo *Repository) error {
	query := `
		INSERT INTO repositories (url, local_name, bare, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (local_name)
		DO UPDATE SET
			url = EXCLUDED.url,
			bare = EXCLUDED.bare,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := db.pool.QueryRow(ctx, query, repo.URL, repo.LocalName, repo.Bare, repo.Status).
		Scan(&repo.ID, &repo.CreatedAt, &repo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert repository: %w", err)
	}

	return nil
}

// GetRepositoryByLocalName retrieves a repository by its local name
func (db *DB) GetRepositoryByLocalName(ctx context.Context, localName string) (*Repository, error) {
	query := `
		SELECT id, url, local_name, bare, status, last_cloned_at, created_at, updated_at
		FROM repositories
		WHERE local_name = $1
	`

	repo := &Repository{}
	err := db.pool.QueryRow(ctx, query, localName).Scan(
		&repo.ID,
		&repo.URL,
		&repo.LocalName,
		&repo.Bare,
		&repo.Status,
		&repo.LastClonedAt,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repository %s: %w", localName, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}

	return repo, nil
}

// ListRepositories retrieves all repositories with pagination
func (db *DB) ListRepositories(ctx context.Context, limit, offset int) ([]*Repository, error) {
	query := `
		SELECT id, url, local_name, bare, status, last_cloned_at, created_at, updated_at
		FROM repositories
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := db.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	repositories := []*Repository{}
	for rows.Next() {
		repo := &Repository{}
		err := rows.Scan(
			&repo.ID,
			&repo.URL,
			&repo.LocalName,
			&repo.Bare,
			&repo.Status,
			&repo.LastClonedAt,
			&repo.CreatedAt,
			&repo.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repositories = append(repositories, repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return repositories, nil
}

// UpdateRepositoryStatus updates the status of a repository. Moving to
// StatusCloned also stamps last_cloned_at.
func (db *DB) UpdateRepositoryStatus(ctx context.Context, localName string, status CloneStatus) error {
	query := `
		UPDATE repositories
		SET status = $1,
			last_cloned_at = CASE WHEN $1 = 'cloned' THEN NOW() ELSE last_cloned_at END,
			updated_at = NOW()
		WHERE local_name = $2
	`

	result, err := db.pool.Exec(ctx, query, status, localName)
	if err != nil {
		return fmt.Errorf("failed to update repository status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("repository %s: %w", localName, ErrNotFound)
	}

	return nil
}

// DeleteRepository removes the record of a local clone
func (db *DB) DeleteRepository(ctx context.Context, localName string) error {
	query := `DELETE FROM repositories WHERE local_name = $1`

	_, err := db.pool.Exec(ctx, query, localName)
	if err != nil {
		return fmt.Errorf("failed to delete repository: %w", err)
	}

	return nil
}
