// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-duel-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrAliasNotFound = errors.New("alias not found")
	ErrAliasExists   = errors.New("alias already exists")
)

// AliasID derives the primary key for a folder/alias pair.
func AliasID(folderName, extraName string) string {
	sum := sha256.Sum256([]byte(folderName + "-" + extraName))
	return hex.EncodeToString(sum[:])
}

// CatalogRepository handles image folder alias persistence.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new CatalogRepository instance.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// CreateAlias registers extraName as a lookup name for folderName.
// Returns ErrAliasExists if the pair is already registered.
func (r *CatalogRepository) CreateAlias(ctx context.Context, folderName, extraName string) (*model.FolderAlias, error) {
	const query = `
		INSERT INTO folder_aliases (id, folder_name, extra_name, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO NOTHING
		RETURNING id, folder_name, extra_name, created_at
	`

	var alias model.FolderAlias
	err := r.pool.QueryRow(ctx, query, AliasID(folderName, extraName), folderName, extraName).Scan(
		&alias.ID,
		&alias.FolderName,
		&alias.ExtraName,
		&alias.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAliasExists
		}
		return nil, fmt.Errorf("failed to create alias: %w", err)
	}

	return &alias, nil
}

// ResolveFolder returns the folder name a lookup name points at.
// Returns ErrAliasNotFound when the name is not registered.
func (r *CatalogRepository) ResolveFolder(ctx context.Context, name string) (string, error) {
	const query = `
		SELECT folder_name FROM folder_aliases
		WHERE extra_name = $1
		ORDER BY created_at
		LIMIT 1
	`

	var folderName string
	err := r.pool.QueryRow(ctx, query, name).Scan(&folderName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAliasNotFound
		}
		return "", fmt.Errorf("failed to resolve folder: %w", err)
	}

	return folderName, nil
}

// ListFolders returns the distinct registered folder names.
func (r *CatalogRepository) ListFolders(ctx context.Context) ([]string, error) {
	const query = `
		SELECT DISTINCT folder_name FROM folder_aliases
		ORDER BY folder_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan folder name: %w", err)
		}
		folders = append(folders, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folders: %w", err)
	}

	return folders, nil
}

// ListAliases returns all lookup names registered for a folder.
func (r *CatalogRepository) ListAliases(ctx context.Context, folderName string) ([]string, error) {
	const query = `
		SELECT extra_name FROM folder_aliases
		WHERE folder_name = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, folderName)
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aliases: %w", err)
	}

	return aliases, nil
}

// DeleteAlias removes one folder/alias pair. Returns ErrAliasNotFound if
// the pair is not registered.
func (r *CatalogRepository) DeleteAlias(ctx context.Context, folderName, extraName string) error {
	const query = `DELETE FROM folder_aliases WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, AliasID(folderName, extraName))
	if err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAliasNotFound
	}

	return nil
}

// AliasExists reports whether the folder/alias pair is registered.
func (r *CatalogRepository) AliasExists(ctx context.Context, folderName, extraName string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM folder_aliases WHERE id = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, AliasID(folderName, extraName)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check alias: %w", err)
	}

	return exists, nil
}

// FolderExists reports whether the folder has any registered alias.
func (r *CatalogRepository) FolderExists(ctx context.Context, folderName string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM folder_aliases WHERE folder_name = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, folderName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check folder: %w", err)
	}

	return exists, nil
}
