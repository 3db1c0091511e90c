// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Run migrations
	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	// Return cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS folder_aliases (
			id VARCHAR(64) PRIMARY KEY,
			folder_name VARCHAR(255) NOT NULL,
			extra_name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func TestCatalogRepository_CreateAlias(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	// Create a new alias
	alias, err := repo.CreateAlias(ctx, "cats", "kitty")
	require.NoError(t, err)
	assert.Equal(t, AliasID("cats", "kitty"), alias.ID)
	assert.Equal(t, "cats", alias.FolderName)
	assert.Equal(t, "kitty", alias.ExtraName)
	assert.False(t, alias.CreatedAt.IsZero())

	// The same pair cannot be registered twice
	_, err = repo.CreateAlias(ctx, "cats", "kitty")
	assert.ErrorIs(t, err, ErrAliasExists)

	// The same alias under a different folder is a distinct pair
	_, err = repo.CreateAlias(ctx, "dogs", "kitty")
	assert.NoError(t, err)
}

func TestCatalogRepository_ResolveFolder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	_, err := repo.CreateAlias(ctx, "cats", "cats")
	require.NoError(t, err)
	_, err = repo.CreateAlias(ctx, "cats", "猫猫")
	require.NoError(t, err)

	// Identity alias and extra alias both resolve
	folder, err := repo.ResolveFolder(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, "cats", folder)

	folder, err = repo.ResolveFolder(ctx, "猫猫")
	require.NoError(t, err)
	assert.Equal(t, "cats", folder)

	// Unregistered names are not found
	_, err = repo.ResolveFolder(ctx, "unknown")
	assert.ErrorIs(t, err, ErrAliasNotFound)
}

func TestCatalogRepository_ListFolders(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	// Empty catalog lists nothing
	folders, err := repo.ListFolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, folders)

	_, _ = repo.CreateAlias(ctx, "cats", "cats")
	_, _ = repo.CreateAlias(ctx, "cats", "kitty")
	_, _ = repo.CreateAlias(ctx, "dogs", "dogs")

	// Folders are distinct and sorted
	folders, err = repo.ListFolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats", "dogs"}, folders)
}

func TestCatalogRepository_ListAliases(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	_, _ = repo.CreateAlias(ctx, "cats", "cats")
	_, _ = repo.CreateAlias(ctx, "cats", "kitty")
	_, _ = repo.CreateAlias(ctx, "dogs", "dogs")

	aliases, err := repo.ListAliases(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, []string{"cats", "kitty"}, aliases)

	// Unknown folder lists nothing
	aliases, err = repo.ListAliases(ctx, "birds")
	require.NoError(t, err)
	assert.Empty(t, aliases)
}

func TestCatalogRepository_DeleteAlias(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	_, err := repo.CreateAlias(ctx, "cats", "kitty")
	require.NoError(t, err)

	// Delete removes the pair exactly once
	err = repo.DeleteAlias(ctx, "cats", "kitty")
	require.NoError(t, err)

	err = repo.DeleteAlias(ctx, "cats", "kitty")
	assert.ErrorIs(t, err, ErrAliasNotFound)

	_, err = repo.ResolveFolder(ctx, "kitty")
	assert.ErrorIs(t, err, ErrAliasNotFound)
}

func TestCatalogRepository_Exists(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCatalogRepository(pool)
	ctx := context.Background()

	exists, err := repo.AliasExists(ctx, "cats", "kitty")
	require.NoError(t, err)
	assert.False(t, exists)

	folderExists, err := repo.FolderExists(ctx, "cats")
	require.NoError(t, err)
	assert.False(t, folderExists)

	_, err = repo.CreateAlias(ctx, "cats", "kitty")
	require.NoError(t, err)

	exists, err = repo.AliasExists(ctx, "cats", "kitty")
	require.NoError(t, err)
	assert.True(t, exists)

	folderExists, err = repo.FolderExists(ctx, "cats")
	require.NoError(t, err)
	assert.True(t, folderExists)
}

func TestAliasID_Deterministic(t *testing.T) {
	assert.Equal(t, AliasID("cats", "kitty"), AliasID("cats", "kitty"))
	assert.NotEqual(t, AliasID("cats", "kitty"), AliasID("cats", "cat"))
	assert.NotEqual(t, AliasID("cats", "kitty"), AliasID("dogs", "kitty"))
	assert.Len(t, AliasID("cats", "kitty"), 64)
}
