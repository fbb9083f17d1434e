package database_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Kyz7/fincore/internal/database"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func writeFile(t *testing.T, dir, name, body string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRunMigrations(t *testing.T) {
	t.Run("Success - applies pending files once", func(t *testing.T) {
		db := setupDB(t)
		dir := t.TempDir()
		writeFile(t, dir, "001_widgets.sql", "CREATE TABLE widgets (id INTEGER PRIMARY KEY);")
		writeFile(t, dir, "rollback_001_widgets.sql", "DROP TABLE widgets;")

		require.NoError(t, database.RunMigrations(db, dir))
		require.NoError(t, database.RunMigrations(db, dir))

		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		require.Len(t, applied, 1)
		assert.Equal(t, "001_widgets.sql", applied[0].Version)
		assert.True(t, db.Migrator().HasTable("widgets"))
	})

	t.Run("Success - rollback drops and forgets", func(t *testing.T) {
		db := setupDB(t)
		dir := t.TempDir()
		writeFile(t, dir, "001_widgets.sql", "CREATE TABLE widgets (id INTEGER PRIMARY KEY);")
		writeFile(t, dir, "rollback_001_widgets.sql", "DROP TABLE widgets;")
		require.NoError(t, database.RunMigrations(db, dir))

		require.NoError(t, database.RollbackMigration(db, dir, "001_widgets.sql"))

		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		assert.Empty(t, applied)
		assert.False(t, db.Migrator().HasTable("widgets"))
	})

	t.Run("Error - broken file is not recorded", func(t *testing.T) {
		db := setupDB(t)
		dir := t.TempDir()
		writeFile(t, dir, "001_broken.sql", "CREATE TABLEX nope;")

		assert.Error(t, database.RunMigrations(db, dir))

		applied, err := database.GetAppliedMigrations(db)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})

	t.Run("Error - rollback of unknown version", func(t *testing.T) {
		db := setupDB(t)
		assert.Error(t, database.RollbackMigration(db, t.TempDir(), "999_missing.sql"))
	})
}
