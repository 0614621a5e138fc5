package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Add Payment Index":   "add_payment_index",
		"  spaced--out__name": "spaced_out_name",
		"drop!@#column":       "dropcolumn",
		"trailing ":           "trailing",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}

func TestCreateAndListMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create accounts")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "Add Invoice Status")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_invoice_status.up.sql"), second.UpPath)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "create_accounts", list[0].Name)
	assert.Equal(t, "add_invoice_status", list[1].Name)

	_, err = CreateMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestListMigrationsMissingDir(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestShippedMigrationsArePaired(t *testing.T) {
	list, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, list)
	for i, mf := range list {
		assert.Equal(t, uint(i+1), mf.Version, "versions are contiguous")
		assert.NotEmpty(t, mf.UpPath, mf.Name)
		assert.NotEmpty(t, mf.DownPath, mf.Name)
	}
}
