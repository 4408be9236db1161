package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add boost index", "add_boost_index"},
		{"Add-Boost-Index", "add_boost_index"},
		{"ADD_BOOST_INDEX", "add_boost_index"},
		{"add__boost__index", "add_boost_index"},
		{"Tier Order 2", "tier_order_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_loyalty_schema.up.sql"), []byte("-- up"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_loyalty_schema.down.sql"), []byte("-- down"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_boost_indexes.up.sql"), []byte("-- up"), 0o644))

	mf, err := CreateMigration(dir, "add payout audit", "Track payout edits")
	require.NoError(t, err)

	assert.Equal(t, "000008", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000008_add_payout_audit.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000008_add_payout_audit.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add payout audit")
	assert.Contains(t, string(up), "Track payout edits")
	assert.Contains(t, string(up), "Write your UP migration SQL here")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
	assert.Contains(t, string(down), "Write your DOWN migration SQL here")
}

func TestCreateMigration_EmptyDirectoryStartsAtOne(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "sql")

	mf, err := CreateMigration(nested, "init", "first")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestNextVersion(t *testing.T) {
	assert.Equal(t, 1, nextVersion(nil))
	assert.Equal(t, 3, nextVersion([]string{"000001_a", "000002_b"}))
	assert.Equal(t, 5, nextVersion([]string{"000004_a", "notes", "abc_def"}))
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"000001_loyalty_schema.up.sql",
		"000001_loyalty_schema.down.sql",
		"000002_commission_boosts.up.sql",
		"000002_commission_boosts.down.sql",
		"README.md",
		".gitkeep",
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("-- test"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	migrations, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_loyalty_schema", "000002_commission_boosts"}, migrations)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	migrations, err := ListMigrations("/nonexistent/path/to/migrations")
	require.NoError(t, err)
	assert.Empty(t, migrations)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := EmbeddedMigrations()
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_loyalty_schema", "000002_commission_boosts"}, names)

	for _, name := range names {
		for _, suffix := range []string{".up.sql", ".down.sql"} {
			body, err := schemaFS.ReadFile("sql/" + name + suffix)
			require.NoError(t, err, name+suffix)
			assert.NotEmpty(t, body)
		}
	}
}
