package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "999_dir.up.sql"), 0o700))

	files, err := upFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a.up.sql", "000002_b.up.sql"}, files)
}

func TestUpFiles_MissingDir(t *testing.T) {
	_, err := upFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestFindDir_FromNestedPackage(t *testing.T) {
	dir := FindDir()
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, DirName, filepath.Base(dir))

	_, err = os.Stat(filepath.Join(dir, "000001_init.up.sql"))
	assert.NoError(t, err)
}
