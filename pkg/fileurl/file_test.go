package fileurl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePathAndExist(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "db.sqlite3")

	assert.False(t, IsExist(target))
	require.NoError(t, CreatePath(target, os.ModePerm))
	assert.True(t, IsExist(filepath.Dir(target)))
	assert.False(t, IsFile(filepath.Dir(target)))

	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	assert.True(t, IsFile(target))
}
