package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tristendillon/doppelganger/core/models"
)

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "c.py")
	require.NoError(t, WriteFile(path, []byte("pass\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pass\n", string(data))
}

func TestWriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.py")
	require.NoError(t, os.WriteFile(path, []byte("a much longer previous content\n"), 0o644))
	require.NoError(t, WriteFile(path, []byte("x = 1\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x = 1\n", string(data))
}

func TestWriteFileFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err := WriteFile(filepath.Join(blocker, "c.py"), []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrWrite))
	assert.Equal(t, models.KindWrite, models.KindOf(err))

	err = WriteFile(dir, []byte("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrWrite))
}
