package artifact

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"suitecompare/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBytes_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "summary.md")
	require.NoError(t, WriteBytes(path, []byte("# ok\n")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# ok\n", string(got))
}

func TestWriteFile_FailureKeepsPreviousContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "03_location.xlsx")
	require.NoError(t, WriteBytes(path, []byte("previous")))

	err := WriteFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return stderrors.New("boom")
	})
	require.Error(t, err)
	assert.True(t, errors.IsWrite(err))

	got, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(got))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestWriteFile_UnwritableLocation(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteBytes(filepath.Join(blocker, "child.md"), []byte("y"))
	require.Error(t, err)
	assert.True(t, errors.IsWrite(err))
}
