package volio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTempFile(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vol.neondb")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(size))
	require.NoError(t, f.Close())
	return path
}

func TestWriteAtThenReadAt(t *testing.T) {
	path := newTempFile(t, 256)
	v, err := Open(path)
	require.NoError(t, err)
	defer v.Close()

	n, err := v.WriteAt(16, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = v.ReadAt(16, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))
}

func TestOpenReadOnlyRejectsWrite(t *testing.T) {
	path := newTempFile(t, 256)
	v, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer v.Close()

	_, err = v.WriteAt(0, []byte("x"))
	require.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	path := newTempFile(t, 256)
	v, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, v.Close())
	require.NoError(t, v.Close())
}

func TestSizeReportsFixedVolSize(t *testing.T) {
	path := newTempFile(t, 256)
	v, err := Open(path)
	require.NoError(t, err)
	defer v.Close()

	require.Equal(t, uint64(1<<23), v.Size())
}
