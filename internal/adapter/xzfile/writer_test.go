package xzfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	payload := []byte("Date/Time,Year,Month,Day\n2003-01-01,2003,1,1\n")
	require.NoError(t, w.Store(payload, "stations/71/71957/2003.csv.xz"))

	f, err := os.Open(filepath.Join(root, "stations", "71", "71957", "2003.csv.xz"))
	require.NoError(t, err)
	defer f.Close()

	r, err := xz.NewReader(f)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got), "decompressed payload differs")
}

func TestStore_CreatesPartitionDirectories(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	require.NoError(t, w.Store([]byte("x"), "stations/0/27/1994.csv.xz"))

	info, err := os.Stat(filepath.Join(root, "stations", "0", "27"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_OverwriteReplacesContent(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)
	rel := "stations/5/5051/1995.csv.xz"

	require.NoError(t, w.Store([]byte("old"), rel))
	require.NoError(t, w.Store([]byte("new"), rel))

	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	defer f.Close()

	r, err := xz.NewReader(f)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestStore_LeavesNoTempFilesBehind(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	require.NoError(t, w.Store([]byte("payload"), "stations/1/1000/1870.csv.xz"))

	entries, err := os.ReadDir(filepath.Join(root, "stations", "1", "1000"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1870.csv.xz", entries[0].Name())
}
