package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "out", "viz")

	require.NoError(t, fsys.MkdirAll(dir, 0755))
	assert.True(t, fsys.Exists(dir))

	path := filepath.Join(dir, "summary.txt")
	require.NoError(t, fsys.WriteFile(path, []byte("entities: 3\n"), 0644))

	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "entities: 3\n", string(data))

	w, err := fsys.Create(filepath.Join(dir, "chart.png"))
	require.NoError(t, err)
	_, err = w.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.True(t, fsys.Exists(filepath.Join(dir, "chart.png")))
}

func TestMemoryFileSystem(t *testing.T) {
	m := NewMemoryFileSystem()

	_, err := m.ReadFile("missing.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	require.NoError(t, m.MkdirAll("out/viz", 0755))
	assert.True(t, m.Exists("out"))
	assert.True(t, m.Exists("out/viz"))

	require.NoError(t, m.WriteFile("out/entity_stats.csv", []byte("duck_id\n"), 0644))

	w, err := m.Create("out/viz/chart.png")
	require.NoError(t, err)
	assert.True(t, m.Exists("out/viz/chart.png"), "Create should register the file immediately")
	_, _ = w.Write([]byte("png"))
	require.NoError(t, w.Close())

	data, err := m.ReadFile("out/viz/./chart.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	// returned slices are copies
	data[0] = 'x'
	again, _ := m.ReadFile("out/viz/chart.png")
	assert.Equal(t, "png", string(again))

	assert.Equal(t, []string{"out/entity_stats.csv", "out/viz/chart.png"}, m.Files("out"))
}
