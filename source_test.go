package tilepack

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSource struct{}

var errBroken = errors.New("broken")

func (brokenSource) Open(string) (io.ReadCloser, error) {
	return nil, errBroken
}

func readSource(t *testing.T, src ImageSource, name string) string {
	t.Helper()
	rc, err := src.Open(name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func TestSources(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("dir a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.png"), []byte("mapped b"), 0644))

	src := Sources{
		MemorySource{"c.png": []byte("memory c")},
		FileMap{"b.png": filepath.Join(dir, "other.png"), "gone.png": filepath.Join(dir, "gone.png")},
		DirSource(dir),
	}

	assert.Equal(t, "dir a", readSource(t, src, "a.png"))
	assert.Equal(t, "mapped b", readSource(t, src, "b.png"))
	assert.Equal(t, "memory c", readSource(t, src, "c.png"))

	_, err := src.Open("d.png")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// A mapped file that is missing falls through to the folder
	_, err = src.Open("gone.png")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Anything other than a missing image stops the search
	_, err = Sources{brokenSource{}, DirSource(dir)}.Open("a.png")
	assert.True(t, errors.Is(err, errBroken))

	_, err = Sources{}.Open("a.png")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
