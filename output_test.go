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

func TestPublisher(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "atlas.json")
	require.NoError(t, os.WriteFile(file, []byte("old"), 0644))

	p := new(publisher)
	require.NoError(t, p.write(file, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	}))
	assert.Equal(t, []byte("new"), readFile(t, file))
	assert.Equal(t, []string{file}, p.written)

	// A failed write leaves the previous file and no temporary behind
	bad := errors.New("bad")
	err := p.write(file, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return bad
	})
	assert.True(t, IsKind(err, IOError), "got %v", err)
	assert.True(t, errors.Is(err, bad))
	assert.Equal(t, []byte("new"), readFile(t, file))
	assert.Len(t, p.written, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	p.discard()
	assert.NoFileExists(t, file)
	assert.Empty(t, p.written)
}
