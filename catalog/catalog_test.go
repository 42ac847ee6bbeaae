package catalog

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, c)
		}
	}
	b := new(bytes.Buffer)
	require.NoError(t, png.Encode(b, m))
	return b.Bytes()
}

func newCatalog(t *testing.T) *Catalog {
	c, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestAddOpen(t *testing.T) {
	c := newCatalog(t)

	red := encodePNG(t, 4, 2, color.NRGBA{0xff, 0, 0, 0xff})
	require.NoError(t, c.Add("terrain.png", bytes.NewReader(red)))

	rc, err := c.Open("terrain.png")
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, red, b)

	_, err = c.Open("missing.png")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	// Replacing an image is seen by the next Open
	blue := encodePNG(t, 4, 2, color.NRGBA{0, 0, 0xff, 0xff})
	require.NoError(t, c.Add("terrain.png", bytes.NewReader(blue)))
	assert.Equal(t, blue, readImage(t, c, "terrain.png"))
	assert.Equal(t, blue, readImage(t, c, "terrain.png"))
}

func readImage(t *testing.T, c *Catalog, name string) []byte {
	rc, err := c.Open(name)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return b
}

func TestAddDeduplicates(t *testing.T) {
	c := newCatalog(t)

	red := encodePNG(t, 4, 2, color.NRGBA{0xff, 0, 0, 0xff})
	blue := encodePNG(t, 2, 2, color.NRGBA{0, 0, 0xff, 0xff})

	require.NoError(t, c.Add("a.png", bytes.NewReader(red)))
	require.NoError(t, c.Add("b.png", bytes.NewReader(red)))
	require.NoError(t, c.Add("c.png", bytes.NewReader(blue)))

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, entries[0].SHA1, entries[1].SHA1)
	assert.NotEqual(t, entries[0].SHA1, entries[2].SHA1)
	assert.Equal(t, 4, entries[0].Width)
	assert.Equal(t, 2, entries[0].Height)

	var images int
	require.NoError(t, c.db.QueryRow("SELECT COUNT(*) FROM image").Scan(&images))
	assert.Equal(t, 2, images)

	// Re-adding a name points it at the new image
	require.NoError(t, c.Add("a.png", bytes.NewReader(blue)))
	entries, err = c.List()
	require.NoError(t, err)
	assert.Equal(t, entries[2].SHA1, entries[0].SHA1)
}

func TestAddRejects(t *testing.T) {
	c := newCatalog(t)

	assert.Equal(t, errEmptyName, c.Add("", bytes.NewReader(nil)))
	assert.Error(t, c.Add("notes.png", strings.NewReader("not an image")))
}

func TestImportDir(t *testing.T) {
	c := newCatalog(t)

	dir := t.TempDir()
	files := map[string][]byte{
		"water.png":   encodePNG(t, 2, 2, color.NRGBA{0, 0, 0xff, 0xff}),
		"grass.PNG":   encodePNG(t, 2, 2, color.NRGBA{0, 0xff, 0, 0xff}),
		".hidden.png": encodePNG(t, 2, 2, color.NRGBA{0, 0, 0, 0xff}),
		"map.json":    []byte("{}"),
	}
	for name, b := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0644))
	}

	n, err := c.ImportDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := c.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "grass.PNG", entries[0].Name)
	assert.Equal(t, "water.png", entries[1].Name)
}
