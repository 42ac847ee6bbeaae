package tilepack

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	plain := &Tileset{Name: "plain", First: 1, Last: 17, Width: 64, Height: 64}
	spaced := &Tileset{Name: "spaced", First: 101, Last: 110, Width: 52, Height: 52, Margin: 1, Spacing: 2}
	ragged := &Tileset{Name: "ragged", First: 1, Last: 10, Width: 40, Height: 40}
	framed := &Tileset{Name: "framed", First: 1, Last: 5, Width: 35, Height: 35, Margin: 1, Spacing: 1}

	tables := []struct {
		name string
		ts   *Tileset
		gid  uint32
		rect image.Rectangle
		err  error
	}{
		{"first", plain, 1, image.Rect(0, 0, 16, 16), nil},
		{"row wrap", plain, 6, image.Rect(16, 16, 32, 32), nil},
		{"last", plain, 16, image.Rect(48, 48, 64, 64), nil},
		{"margin and spacing", spaced, 105, image.Rect(19, 19, 37, 37), nil},
		{"framed first", framed, 1, image.Rect(1, 1, 18, 18), nil},
		{"framed row wrap", framed, 3, image.Rect(1, 18, 18, 35), nil},
		{"framed last", framed, 4, image.Rect(18, 18, 35, 35), nil},
		{"partial column", ragged, 3, image.Rect(32, 0, 48, 16), nil},
		{"partial row", ragged, 9, image.Rect(32, 32, 48, 48), nil},
		{"outside range", plain, 17, image.Rectangle{}, errNoTileset},
		{"outside grid", &Tileset{Name: "short", First: 1, Last: 10, Width: 32, Height: 32}, 7, image.Rectangle{}, errOutsideGrid},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			r, err := Locate(table.ts, table.gid, tileSize, tileSize)
			if table.err != nil {
				assert.True(t, errors.Is(err, table.err), "got %v", err)
				assert.True(t, IsKind(err, TileResolutionError))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, table.rect, r)
		})
	}
}
