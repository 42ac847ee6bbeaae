package tilepack

import (
	"fmt"
	"image"
)

// Locate returns the rectangle of gid within the tileset image, including
// the tileset spacing to the right of and below the tile. The tileset grid is
// sized from the image less its margins, rounding up so a partial last
// column or row still counts.
func Locate(ts *Tileset, gid uint32, tileWidth, tileHeight int) (image.Rectangle, error) {
	if !ts.Contains(gid) {
		return image.Rectangle{}, newGIDError(TileResolutionError, "locate", gid, errNoTileset)
	}

	pitchX, pitchY := tileWidth+ts.Spacing, tileHeight+ts.Spacing
	if pitchX <= 0 || pitchY <= 0 {
		return image.Rectangle{}, newGIDError(TileResolutionError, "locate", gid, errOutsideGrid)
	}

	// The margin surrounds the grid and the last tile has no trailing spacing
	columns := ceilDiv(ts.Width-2*ts.Margin+ts.Spacing, pitchX)
	rows := ceilDiv(ts.Height-2*ts.Margin+ts.Spacing, pitchY)
	if columns <= 0 || rows <= 0 {
		return image.Rectangle{}, newGIDError(TileResolutionError, "locate", gid, fmt.Errorf("%w: tileset %q is %dx%d", errOutsideGrid, ts.Name, ts.Width, ts.Height))
	}

	i := int(gid - ts.First)
	col, row := i%columns, i/columns
	if row >= rows {
		return image.Rectangle{}, newGIDError(TileResolutionError, "locate", gid, fmt.Errorf("%w: tileset %q", errOutsideGrid, ts.Name))
	}

	x := ts.Margin + col*pitchX
	y := ts.Margin + row*pitchY

	return image.Rect(x, y, x+pitchX, y+pitchY), nil
}

func newGIDError(kind Kind, op string, gid uint32, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		GID:  gid,
		Err:  err,
	}
}
