package tilepack

import (
	"image"
	"math"
)

// Layout describes the atlas grid. Every row has room for Columns+1 cells:
// the atlas is one tile pitch wider than Columns tiles and the cursor only
// wraps after filling that extra column.
type Layout struct {
	Columns int
	Rows    int
	Width   int
	Height  int
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// PlanLayout sizes an atlas holding n tiles of tileWidth by tileHeight
// pixels separated by spacing pixels.
func PlanLayout(n, tileWidth, tileHeight, spacing int) Layout {
	if n <= 0 {
		return Layout{}
	}

	columns := int(math.Ceil(math.Sqrt(float64(n))))
	// Guard against floating point error either side of a perfect square
	for columns*columns < n {
		columns++
	}
	for columns > 1 && (columns-1)*(columns-1) >= n {
		columns--
	}

	rows := ceilDiv(n, columns)

	return Layout{
		Columns: columns,
		Rows:    rows,
		Width:   columns*(tileWidth+spacing) + (tileWidth + spacing),
		Height:  rows * tileHeight,
	}
}

// Capacity returns the number of tiles the merged tileset declares.
func (l Layout) Capacity() int {
	return l.Rows * l.Columns
}

// Bounds returns the atlas bounds.
func (l Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}

// Cell returns the column and row the i'th tile, counting from zero, is
// placed at.
func (l Layout) Cell(i int) (int, int) {
	stride := l.Columns + 1
	return i % stride, i / stride
}

// Position returns the 1-based atlas position of the cell at col, row.
func (l Layout) Position(col, row int) int {
	return (l.Columns+1)*row + col + 1
}
