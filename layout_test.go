package tilepack

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanLayout(t *testing.T) {
	tables := []struct {
		name    string
		n       int
		spacing int
		layout  Layout
	}{
		{"empty", 0, 0, Layout{}},
		{"single", 1, 0, Layout{1, 1, 32, 16}},
		{"four", 4, 0, Layout{2, 2, 48, 32}},
		{"five", 5, 0, Layout{3, 2, 64, 32}},
		{"square", 9, 0, Layout{3, 3, 64, 48}},
		{"ten", 10, 0, Layout{4, 3, 80, 48}},
		{"spacing", 4, 2, Layout{2, 2, 54, 32}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			assert.Equal(t, table.layout, PlanLayout(table.n, tileSize, tileSize, table.spacing))
		})
	}
}

func TestLayoutCapacity(t *testing.T) {
	for n := 1; n <= 200; n++ {
		l := PlanLayout(n, 8, 8, 0)
		assert.GreaterOrEqual(t, l.Capacity(), n, "n=%d", n)
		assert.GreaterOrEqual(t, l.Columns*l.Columns, n, "n=%d", n)
		assert.Less(t, (l.Columns-1)*(l.Columns-1), n, "n=%d", n)
	}
}

func TestLayoutCells(t *testing.T) {
	l := PlanLayout(4, tileSize, tileSize, 0)

	cells := make([]image.Point, 4)
	positions := make([]int, 4)
	for i := range cells {
		col, row := l.Cell(i)
		cells[i] = image.Pt(col, row)
		positions[i] = l.Position(col, row)
	}

	// Rows wrap one column beyond Columns
	assert.Equal(t, []image.Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}}, cells)
	assert.Equal(t, []int{1, 2, 3, 4}, positions)

	for i := 0; i < 50; i++ {
		l := PlanLayout(50, tileSize, tileSize, 0)
		col, row := l.Cell(i)
		assert.Equal(t, i+1, l.Position(col, row))
		assert.LessOrEqual(t, (col+1)*tileSize, l.Width)
	}
}
