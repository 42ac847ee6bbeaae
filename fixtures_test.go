package tilepack

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/bodgit/tilepack/tiled"
	"github.com/stretchr/testify/require"
)

const tileSize = 16

// tileColor is the color filling tile id of a fixture tileset.
func tileColor(id int) color.NRGBA {
	return color.NRGBA{R: uint8(id*10 + 5), G: uint8(255 - id), B: 0x80, A: 0xff}
}

// tilesetImage returns a columns by rows tileset image where every tile is
// filled with tileColor of its local ID.
func tilesetImage(columns, rows int) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, columns*tileSize, rows*tileSize))
	for y := 0; y < rows*tileSize; y++ {
		for x := 0; x < columns*tileSize; x++ {
			m.SetNRGBA(x, y, tileColor((y/tileSize)*columns+x/tileSize))
		}
	}
	return m
}

func encodePNG(t *testing.T, m image.Image) []byte {
	t.Helper()
	b := new(bytes.Buffer)
	require.NoError(t, png.Encode(b, m))
	return b.Bytes()
}

func decodePNG(t *testing.T, b []byte) *image.NRGBA {
	t.Helper()
	m, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	nrgba, ok := m.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(m.Bounds())
		for y := m.Bounds().Min.Y; y < m.Bounds().Max.Y; y++ {
			for x := m.Bounds().Min.X; x < m.Bounds().Max.X; x++ {
				nrgba.Set(x, y, m.At(x, y))
			}
		}
	}
	return nrgba
}

func decodeMap(t *testing.T, s string) *tiled.Map {
	t.Helper()
	m, err := tiled.Decode(strings.NewReader(s))
	require.NoError(t, err)
	return m
}

// scenarioMap uses tiles 1, 2, 5 and 7 of a single 4x4 tileset, plus an
// object group and a layer nested in a group.
const scenarioMap = `{
	"height": 2,
	"width": 3,
	"layers": [
		{"data": [0, 1, 2, 5, 2147483655, 0], "height": 2, "id": 1, "name": "ground", "type": "tilelayer", "width": 3},
		{"id": 2, "name": "decor", "type": "group", "layers": [
			{"data": [0, 0, 7, 0, 0, 1], "height": 2, "id": 3, "name": "props", "type": "tilelayer", "width": 3}
		]},
		{"id": 4, "name": "spawns", "objects": [{"id": 1, "x": 24, "y": 8}], "type": "objectgroup"}
	],
	"orientation": "orthogonal",
	"tileheight": 16,
	"tilewidth": 16,
	"tilesets": [
		{"columns": 4, "firstgid": 1, "image": "terrain.png", "imageheight": 64, "imagewidth": 64,
		 "margin": 0, "name": "terrain", "spacing": 0, "tilecount": 16, "tileheight": 16, "tilewidth": 16}
	],
	"type": "map"
}`

func scenarioSource(t *testing.T) MemorySource {
	return MemorySource{"terrain.png": encodePNG(t, tilesetImage(4, 4))}
}

// assertTile checks the tileSize square at x, y of m is filled with c.
func assertTile(t *testing.T, m *image.NRGBA, x, y int, c color.NRGBA) {
	t.Helper()
	for dy := 0; dy < tileSize; dy++ {
		for dx := 0; dx < tileSize; dx++ {
			if got := m.NRGBAAt(x+dx, y+dy); got != c {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x+dx, y+dy, got, c)
			}
		}
	}
}
