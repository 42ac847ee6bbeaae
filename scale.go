package tilepack

import (
	"image"

	"github.com/bodgit/tilepack/tiled"
	"golang.org/x/image/draw"
)

// ScaleImage returns m enlarged by factor using nearest neighbour sampling
// so every output pixel is a copy of exactly one input pixel.
func ScaleImage(m image.Image, factor int) *image.NRGBA {
	b := m.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

// ScaleMap returns a copy of a rewritten map whose tile and image sizes are
// multiplied by factor and whose tileset points at the image name. Cell data is
// unchanged. Only tile layers, and groups still holding some, are kept as
// other layers are positioned in pixels.
func ScaleMap(m *tiled.Map, factor int, name string) (*tiled.Map, error) {
	dup, err := m.Clone()
	if err != nil {
		return nil, err
	}

	dup.Layers = gridLayers(dup.Layers)
	dup.TileWidth *= factor
	dup.TileHeight *= factor

	for _, ts := range dup.Tilesets {
		ts.Image = name
		ts.ImageWidth *= factor
		ts.ImageHeight *= factor
		ts.TileWidth *= factor
		ts.TileHeight *= factor
	}

	return dup, nil
}

func gridLayers(layers []*tiled.Layer) []*tiled.Layer {
	kept := []*tiled.Layer{}
	for _, l := range layers {
		switch {
		case l.IsTileLayer():
			kept = append(kept, l)
		case l.Type == tiled.GroupLayer:
			if l.Layers = gridLayers(l.Layers); len(l.Layers) > 0 {
				kept = append(kept, l)
			}
		}
	}
	return kept
}
