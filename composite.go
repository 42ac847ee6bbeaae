package tilepack

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// composite is a single extracted tile waiting to be drawn at dst.
type composite struct {
	tile *image.NRGBA
	dst  image.Point
}

// loadImages decodes the image of every tileset that owns at least one used
// tile. An image that cannot be found or decoded is a ConfigurationError.
func (s *session) loadImages() error {
	s.images = make(map[*Tileset]image.Image)
	for _, gid := range s.index.GIDs {
		ts := s.index.Tilesets.Find(gid)
		if ts == nil {
			continue
		}
		if _, ok := s.images[ts]; ok {
			continue
		}

		m, err := s.decode(ts.Image)
		if err != nil {
			return newError(ConfigurationError, "load image", fmt.Errorf("tileset %q: %w", ts.Name, err))
		}

		if b := m.Bounds(); b.Dx() != ts.Width || b.Dy() != ts.Height {
			s.logger.WithFields(logrus.Fields{
				"tileset": ts.Name,
				"image":   ts.Image,
			}).Warnf("Image is %dx%d, tileset declares %dx%d", b.Dx(), b.Dy(), ts.Width, ts.Height)
		}

		s.images[ts] = m
	}
	return nil
}

func (s *session) decode(name string) (image.Image, error) {
	rc, err := s.source.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	m, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// extract cuts every used tile out of its tileset image. Tiles are
// processed concurrently; each one's atlas cell and position depend only on
// its place in the index. A tile that cannot be resolved keeps its position
// but its cell stays empty and a TileResolutionError is recorded.
func (s *session) extract(ctx context.Context) error {
	n := s.index.Len()

	s.positions = make(map[uint32]int, n)
	for i, gid := range s.index.GIDs {
		s.positions[gid] = s.layout.Position(s.layout.Cell(i))
	}

	s.composites = make([]composite, n)
	errs := make([]*Error, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i, gid := range s.index.GIDs {
		i, gid := i, gid
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.composites[i], errs[i] = s.extractTile(i, gid)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return newError(IOError, "extract", err)
	}

	for _, err := range errs {
		if err == nil {
			continue
		}
		s.logger.WithField("gid", err.GID).Warn(err.Err)
		s.diagnostics = append(s.diagnostics, err)
	}

	return nil
}

func (s *session) extractTile(i int, gid uint32) (composite, *Error) {
	ts := s.index.Tilesets.Find(gid)
	if ts == nil {
		return composite{}, newGIDError(TileResolutionError, "extract", gid, errNoTileset)
	}

	r, err := Locate(ts, gid, s.tileWidth, s.tileHeight)
	if err != nil {
		return composite{}, err.(*Error)
	}

	src := s.images[ts]
	r = r.Add(src.Bounds().Min)
	clipped := r.Intersect(src.Bounds())
	if clipped.Empty() {
		return composite{}, newGIDError(TileResolutionError, "extract", gid, fmt.Errorf("%w: tileset %q", errOutsideGrid, ts.Name))
	}

	tile := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	blit(tile, clipped.Sub(r.Min), src, clipped.Min)

	col, row := s.layout.Cell(i)

	return composite{
		tile: tile,
		dst:  image.Pt(col*(s.tileWidth+ts.Spacing), row*(s.tileHeight+ts.Spacing)),
	}, nil
}

// compose draws every extracted tile onto a fresh atlas in index order.
func (s *session) compose() *image.NRGBA {
	atlas := image.NewNRGBA(s.layout.Bounds())
	for _, c := range s.composites {
		if c.tile == nil {
			continue
		}
		blit(atlas, c.tile.Rect.Add(c.dst), c.tile, c.tile.Rect.Min)
	}
	return atlas
}

// blit copies the pixels of src starting at sp into r of dst, clipped to
// both images. NRGBA sources are copied byte for byte.
func blit(dst *image.NRGBA, r image.Rectangle, src image.Image, sp image.Point) {
	orig := r.Min
	r = r.Intersect(dst.Rect)
	sp = sp.Add(r.Min.Sub(orig))

	sr := image.Rectangle{Min: sp, Max: sp.Add(r.Size())}.Intersect(src.Bounds())
	r.Min = r.Min.Add(sr.Min.Sub(sp))
	r.Max = r.Min.Add(sr.Size())
	sp = sr.Min

	if r.Empty() {
		return
	}

	s, ok := src.(*image.NRGBA)
	if !ok {
		draw.Draw(dst, r, src, sp, draw.Src)
		return
	}

	n := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		di := dst.PixOffset(r.Min.X, r.Min.Y+y)
		si := s.PixOffset(sp.X, sp.Y+y)
		copy(dst.Pix[di:di+n], s.Pix[si:si+n])
	}
}
