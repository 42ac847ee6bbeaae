package tilepack

import (
	"fmt"
	"strings"

	"github.com/bodgit/tilepack/tiled"
	"github.com/sirupsen/logrus"
)

// position returns the 1-based atlas position of gid. A used tile without a
// position means the map would be rewritten incorrectly, so it is a
// MissingMappingError rather than something to skip.
func (s *session) position(gid uint32) (int, error) {
	pos, ok := s.positions[gid]
	if !ok {
		return 0, newGIDError(MissingMappingError, "rewrite", gid, errNoMapping)
	}
	return pos, nil
}

// localID returns the zero-based ID of gid within the merged tileset.
func (s *session) localID(gid uint32) (int, error) {
	pos, err := s.position(gid)
	if err != nil {
		return 0, err
	}
	return pos - 1, nil
}

// rewrite returns a copy of the source map with every cell, animation and
// wangset pointing into the atlas and the source tilesets replaced by a
// single tileset. The source map is not modified and nothing is returned
// unless every reference could be remapped.
func (s *session) rewrite() (*tiled.Map, error) {
	m, err := s.m.Clone()
	if err != nil {
		return nil, newError(DataFormatError, "rewrite", err)
	}

	if err := m.Walk(func(l *tiled.Layer) error {
		if l.Data == nil {
			return nil
		}
		data := make([]tiled.GID, len(l.Data))
		for i, cell := range l.Data {
			if cell.ID() == 0 {
				data[i] = cell
				continue
			}
			pos, err := s.position(cell.ID())
			if err != nil {
				return err
			}
			data[i] = cell.WithID(uint32(pos))
		}
		l.Data = data
		return nil
	}); err != nil {
		return nil, err
	}

	var tiles []*tiled.Tile
	var wangsets []*tiled.Wangset

	for _, ts := range s.index.Tilesets.All() {
		for _, tile := range ts.Tiles {
			t, err := s.rewriteTile(ts, tile)
			if err != nil {
				return nil, err
			}
			if t != nil {
				tiles = append(tiles, t)
			}
		}
		for _, ws := range ts.Wangsets {
			w, err := s.rewriteWangset(ts, ws)
			if err != nil {
				return nil, err
			}
			wangsets = append(wangsets, w)
		}
	}

	m.Tilesets = []*tiled.Tileset{
		{
			Columns:          s.layout.Width / s.tileWidth,
			FirstGID:         1,
			Image:            s.opts.Name + ".png",
			ImageHeight:      s.layout.Height,
			ImageWidth:       s.layout.Width,
			Name:             strings.ToLower(s.opts.Name),
			TileCount:        s.layout.Capacity(),
			TileHeight:       s.tileHeight,
			TileWidth:        s.tileWidth,
			Tiles:            tiles,
			TransparentColor: s.opts.TransparentColor,
			Wangsets:         wangsets,
		},
	}

	return m, nil
}

// rewriteTile remaps the tile and its animation frames. Metadata for a tile
// that is not in the atlas, typically properties on a tile the map never
// uses, is dropped.
func (s *session) rewriteTile(ts *Tileset, tile *tiled.Tile) (*tiled.Tile, error) {
	gid := ts.gid(tile.ID)
	if _, ok := s.positions[gid]; !ok && tile.Animation == nil {
		s.logger.WithFields(logrus.Fields{
			"tileset": ts.Name,
			"tile":    tile.ID,
		}).Warn("Dropping metadata for a tile the map does not use")
		return nil, nil
	}

	t := tile.Copy()

	var err error
	if t.ID, err = s.localID(gid); err != nil {
		return nil, err
	}
	for i := range t.Animation {
		if t.Animation[i].TileID, err = s.localID(ts.gid(t.Animation[i].TileID)); err != nil {
			return nil, fmt.Errorf("animation of tile %d: %w", tile.ID, err)
		}
	}

	return t, nil
}

// rewriteWangset remaps the representative tile, the color tiles and the
// wang tiles of a wangset. A tile of -1 means none and is kept.
func (s *session) rewriteWangset(ts *Tileset, ws *tiled.Wangset) (*tiled.Wangset, error) {
	w := ws.Copy()

	remap := func(id *int) error {
		if *id < 0 {
			return nil
		}
		local, err := s.localID(ts.gid(*id))
		if err != nil {
			return fmt.Errorf("wangset %q: %w", ws.Name, err)
		}
		*id = local
		return nil
	}

	if err := remap(&w.Tile); err != nil {
		return nil, err
	}
	for _, colors := range w.Colors {
		for _, c := range colors {
			if err := remap(&c.Tile); err != nil {
				return nil, err
			}
		}
	}
	for _, wt := range w.WangTiles {
		if err := remap(&wt.TileID); err != nil {
			return nil, err
		}
	}

	return w, nil
}
