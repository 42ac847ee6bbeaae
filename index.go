package tilepack

import (
	"fmt"
	"sort"

	"github.com/bodgit/tilepack/tiled"
)

// Tileset is everything a run needs to know about one source tileset. Its
// tiles cover the GIDs First up to but not including Last.
type Tileset struct {
	Name     string
	First    uint32
	Last     uint32
	Image    string
	Width    int
	Height   int
	Margin   int
	Spacing  int
	Tiles    []*tiled.Tile
	Wangsets []*tiled.Wangset
}

// Contains reports whether gid belongs to the tileset.
func (ts *Tileset) Contains(gid uint32) bool {
	return gid >= ts.First && gid < ts.Last
}

func (ts *Tileset) gid(id int) uint32 {
	return ts.First + uint32(id)
}

// Tilesets is an ordered collection of tileset records keyed by name.
type Tilesets struct {
	records []*Tileset
	byName  map[string]*Tileset
}

func (t *Tilesets) add(ts *Tileset) string {
	if t.byName == nil {
		t.byName = make(map[string]*Tileset)
	}
	key := ts.Name
	if _, ok := t.byName[key]; ok {
		key = fmt.Sprintf("%s@%d", ts.Name, ts.First)
	}
	t.byName[key] = ts
	t.records = append(t.records, ts)
	return key
}

// Len returns the number of tilesets.
func (t *Tilesets) Len() int {
	return len(t.records)
}

// All returns the tilesets in map order.
func (t *Tilesets) All() []*Tileset {
	return t.records
}

// Get returns the tileset stored under name.
func (t *Tilesets) Get(name string) (*Tileset, bool) {
	ts, ok := t.byName[name]
	return ts, ok
}

// Find returns the tileset owning gid, or nil.
func (t *Tilesets) Find(gid uint32) *Tileset {
	for _, ts := range t.records {
		if ts.Contains(gid) {
			return ts
		}
	}
	return nil
}

// Index is the deduplicated set of tiles a map uses.
type Index struct {
	// GIDs holds every distinct nonzero GID in ascending order.
	GIDs       []uint32
	Tilesets   Tilesets
	MaxSpacing int
}

// Len returns the number of distinct tiles.
func (idx *Index) Len() int {
	return len(idx.GIDs)
}

type gidSet map[uint32]struct{}

func (s gidSet) add(gid uint32) {
	if gid != 0 {
		s[gid] = struct{}{}
	}
}

// BuildIndex collects every tile referenced by a tile layer cell, by a tile
// animation, or by a wangset. A tile layer without a plain cell array is a
// DataFormatError, as is a tileset without an embedded image.
func BuildIndex(m *tiled.Map) (*Index, error) {
	used := make(gidSet)

	if err := m.Walk(func(l *tiled.Layer) error {
		if !l.IsTileLayer() && l.Data == nil {
			return nil
		}
		if err := l.CheckData(); err != nil {
			return newError(DataFormatError, "index", fmt.Errorf("layer %q: %w", l.Name, err))
		}
		for _, cell := range l.Data {
			used.add(cell.ID())
		}
		return nil
	}); err != nil {
		return nil, err
	}

	idx := new(Index)

	for _, ts := range m.Tilesets {
		name := ts.ImageName()
		if name == "" {
			return nil, newError(DataFormatError, "index", fmt.Errorf("tileset %q: %w", ts.Name, errNoImage))
		}

		record := &Tileset{
			Name:     ts.Name,
			First:    uint32(ts.FirstGID),
			Last:     uint32(ts.FirstGID + ts.TileCount),
			Image:    name,
			Width:    ts.ImageWidth,
			Height:   ts.ImageHeight,
			Margin:   ts.Margin,
			Spacing:  ts.Spacing,
			Tiles:    ts.Tiles,
			Wangsets: ts.Wangsets,
		}

		for _, other := range idx.Tilesets.All() {
			if record.First < other.Last && other.First < record.Last {
				return nil, newError(DataFormatError, "index", fmt.Errorf("%w: %q and %q", errOverlap, other.Name, record.Name))
			}
		}

		// Tiles only ever shown as an animation frame or used by a
		// terrain brush are never painted but still need a place in
		// the atlas
		for _, tile := range record.Tiles {
			if tile.Animation == nil {
				continue
			}
			used.add(record.gid(tile.ID))
			for _, frame := range tile.Animation {
				used.add(record.gid(frame.TileID))
			}
		}
		for _, ws := range record.Wangsets {
			if ws.Tile >= 0 {
				used.add(record.gid(ws.Tile))
			}
			for _, colors := range ws.Colors {
				for _, c := range colors {
					if c.Tile >= 0 {
						used.add(record.gid(c.Tile))
					}
				}
			}
			for _, wt := range ws.WangTiles {
				if wt.TileID >= 0 {
					used.add(record.gid(wt.TileID))
				}
			}
		}

		idx.Tilesets.add(record)
		if record.Spacing > idx.MaxSpacing {
			idx.MaxSpacing = record.Spacing
		}
	}

	idx.GIDs = make([]uint32, 0, len(used))
	for gid := range used {
		idx.GIDs = append(idx.GIDs, gid)
	}
	sort.Slice(idx.GIDs, func(i, j int) bool { return idx.GIDs[i] < idx.GIDs[j] })

	return idx, nil
}
