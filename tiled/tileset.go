package tiled

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Tileset is an embedded tileset of a map. Fields are declared in sorted
// key order so an encoded tileset matches the layout Tiled produces.
type Tileset struct {
	Columns          int        `json:"columns"`
	FirstGID         int        `json:"firstgid"`
	Image            string     `json:"image,omitempty"`
	ImageHeight      int        `json:"imageheight"`
	ImageWidth       int        `json:"imagewidth"`
	Margin           int        `json:"margin"`
	Name             string     `json:"name"`
	Source           string     `json:"source,omitempty"`
	Spacing          int        `json:"spacing"`
	TileCount        int        `json:"tilecount"`
	TileHeight       int        `json:"tileheight"`
	TileWidth        int        `json:"tilewidth"`
	Tiles            []*Tile    `json:"tiles,omitempty"`
	TransparentColor string     `json:"transparentcolor,omitempty"`
	Wangsets         []*Wangset `json:"wangsets,omitempty"`
}

// ImageName returns the base name of the tileset image, regardless of the
// path separator the editor used.
func (ts *Tileset) ImageName() string {
	name := path.Base(strings.ReplaceAll(ts.Image, "\\", "/"))
	switch name {
	case ".", "/":
		return ""
	}
	return name
}

// Tile is the per-tile metadata of a tileset. ID is local to the tileset.
type Tile struct {
	ID        int
	Animation []Frame

	fields fields
}

// Frame is a single step of a tile animation.
type Frame struct {
	Duration int `json:"duration"`
	TileID   int `json:"tileid"`
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *Tile) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	t.fields = f

	if _, err := f.get("id", &t.ID); err != nil {
		return fmt.Errorf("tiled: tile id: %w", err)
	}
	if _, err := f.get("animation", &t.Animation); err != nil {
		return fmt.Errorf("tiled: tile %d animation: %w", t.ID, err)
	}

	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (t *Tile) MarshalJSON() ([]byte, error) {
	f := t.fields.clone()
	if f == nil {
		f = make(fields)
	}
	if err := f.set("id", t.ID); err != nil {
		return nil, err
	}
	var animation interface{}
	if t.Animation != nil {
		animation = t.Animation
	}
	if err := f.set("animation", animation); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// Wangset is a terrain definition. A Tile of -1 means the wangset has no
// representative tile.
type Wangset struct {
	Name      string
	Tile      int
	Colors    map[string][]*WangColor
	WangTiles []*WangTile

	fields fields
}

// Keys holding wang colors; Tiled 1.5 uses "colors", earlier releases split
// them into corner and edge colors.
var wangColorKeys = []string{"colors", "cornercolors", "edgecolors"}

// WangColor is a terrain color, optionally with a representative tile.
type WangColor struct {
	Tile int

	fields fields
}

// WangTile assigns a wang ID to a tile. The wang ID and any flip markers are
// carried through untouched.
type WangTile struct {
	TileID int

	fields fields
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (w *Wangset) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	w.fields = f

	if _, err := f.get("name", &w.Name); err != nil {
		return fmt.Errorf("tiled: wangset name: %w", err)
	}
	w.Tile = -1
	if _, err := f.get("tile", &w.Tile); err != nil {
		return fmt.Errorf("tiled: wangset %q tile: %w", w.Name, err)
	}
	for _, key := range wangColorKeys {
		var colors []*WangColor
		ok, err := f.get(key, &colors)
		if err != nil {
			return fmt.Errorf("tiled: wangset %q %s: %w", w.Name, key, err)
		}
		if ok {
			if w.Colors == nil {
				w.Colors = make(map[string][]*WangColor)
			}
			w.Colors[key] = colors
		}
	}
	if _, err := f.get("wangtiles", &w.WangTiles); err != nil {
		return fmt.Errorf("tiled: wangset %q wangtiles: %w", w.Name, err)
	}

	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (w *Wangset) MarshalJSON() ([]byte, error) {
	f := w.fields.clone()
	if f == nil {
		f = make(fields)
	}
	if err := f.set("tile", w.Tile); err != nil {
		return nil, err
	}
	for key, colors := range w.Colors {
		if err := f.set(key, colors); err != nil {
			return nil, err
		}
	}
	if w.WangTiles != nil {
		if err := f.set("wangtiles", w.WangTiles); err != nil {
			return nil, err
		}
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (c *WangColor) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	c.fields = f
	c.Tile = -1
	if _, err := f.get("tile", &c.Tile); err != nil {
		return fmt.Errorf("tiled: wang color tile: %w", err)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (c *WangColor) MarshalJSON() ([]byte, error) {
	f := c.fields.clone()
	if f == nil {
		f = make(fields)
	}
	if err := f.set("tile", c.Tile); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (t *WangTile) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	t.fields = f
	if _, err := f.get("tileid", &t.TileID); err != nil {
		return fmt.Errorf("tiled: wang tile id: %w", err)
	}
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (t *WangTile) MarshalJSON() ([]byte, error) {
	f := t.fields.clone()
	if f == nil {
		f = make(fields)
	}
	if err := f.set("tileid", t.TileID); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// Copy returns a deep copy of the tile.
func (t *Tile) Copy() *Tile {
	dup := &Tile{
		ID:     t.ID,
		fields: t.fields.clone(),
	}
	if t.Animation != nil {
		dup.Animation = append([]Frame(nil), t.Animation...)
	}
	return dup
}

// Copy returns a deep copy of the wangset.
func (w *Wangset) Copy() *Wangset {
	dup := &Wangset{
		Name:   w.Name,
		Tile:   w.Tile,
		fields: w.fields.clone(),
	}
	if w.Colors != nil {
		dup.Colors = make(map[string][]*WangColor, len(w.Colors))
		for key, colors := range w.Colors {
			c := make([]*WangColor, len(colors))
			for i, color := range colors {
				c[i] = &WangColor{Tile: color.Tile, fields: color.fields.clone()}
			}
			dup.Colors[key] = c
		}
	}
	if w.WangTiles != nil {
		dup.WangTiles = make([]*WangTile, len(w.WangTiles))
		for i, t := range w.WangTiles {
			dup.WangTiles[i] = &WangTile{TileID: t.TileID, fields: t.fields.clone()}
		}
	}
	return dup
}
