package tiled

import (
	"encoding/json"
	"fmt"
)

// Layer types
const (
	TileLayer   = "tilelayer"
	ObjectGroup = "objectgroup"
	ImageLayer  = "imagelayer"
	GroupLayer  = "group"
)

// Map is a decoded Tiled map.
type Map struct {
	TileWidth  int
	TileHeight int
	Layers     []*Layer
	Tilesets   []*Tileset

	fields fields
}

// Layer is a single layer of a map. Group layers hold their children in
// Layers, tile layers their cells in Data.
type Layer struct {
	Name   string
	Type   string
	Data   []GID
	Layers []*Layer

	hasData bool
	badData bool
	fields  fields
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (m *Map) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	m.fields = f

	if _, err := f.get("tilewidth", &m.TileWidth); err != nil {
		return fmt.Errorf("tiled: tilewidth: %w", err)
	}
	if _, err := f.get("tileheight", &m.TileHeight); err != nil {
		return fmt.Errorf("tiled: tileheight: %w", err)
	}
	if _, err := f.get("layers", &m.Layers); err != nil {
		return fmt.Errorf("tiled: layers: %w", err)
	}
	if _, err := f.get("tilesets", &m.Tilesets); err != nil {
		return fmt.Errorf("tiled: tilesets: %w", err)
	}

	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (m *Map) MarshalJSON() ([]byte, error) {
	f := m.fields.clone()
	if f == nil {
		f = make(fields)
	}

	if err := f.set("tilewidth", m.TileWidth); err != nil {
		return nil, err
	}
	if err := f.set("tileheight", m.TileHeight); err != nil {
		return nil, err
	}
	layers := m.Layers
	if layers == nil {
		layers = []*Layer{}
	}
	if err := f.set("layers", layers); err != nil {
		return nil, err
	}
	tilesets := m.Tilesets
	if tilesets == nil {
		tilesets = []*Tileset{}
	}
	if err := f.set("tilesets", tilesets); err != nil {
		return nil, err
	}

	return json.Marshal(f)
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() (*Map, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	dup := new(Map)
	if err := json.Unmarshal(b, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// Walk calls fn for every layer in depth-first order, descending into group
// layers after visiting the group itself.
func (m *Map) Walk(fn func(*Layer) error) error {
	return walk(m.Layers, fn)
}

func walk(layers []*Layer, fn func(*Layer) error) error {
	for _, l := range layers {
		if err := fn(l); err != nil {
			return err
		}
		if err := walk(l.Layers, fn); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (l *Layer) UnmarshalJSON(b []byte) error {
	f, err := decodeFields(b)
	if err != nil {
		return err
	}
	l.fields = f

	if _, err := f.get("name", &l.Name); err != nil {
		return fmt.Errorf("tiled: layer name: %w", err)
	}
	if _, err := f.get("type", &l.Type); err != nil {
		return fmt.Errorf("tiled: layer type: %w", err)
	}
	if _, err := f.get("layers", &l.Layers); err != nil {
		return fmt.Errorf("tiled: layer %q: %w", l.Name, err)
	}

	// Base64 or compressed data arrives as a string, which is kept as is
	ok, err := f.get("data", &l.Data)
	l.hasData = ok
	l.badData = err != nil
	if l.badData {
		l.Data = nil
	}

	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (l *Layer) MarshalJSON() ([]byte, error) {
	f := l.fields.clone()
	if f == nil {
		f = make(fields)
	}

	if l.Data != nil {
		if err := f.set("data", l.Data); err != nil {
			return nil, err
		}
	}
	if l.Layers != nil {
		if err := f.set("layers", l.Layers); err != nil {
			return nil, err
		}
	}

	return json.Marshal(f)
}

// IsTileLayer reports whether the layer is a grid of tile cells.
func (l *Layer) IsTileLayer() bool {
	return l.Type == TileLayer
}

// CheckData returns an error if a tile layer carries no cell array that can
// be rewritten in place.
func (l *Layer) CheckData() error {
	switch {
	case l.badData:
		return errEncodedData
	case !l.hasData && l.Data == nil:
		return errNoData
	}
	return nil
}
