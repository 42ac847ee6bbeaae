/*
Package tiled implements a decoder and encoder for maps exported by the Tiled
map editor in its JSON format.

Only the fields needed to find and rewrite tile references are decoded into
Go types. Every other field of a map, layer, tile or wangset is carried
through untouched so that a decoded map can be encoded again without losing
anything the editor wrote. Keys are written in sorted order, which is the
order Tiled itself uses.
*/
package tiled

import (
	"encoding/json"
	"errors"
)

var (
	errNoData      = errors.New("tiled: tile layer has no data")
	errEncodedData = errors.New("tiled: tile layer data is not a plain array")
)

// fields holds the raw JSON members of an object keyed by name.
type fields map[string]json.RawMessage

func (f fields) get(key string, v interface{}) (bool, error) {
	raw, ok := f[key]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, err
	}
	return true, nil
}

// set stores v under key, or removes key when v is nil.
func (f fields) set(key string, v interface{}) error {
	if v == nil {
		delete(f, key)
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f[key] = b
	return nil
}

func (f fields) clone() fields {
	dup := make(fields, len(f))
	for k, v := range f {
		dup[k] = v
	}
	return dup
}

func decodeFields(b []byte) (fields, error) {
	f := make(fields)
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return f, nil
}
