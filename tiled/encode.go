package tiled

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
)

const indent = "    "

// Matches a "data" member holding a plain array of cells, which the indented
// encoder spreads over one line per cell.
var dataArray = regexp.MustCompile(`"data": \[([0-9,\s]*)\]`)

var whitespace = regexp.MustCompile(`\s+`)

// Decode reads a Tiled JSON map from r.
func Decode(r io.Reader) (*Map, error) {
	m := new(Map)
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Marshal returns the indented JSON encoding of v with every layer "data"
// array collapsed onto a single line, the way map editors expect to find it.
func Marshal(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return dataArray.ReplaceAllFunc(b.Bytes(), func(match []byte) []byte {
		prefix := len(`"data": `)
		return append(match[:prefix:prefix], whitespace.ReplaceAll(match[prefix:], nil)...)
	}), nil
}
