package tilepack

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

// Failure kinds
const (
	ConfigurationError Kind = iota + 1
	DataFormatError
	TileResolutionError
	MissingMappingError
	IOError
)

var kindNames = map[Kind]string{
	ConfigurationError:  "configuration error",
	DataFormatError:     "data format error",
	TileResolutionError: "tile resolution error",
	MissingMappingError: "missing mapping error",
	IOError:             "i/o error",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error records a failure along with the stage and, where relevant, the tile
// that caused it.
type Error struct {
	Kind Kind
	Op   string
	GID  uint32
	Err  error
}

func (e *Error) Error() string {
	s := "tilepack: " + e.Op
	if e.GID != 0 {
		s += fmt.Sprintf(" gid %d", e.GID)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MarshalText implements the encoding.TextMarshaler interface so errors can
// be reported as plain strings.
func (e *Error) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}

// IsKind reports whether any error in err's chain is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

var (
	errNoTileset   = errors.New("no tileset covers this tile")
	errOutsideGrid = errors.New("tile lies outside the tileset image grid")
	errNoTiles     = errors.New("map does not reference any tiles")
	errNoTileSize  = errors.New("map tile size must be positive")
	errNoImage     = errors.New("tileset has no embedded image")
	errNoMapping   = errors.New("tile has no position in the atlas")
	errBadColor    = errors.New("transparent color must be #rrggbb or #aarrggbb")
	errBadFactor   = errors.New("scale factor must be at least 1")
	errBadName     = errors.New("name must not contain a path separator")
	errBadWorkers  = errors.New("worker count must not be negative")
	errOverlap     = errors.New("tileset ranges overlap")
)
