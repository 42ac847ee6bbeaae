package tiled

// Flag bits stored in the upper bits of a cell by Tiled.
const (
	FlippedHorizontally uint32 = 0x80000000
	FlippedVertically   uint32 = 0x40000000
	FlippedDiagonally   uint32 = 0x20000000
	RotatedHexagonal120 uint32 = 0x10000000

	flagMask = FlippedHorizontally | FlippedVertically | FlippedDiagonally | RotatedHexagonal120
)

// GID is a global tile ID as stored in a layer cell, including any flip
// flags. The zero GID is an empty cell.
type GID uint32

// ID returns the tile ID with the flip flags masked off.
func (g GID) ID() uint32 {
	return uint32(g) &^ flagMask
}

// Flags returns only the flip flags.
func (g GID) Flags() uint32 {
	return uint32(g) & flagMask
}

// WithID returns a GID pointing at id that keeps the flags of g.
func (g GID) WithID(id uint32) GID {
	return GID(id&^flagMask | g.Flags())
}
