package cell

import "fmt"

// GridWidth is the fixed width of the playfield. Linear feed-key indices map
// onto it row by row.
const GridWidth = 256

type PowerupKind uint8

const (
	PowerupNone PowerupKind = iota
	PowerupMultiplier
)

func (k PowerupKind) String() string {
	switch k {
	case PowerupNone:
		return "none"
	case PowerupMultiplier:
		return "multiplier"
	default:
		return fmt.Sprintf("powerup(%d)", uint8(k))
	}
}

// Cell is the decoded mutable state of one grid location. Owner is the
// normalized identity fragment from the packed value, empty when the cell is
// unowned and available for a flip.
type Cell struct {
	X, Y         int
	Owner        string
	Powerup      PowerupKind
	PowerupValue uint8
	Team         uint8
}

func (c Cell) Unowned() bool { return c.Owner == "" }

// CoordsFromIndex maps a linear grid index to coordinates.
func CoordsFromIndex(i int) (x, y int) {
	return i / GridWidth, i % GridWidth
}
