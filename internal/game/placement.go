package game

import "fmt"

// Rules are the tunable placement constraints.
type Rules struct {
	AllowAdjacentShips bool
}

// DefaultRules permits edge-adjacent ships.
func DefaultRules() Rules {
	return Rules{AllowAdjacentShips: true}
}

// Occupancy is the read side of a board the validator needs.
type Occupancy interface {
	Dimension() int
	ShipAt(c Coord) ShipID
	HasType(t ShipType) bool
}

// Footprint returns the cells a ship of type t covers when its bow sits at
// anchor. Cells may fall outside the grid; ValidatePlacement rejects those.
func Footprint(t ShipType, o Orientation, anchor Coord) []Coord {
	n := t.Length()
	cells := make([]Coord, 0, n)
	for i := 0; i < n; i++ {
		c := anchor
		if o == Vertical {
			c.Row += i
		} else {
			c.Col += i
		}
		cells = append(cells, c)
	}
	return cells
}

// ValidatePlacement checks a proposed footprint against the current occupancy.
// It is a pure function and never mutates occ.
func ValidatePlacement(occ Occupancy, t ShipType, cells []Coord, rules Rules) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: type %d", ErrInvalidShip, t)
	}
	if len(cells) != t.Length() {
		return fmt.Errorf("%w: %s needs %d cells, got %d", ErrInvalidShip, t, t.Length(), len(cells))
	}
	if occ.HasType(t) {
		return fmt.Errorf("%w: %s", ErrDuplicateShipType, t)
	}
	n := occ.Dimension()
	for _, c := range cells {
		if !c.In(n) {
			return fmt.Errorf("%w: %s cell %s on %dx%d board", ErrOutOfBounds, t, c, n, n)
		}
	}
	for _, c := range cells {
		if id := occ.ShipAt(c); id != NoShip {
			return fmt.Errorf("%w: %s cell %s holds ship #%d", ErrOverlap, t, c, id)
		}
	}
	if rules.AllowAdjacentShips {
		return nil
	}
	for _, c := range cells {
		for _, nb := range c.neighbours() {
			if !nb.In(n) {
				continue
			}
			if id := occ.ShipAt(nb); id != NoShip {
				return fmt.Errorf("%w: %s cell %s touches ship #%d", ErrAdjacentShips, t, c, id)
			}
		}
	}
	return nil
}
