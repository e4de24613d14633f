package game

import (
	"fmt"
	"slices"
)

type cell struct {
	state CellState
	ship  ShipID
}

// Board is one player's ocean: the authoritative cell grid plus the registry
// of ships placed on it. Ships are stored by id; cells reference them by id.
type Board struct {
	owner  Player
	dim    int
	rules  Rules
	cells  []cell
	ships  map[ShipID]*Ship
	nextID ShipID
	sunk   int
	locked bool

	// allSunk is sticky once set.
	allSunk bool
}

// NewBoard returns an empty n×n board owned by owner.
func NewBoard(owner Player, n int, rules Rules) *Board {
	b := &Board{
		owner: owner,
		dim:   n,
		rules: rules,
		cells: make([]cell, n*n),
		ships: make(map[ShipID]*Ship),
	}
	for i := range b.cells {
		b.cells[i] = cell{state: Ocean, ship: NoShip}
	}
	return b
}

func (b *Board) Owner() Player { return b.owner }
func (b *Board) Dimension() int { return b.dim }
func (b *Board) ShipsPlaced() int { return len(b.ships) }
func (b *Board) ShipsSunk() int { return b.sunk }
func (b *Board) AllSunk() bool { return b.allSunk }
func (b *Board) Locked() bool { return b.locked }
func (b *Board) FleetComplete() bool { return len(b.ships) == FleetSize }

func (b *Board) at(c Coord) *cell { return &b.cells[c.Row*b.dim+c.Col] }

// ShipAt returns the id of the ship covering c, or NoShip.
func (b *Board) ShipAt(c Coord) ShipID {
	if !c.In(b.dim) {
		return NoShip
	}
	return b.at(c).ship
}

// HasType reports whether a ship of type t is already on the board.
func (b *Board) HasType(t ShipType) bool {
	for _, s := range b.ships {
		if s.Type == t {
			return true
		}
	}
	return false
}

// Lock freezes the fleet. Placement and removal fail afterwards and attacks
// become legal.
func (b *Board) Lock() { b.locked = true }

// PlaceShip validates and commits a ship. On failure it returns NoShip and the
// board is unchanged.
func (b *Board) PlaceShip(t ShipType, o Orientation, row, col int) (ShipID, error) {
	if b.locked {
		return NoShip, fmt.Errorf("%w: %s fleet is locked", ErrInvalidTurn, b.owner)
	}
	if !o.IsValid() {
		return NoShip, fmt.Errorf("%w: orientation %d", ErrInvalidShip, o)
	}
	anchor := Coord{Row: row, Col: col}
	cells := Footprint(t, o, anchor)
	if err := ValidatePlacement(b, t, cells, b.rules); err != nil {
		return NoShip, err
	}

	id := b.nextID
	b.nextID++
	b.ships[id] = &Ship{ID: id, Type: t, Orientation: o, Anchor: anchor, Cells: cells}
	for _, c := range cells {
		*b.at(c) = cell{state: ShipIntact, ship: id}
	}
	return id, nil
}

// RemoveShip takes a ship back off the board during setup.
func (b *Board) RemoveShip(id ShipID) error {
	if b.locked {
		return fmt.Errorf("%w: %s fleet is locked", ErrInvalidTurn, b.owner)
	}
	s, ok := b.ships[id]
	if !ok {
		return fmt.Errorf("%w: #%d", ErrUnknownShipID, id)
	}
	for _, c := range s.Cells {
		*b.at(c) = cell{state: Ocean, ship: NoShip}
	}
	delete(b.ships, id)
	return nil
}

// Ship returns a copy of the registered ship.
func (b *Board) Ship(id ShipID) (Ship, error) {
	s, ok := b.ships[id]
	if !ok {
		return Ship{}, fmt.Errorf("%w: #%d", ErrUnknownShipID, id)
	}
	cp := *s
	cp.Cells = slices.Clone(s.Cells)
	return cp, nil
}

// Ships returns copies of every ship ordered by id.
func (b *Board) Ships() []Ship {
	out := make([]Ship, 0, len(b.ships))
	for id := range b.ships {
		s, _ := b.Ship(id)
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, c Ship) int { return int(a.ID - c.ID) })
	return out
}

// Hits returns how many cells of the ship have been struck.
func (b *Board) Hits(id ShipID) (int, error) {
	s, ok := b.ships[id]
	if !ok {
		return 0, fmt.Errorf("%w: #%d", ErrUnknownShipID, id)
	}
	return b.hitCount(s), nil
}

func (b *Board) hitCount(s *Ship) int {
	n := 0
	for _, c := range s.Cells {
		if st := b.at(c).state; st == Attacked || st == ShipSunk {
			n++
		}
	}
	return n
}

// IsSunk reports whether every cell of the ship has been struck.
func (b *Board) IsSunk(id ShipID) (bool, error) {
	s, ok := b.ships[id]
	if !ok {
		return false, fmt.Errorf("%w: #%d", ErrUnknownShipID, id)
	}
	return b.hitCount(s) == s.Length(), nil
}

// State returns the raw state of a cell.
func (b *Board) State(c Coord) (CellState, error) {
	if !c.In(b.dim) {
		return Ocean, fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}
	return b.at(c).state, nil
}

// View projects the grid for a viewer. Anyone but the owner sees unattacked
// ship cells as Ocean.
func (b *Board) View(viewerIsOwner bool) [][]CellState {
	out := make([][]CellState, b.dim)
	for r := range out {
		row := make([]CellState, b.dim)
		for c := range row {
			s := b.cells[r*b.dim+c].state
			if s == ShipIntact && !viewerIsOwner {
				s = Ocean
			}
			row[c] = s
		}
		out[r] = row
	}
	return out
}

// Flatten returns the occupancy bits row-major: 1 for a ship cell, 0 for water.
func (b *Board) Flatten() []uint8 {
	out := make([]uint8, len(b.cells))
	for i, c := range b.cells {
		if c.ship != NoShip {
			out[i] = 1
		}
	}
	return out
}
