package game

import "fmt"

// DefaultDimension is the side length of a standard board.
const DefaultDimension = 10

// CellState is what a single board cell holds.
type CellState uint8

const (
	Ocean      CellState = iota // untouched water, or unknown to the viewer
	ShipIntact                  // occupied and not attacked; owner-only
	Attacked                    // occupied, hit, ship still afloat
	ShipSunk                    // belongs to a fully sunk ship
	Miss                        // attacked water
)

func (s CellState) String() string {
	switch s {
	case Ocean:
		return "Ocean"
	case ShipIntact:
		return "ShipIntact"
	case Attacked:
		return "Attacked"
	case ShipSunk:
		return "ShipSunk"
	case Miss:
		return "Miss"
	default:
		return "Unknown"
	}
}

// WasAttacked reports whether a shot already landed on a cell in this state.
func (s CellState) WasAttacked() bool {
	return s == Attacked || s == ShipSunk || s == Miss
}

// ShipType is one of the five canonical ships.
type ShipType uint8

const (
	Destroyer ShipType = iota
	Submarine
	Cruiser
	Battleship
	Carrier
)

// Fleet lists every ship type a board must hold before the game starts.
var Fleet = []ShipType{Carrier, Battleship, Cruiser, Submarine, Destroyer}

// ShipLengths is the canonical ship-length table.
var ShipLengths = map[ShipType]int{
	Destroyer:  2,
	Submarine:  3,
	Cruiser:    3,
	Battleship: 4,
	Carrier:    5,
}

// FleetSize is the number of ships each side places.
const FleetSize = 5

func (t ShipType) String() string {
	switch t {
	case Destroyer:
		return "Destroyer"
	case Submarine:
		return "Submarine"
	case Cruiser:
		return "Cruiser"
	case Battleship:
		return "Battleship"
	case Carrier:
		return "Carrier"
	default:
		return "Unknown"
	}
}

func (t ShipType) IsValid() bool {
	return t <= Carrier
}

// Length returns the number of cells the ship occupies, 0 for an invalid type.
func (t ShipType) Length() int {
	return ShipLengths[t]
}

// ParseShipType accepts the case-sensitive ship name as returned by String.
func ParseShipType(s string) (ShipType, error) {
	for _, t := range Fleet {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown ship type %q", ErrInvalidShip, s)
}

// Orientation is the direction a ship extends from its bow.
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "Horizontal"
	case Vertical:
		return "Vertical"
	default:
		return "Unknown"
	}
}

func (o Orientation) IsValid() bool {
	return o == Horizontal || o == Vertical
}

// ParseOrientation accepts "Horizontal"/"Vertical" and the short forms "h"/"v".
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "Horizontal", "horizontal", "h", "H":
		return Horizontal, nil
	case "Vertical", "vertical", "v", "V":
		return Vertical, nil
	}
	return 0, fmt.Errorf("%w: unknown orientation %q", ErrInvalidShip, s)
}

// Player identifies a side and the board it owns.
type Player uint8

const (
	Human Player = iota
	Computer
)

func (p Player) String() string {
	switch p {
	case Human:
		return "Human"
	case Computer:
		return "Computer"
	default:
		return "Unknown"
	}
}

// Opponent returns the other side.
func (p Player) Opponent() Player {
	if p == Human {
		return Computer
	}
	return Human
}

func ParsePlayer(s string) (Player, error) {
	switch s {
	case "Human", "human":
		return Human, nil
	case "Computer", "computer", "ai":
		return Computer, nil
	}
	return 0, fmt.Errorf("unknown player %q", s)
}

// Stage is the coarse phase of the game.
type Stage uint8

const (
	StageSetup Stage = iota
	StageLoop
	StageResolution
)

func (s Stage) String() string {
	switch s {
	case StageSetup:
		return "Setup"
	case StageLoop:
		return "Loop"
	case StageResolution:
		return "Resolution"
	default:
		return "Unknown"
	}
}

// State is the fine-grained turn or outcome marker.
type State uint8

const (
	StateSetup State = iota
	StateHumanAttack
	StateAiAttack
	StateHumanWon
	StateAiWon
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "Setup"
	case StateHumanAttack:
		return "HumanAttack"
	case StateAiAttack:
		return "AiAttack"
	case StateHumanWon:
		return "HumanWon"
	case StateAiWon:
		return "AiWon"
	default:
		return "Unknown"
	}
}

// Stage derives the coarse phase a state belongs to.
func (s State) Stage() Stage {
	switch s {
	case StateSetup:
		return StageSetup
	case StateHumanAttack, StateAiAttack:
		return StageLoop
	default:
		return StageResolution
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateHumanWon || s == StateAiWon
}

// Coord addresses a cell by row and column, both zero based.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// In reports whether c lies on an n×n grid.
func (c Coord) In(n int) bool {
	return c.Row >= 0 && c.Row < n && c.Col >= 0 && c.Col < n
}

// neighbours returns the four edge-adjacent coordinates, possibly off-grid.
func (c Coord) neighbours() [4]Coord {
	return [4]Coord{
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
		{Row: c.Row, Col: c.Col + 1},
	}
}
