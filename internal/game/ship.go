package game

import "fmt"

// ShipID identifies a ship within its board's registry.
type ShipID int

// NoShip marks an unoccupied cell or a failed placement.
const NoShip ShipID = -1

// Ship is a plain record; its hit count lives on the board.
type Ship struct {
	ID          ShipID      `json:"id"`
	Type        ShipType    `json:"type"`
	Orientation Orientation `json:"orientation"`
	Anchor      Coord       `json:"anchor"`
	Cells       []Coord     `json:"cells"`
}

func (s Ship) Length() int { return s.Type.Length() }

func (s Ship) String() string {
	return fmt.Sprintf("%s#%d at %s %s", s.Type, s.ID, s.Anchor, s.Orientation)
}
