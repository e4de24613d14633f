package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

const (
	fleetAttempts = 50
	shipTries     = 500
)

// PlaceRandomly fills the board with every fleet type not yet placed, using
// the same validation as manual placement. Ships already on the board stay.
// A layout that paints itself into a corner is discarded and retried; on
// final failure the board is left as it was.
func PlaceRandomly(b *Board, rng *rand.Rand) error {
	if b.Locked() {
		return fmt.Errorf("%w: %s fleet is locked", ErrInvalidTurn, b.Owner())
	}
	for attempt := 0; attempt < fleetAttempts; attempt++ {
		placed, ok := tryFleet(b, rng)
		if ok {
			return nil
		}
		for _, id := range placed {
			if err := b.RemoveShip(id); err != nil {
				panic(fmt.Sprintf("game: rollback of ship #%d: %v", id, err))
			}
		}
	}
	return errors.New("place " + b.Owner().String() + " fleet: no legal layout found")
}

func tryFleet(b *Board, rng *rand.Rand) ([]ShipID, bool) {
	var placed []ShipID
	for _, t := range Fleet {
		if b.HasType(t) {
			continue
		}
		id := NoShip
		for i := 0; i < shipTries && id == NoShip; i++ {
			o := Horizontal
			if rng.IntN(2) == 0 {
				o = Vertical
			}
			id, _ = b.PlaceShip(t, o, rng.IntN(b.dim), rng.IntN(b.dim))
		}
		if id == NoShip {
			return placed, false
		}
		placed = append(placed, id)
	}
	return placed, true
}
