package game

import "fmt"

// Outcome is the result of a resolved shot.
type Outcome uint8

const (
	OutcomeMiss Outcome = iota
	OutcomeHit
	OutcomeSunk
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMiss:
		return "Miss"
	case OutcomeHit:
		return "Hit"
	case OutcomeSunk:
		return "Sunk"
	default:
		return "Unknown"
	}
}

// AttackResult describes one resolved shot. Ship is NoShip on a miss.
type AttackResult struct {
	Target  Coord   `json:"target"`
	Outcome Outcome `json:"outcome"`
	Ship    ShipID  `json:"ship"`
	// FleetSunk is set when the shot eliminated the last ship on the board.
	FleetSunk bool `json:"fleetSunk"`
}

// Attack resolves a shot against the board. The board must be locked.
func (b *Board) Attack(row, col int) (AttackResult, error) {
	if !b.locked {
		return AttackResult{}, fmt.Errorf("%w: %s fleet not committed", ErrInvalidTurn, b.owner)
	}
	return resolveAttack(b, Coord{Row: row, Col: col})
}

func resolveAttack(b *Board, target Coord) (AttackResult, error) {
	if !target.In(b.dim) {
		return AttackResult{}, fmt.Errorf("%w: %s", ErrOutOfBounds, target)
	}
	cl := b.at(target)
	if cl.state.WasAttacked() {
		return AttackResult{}, fmt.Errorf("%w: %s", ErrDuplicateAttack, target)
	}

	res := AttackResult{Target: target, Outcome: OutcomeMiss, Ship: NoShip}
	if cl.ship == NoShip {
		cl.state = Miss
		res.FleetSunk = b.allSunk
		return res, nil
	}

	s, ok := b.ships[cl.ship]
	if !ok {
		panic(fmt.Sprintf("game: cell %s references unregistered ship #%d", target, cl.ship))
	}
	cl.state = Attacked
	res.Outcome = OutcomeHit
	res.Ship = s.ID
	if b.hitCount(s) == s.Length() {
		for _, c := range s.Cells {
			b.at(c).state = ShipSunk
		}
		b.sunk++
		res.Outcome = OutcomeSunk
	}
	if !b.allSunk && b.sunk == len(b.ships) {
		b.allSunk = true
	}
	res.FleetSunk = b.allSunk
	return res, nil
}
