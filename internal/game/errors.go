package game

import "errors"

// Every rejected command returns one of these, possibly wrapped, and leaves
// the game untouched.
var (
	ErrOutOfBounds       = errors.New("out of bounds")
	ErrOverlap           = errors.New("ships overlap")
	ErrAdjacentShips     = errors.New("ships may not touch")
	ErrDuplicateShipType = errors.New("ship type already placed")
	ErrInvalidShip       = errors.New("invalid ship")
	ErrUnknownShipID     = errors.New("unknown ship id")
	ErrDuplicateAttack   = errors.New("cell already attacked")
	ErrInvalidTurn       = errors.New("not allowed in the current game state")
	ErrIncompleteFleet   = errors.New("fleet incomplete")
	ErrNoTargets         = errors.New("no unattacked cells left")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrOutOfBounds, "OUT_OF_BOUNDS"},
	{ErrOverlap, "OVERLAP"},
	{ErrAdjacentShips, "ADJACENT_SHIPS"},
	{ErrDuplicateShipType, "DUPLICATE_SHIP_TYPE"},
	{ErrInvalidShip, "INVALID_SHIP"},
	{ErrUnknownShipID, "UNKNOWN_SHIP_ID"},
	{ErrDuplicateAttack, "DUPLICATE_ATTACK"},
	{ErrInvalidTurn, "INVALID_TURN"},
	{ErrIncompleteFleet, "INCOMPLETE_FLEET"},
	{ErrNoTargets, "NO_TARGETS"},
}

// Code returns the machine-readable code of a game error, or "UNKNOWN".
func Code(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "UNKNOWN"
}
