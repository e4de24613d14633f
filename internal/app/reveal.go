package app

import (
	"errors"
	"fmt"

	"battleship/internal/codec"
	"battleship/internal/game"
	"battleship/internal/merkle"
)

// VerifyReveal checks an opened fleet against its commitment and against
// the outcomes the human observed on the computer board.
func VerifyReveal(c codec.Commitment, r codec.Reveal, observed [][]game.CellState) error {
	n := c.Dimension
	if len(r.Bits) != n*n {
		return fmt.Errorf("reveal has %d cells, board has %d", len(r.Bits), n*n)
	}
	salt, err := codec.ParseHex(r.SaltHex)
	if err != nil {
		return fmt.Errorf("salt: %w", err)
	}
	want, err := codec.ParseHex(c.RootHex)
	if err != nil {
		return fmt.Errorf("root: %w", err)
	}
	t, err := merkle.Build(r.Bits)
	if err != nil {
		return err
	}
	if merkle.SaltedRoot(salt, t.Root()).Cmp(want) != 0 {
		return errors.New("revealed fleet does not match the commitment")
	}

	// the listed ships must cover exactly the committed cells
	covered := make([]uint8, n*n)
	for _, s := range r.Ships {
		if len(s.Cells) != s.Type.Length() {
			return fmt.Errorf("ship %s has %d cells", s, len(s.Cells))
		}
		for _, cell := range s.Cells {
			if !cell.In(n) {
				return fmt.Errorf("ship %s leaves the board", s)
			}
			covered[cell.Row*n+cell.Col]++
		}
	}
	if len(r.Ships) != 0 {
		for i := range covered {
			if covered[i] != r.Bits[i] {
				return fmt.Errorf("ships disagree with committed cell (%d,%d)", i/n, i%n)
			}
		}
	}

	for row, cells := range observed {
		for col, st := range cells {
			bit := r.Bits[row*n+col]
			switch {
			case st == game.Miss && bit != 0:
				return fmt.Errorf("cell (%d,%d) reported a miss on a ship", row, col)
			case (st == game.Attacked || st == game.ShipSunk) && bit != 1:
				return fmt.Errorf("cell (%d,%d) reported a hit on water", row, col)
			}
		}
	}
	return nil
}
