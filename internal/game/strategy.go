package game

import (
	"fmt"
	"math/rand/v2"
)

// Strategy picks the computer's next shot from its fog-of-war view of the
// human board. The returned cell must not have been attacked before.
type Strategy interface {
	SelectTarget(view [][]CellState) (Coord, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(view [][]CellState) (Coord, error)

func (f StrategyFunc) SelectTarget(view [][]CellState) (Coord, error) { return f(view) }

// NewRand returns a PCG-backed generator for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewStrategy builds a strategy by name: "random" or "hunt".
func NewStrategy(name string, rng *rand.Rand) (Strategy, error) {
	switch name {
	case "random":
		return NewRandomStrategy(rng), nil
	case "hunt", "":
		return NewHuntStrategy(rng), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// RandomStrategy shoots uniformly among the unattacked cells.
type RandomStrategy struct {
	rng *rand.Rand
}

func NewRandomStrategy(rng *rand.Rand) *RandomStrategy {
	return &RandomStrategy{rng: rng}
}

func (s *RandomStrategy) SelectTarget(view [][]CellState) (Coord, error) {
	return pick(s.rng, unattacked(view, nil))
}

func unattacked(view [][]CellState, keep func(Coord) bool) []Coord {
	var out []Coord
	for r, row := range view {
		for c, st := range row {
			at := Coord{Row: r, Col: c}
			if st.WasAttacked() || (keep != nil && !keep(at)) {
				continue
			}
			out = append(out, at)
		}
	}
	return out
}

func pick(rng *rand.Rand, cells []Coord) (Coord, error) {
	if len(cells) == 0 {
		return Coord{}, ErrNoTargets
	}
	return cells[rng.IntN(len(cells))], nil
}
