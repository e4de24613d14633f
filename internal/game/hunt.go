package game

import "math/rand/v2"

// HuntStrategy searches on a checkerboard until it hits something, then
// probes around every hit that has not yet sunk a ship. Two hits in a line
// make it follow that line first. All state is read from the view, so the
// strategy carries nothing between turns except its generator.
type HuntStrategy struct {
	rng *rand.Rand
}

func NewHuntStrategy(rng *rand.Rand) *HuntStrategy {
	return &HuntStrategy{rng: rng}
}

func (s *HuntStrategy) SelectTarget(view [][]CellState) (Coord, error) {
	n := len(view)
	open := func(c Coord) bool { return c.In(n) && !view[c.Row][c.Col].WasAttacked() }
	hit := func(c Coord) bool { return c.In(n) && view[c.Row][c.Col] == Attacked }

	var hits []Coord
	for r, row := range view {
		for c, st := range row {
			if st == Attacked {
				hits = append(hits, Coord{Row: r, Col: c})
			}
		}
	}

	if len(hits) > 0 {
		var line, around []Coord
		seen := make(map[Coord]bool)
		for _, h := range hits {
			for _, d := range [...]Coord{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nb := Coord{Row: h.Row + d.Row, Col: h.Col + d.Col}
				if hit(nb) {
					// Walk past the run of hits and aim at its far end.
					end := nb
					for hit(end) {
						end = Coord{Row: end.Row + d.Row, Col: end.Col + d.Col}
					}
					if open(end) && !seen[end] {
						seen[end] = true
						line = append(line, end)
					}
					continue
				}
				if open(nb) {
					around = append(around, nb)
				}
			}
		}
		if len(line) > 0 {
			return pick(s.rng, line)
		}
		if len(around) > 0 {
			return pick(s.rng, around)
		}
	}

	if cells := unattacked(view, func(c Coord) bool { return (c.Row+c.Col)%2 == 0 }); len(cells) > 0 {
		return pick(s.rng, cells)
	}
	return pick(s.rng, unattacked(view, nil))
}
