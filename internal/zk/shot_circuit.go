package zk

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// ShotCircuit proves that the reported hit/miss of one cell matches the
// salted fleet commitment, without revealing any other cell.
type ShotCircuit struct {
	Bit  frontend.Variable   `gnark:",secret"`
	Salt frontend.Variable   `gnark:",secret"`
	Path []frontend.Variable `gnark:",secret"`
	Dir  []frontend.Variable `gnark:",secret"`

	Root  frontend.Variable `gnark:",public"`
	Index frontend.Variable `gnark:",public"`
	Hit   frontend.Variable `gnark:",public"`
}

// NewShotCircuit sizes the Merkle opening for a tree of the given depth.
func NewShotCircuit(depth int) *ShotCircuit {
	return &ShotCircuit{
		Path: make([]frontend.Variable, depth),
		Dir:  make([]frontend.Variable, depth),
	}
}

func (c *ShotCircuit) Define(api frontend.API) error {
	api.AssertIsBoolean(c.Bit)      // Bit ∈ {0,1}
	api.AssertIsEqual(c.Hit, c.Bit) // reveal only Hit = Bit

	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Reset()
	h.Write(c.Bit)
	curr := h.Sum()

	// walk the Merkle path, rebuilding the leaf index from the direction bits
	var idx frontend.Variable = 0
	for i := range c.Path {
		api.AssertIsBoolean(c.Dir[i])
		h.Reset()
		isRight := c.Dir[i]

		left := api.Select(isRight, c.Path[i], curr)
		right := api.Select(isRight, curr, c.Path[i])

		h.Write(left, right)
		curr = h.Sum()
		idx = api.Add(idx, api.Mul(isRight, 1<<i))
	}
	api.AssertIsEqual(idx, c.Index)

	h.Reset()
	h.Write(c.Salt, curr)
	api.AssertIsEqual(h.Sum(), c.Root)
	return nil
}
