package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeStandardFleet puts every ship flush left on the even rows.
func placeStandardFleet(t *testing.T, place func(ShipType, Orientation, int, int) (ShipID, error)) map[ShipType]ShipID {
	t.Helper()
	ids := make(map[ShipType]ShipID)
	for i, st := range Fleet {
		id, err := place(st, Horizontal, i*2, 0)
		require.NoError(t, err, "placing %s", st)
		ids[st] = id
	}
	return ids
}

func TestBoard_PlaceShip_MarksExactlyTheFootprint(t *testing.T) {
	for _, st := range Fleet {
		for _, o := range []Orientation{Horizontal, Vertical} {
			for r := 0; r < DefaultDimension; r++ {
				for c := 0; c < DefaultDimension; c++ {
					b := NewBoard(Human, DefaultDimension, DefaultRules())
					fp := Footprint(st, o, Coord{r, c})
					id, err := b.PlaceShip(st, o, r, c)

					inBounds := fp[len(fp)-1].In(DefaultDimension)
					if !inBounds {
						require.ErrorIs(t, err, ErrOutOfBounds)
						assert.Equal(t, NoShip, id)
						assert.Equal(t, NewBoard(Human, DefaultDimension, DefaultRules()).View(true), b.View(true))
						continue
					}
					require.NoError(t, err)

					want := make(map[Coord]bool, len(fp))
					for _, cell := range fp {
						want[cell] = true
					}
					view := b.View(true)
					for vr, row := range view {
						for vc, state := range row {
							if want[Coord{vr, vc}] {
								assert.Equal(t, ShipIntact, state)
								assert.Equal(t, id, b.ShipAt(Coord{vr, vc}))
							} else {
								assert.Equal(t, Ocean, state)
							}
						}
					}
				}
			}
		}
	}
}

func TestBoard_PlaceShip(t *testing.T) {
	t.Run("success returns fresh ids", func(t *testing.T) {
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		ids := placeStandardFleet(t, b.PlaceShip)
		seen := make(map[ShipID]bool)
		for _, id := range ids {
			assert.False(t, seen[id])
			seen[id] = true
		}
		assert.Equal(t, FleetSize, b.ShipsPlaced())
		assert.True(t, b.FleetComplete())
	})

	t.Run("fail duplicate type regardless of position", func(t *testing.T) {
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		_, err := b.PlaceShip(Submarine, Horizontal, 0, 0)
		require.NoError(t, err)

		for r := 2; r < DefaultDimension; r++ {
			id, err := b.PlaceShip(Submarine, Vertical, r-2, 9)
			assert.ErrorIs(t, err, ErrDuplicateShipType)
			assert.Equal(t, NoShip, id)
		}
		assert.Equal(t, 1, b.ShipsPlaced())
	})

	t.Run("fail invalid orientation", func(t *testing.T) {
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		_, err := b.PlaceShip(Submarine, Orientation(7), 0, 0)
		assert.ErrorIs(t, err, ErrInvalidShip)
	})

	t.Run("fail once locked", func(t *testing.T) {
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		b.Lock()
		_, err := b.PlaceShip(Submarine, Horizontal, 0, 0)
		assert.ErrorIs(t, err, ErrInvalidTurn)
	})
}

func TestBoard_RemoveShip(t *testing.T) {
	t.Run("clears the cells and frees the type", func(t *testing.T) {
		// given
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		empty := b.View(true)
		id, err := b.PlaceShip(Battleship, Vertical, 2, 2)
		require.NoError(t, err)

		// when
		require.NoError(t, b.RemoveShip(id))

		// then
		assert.Equal(t, empty, b.View(true))
		assert.Equal(t, 0, b.ShipsPlaced())
		_, err = b.Ship(id)
		assert.ErrorIs(t, err, ErrUnknownShipID)

		again, err := b.PlaceShip(Battleship, Horizontal, 2, 2)
		require.NoError(t, err)
		assert.NotEqual(t, id, again)
	})

	t.Run("fail unknown id", func(t *testing.T) {
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		assert.ErrorIs(t, b.RemoveShip(3), ErrUnknownShipID)
		assert.ErrorIs(t, b.RemoveShip(NoShip), ErrUnknownShipID)
	})

	t.Run("fail once locked", func(t *testing.T) {
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		id, err := b.PlaceShip(Battleship, Vertical, 2, 2)
		require.NoError(t, err)
		b.Lock()
		assert.ErrorIs(t, b.RemoveShip(id), ErrInvalidTurn)
		assert.Equal(t, 1, b.ShipsPlaced())
	})
}

func TestBoard_View(t *testing.T) {
	b := NewBoard(Computer, 6, DefaultRules())
	_, err := b.PlaceShip(Destroyer, Horizontal, 1, 1)
	require.NoError(t, err)
	_, err = b.PlaceShip(Cruiser, Vertical, 3, 5)
	require.NoError(t, err)
	b.Lock()
	_, err = b.Attack(1, 1)
	require.NoError(t, err)
	_, err = b.Attack(0, 0)
	require.NoError(t, err)

	owner := b.View(true)
	fogged := b.View(false)

	assert.Equal(t, Attacked, owner[1][1])
	assert.Equal(t, ShipIntact, owner[1][2])
	assert.Equal(t, Miss, owner[0][0])

	assert.Equal(t, Attacked, fogged[1][1])
	assert.Equal(t, Miss, fogged[0][0])
	for r, row := range fogged {
		for c, s := range row {
			assert.NotEqual(t, ShipIntact, s, "fogged view leaked %d,%d", r, c)
			if owner[r][c] != ShipIntact {
				assert.Equal(t, owner[r][c], s)
			}
		}
	}

	// the projection is a copy
	fogged[2][2] = ShipSunk
	assert.Equal(t, Ocean, b.View(false)[2][2])
}

func TestBoard_Flatten(t *testing.T) {
	b := NewBoard(Computer, 5, DefaultRules())
	_, err := b.PlaceShip(Destroyer, Vertical, 3, 4)
	require.NoError(t, err)

	bits := b.Flatten()
	require.Len(t, bits, 25)
	total := 0
	for _, v := range bits {
		total += int(v)
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, uint8(1), bits[3*5+4])
	assert.Equal(t, uint8(1), bits[4*5+4])
}

func TestPlaceRandomly(t *testing.T) {
	for _, tc := range []struct {
		Name  string
		Dim   int
		Rules Rules
	}{
		{"standard", DefaultDimension, DefaultRules()},
		{"no touching", DefaultDimension, Rules{AllowAdjacentShips: false}},
		{"small", 6, DefaultRules()},
	} {
		t.Run(tc.Name, func(t *testing.T) {
			for seed := uint64(0); seed < 20; seed++ {
				b := NewBoard(Computer, tc.Dim, tc.Rules)
				require.NoError(t, PlaceRandomly(b, NewRand(seed)))
				assert.True(t, b.FleetComplete())

				cells := 0
				for _, s := range b.Ships() {
					cells += s.Length()
				}
				total := 0
				for _, v := range b.Flatten() {
					total += int(v)
				}
				assert.Equal(t, 17, cells)
				assert.Equal(t, 17, total)
			}
		})
	}

	t.Run("keeps ships already placed", func(t *testing.T) {
		b := NewBoard(Human, DefaultDimension, DefaultRules())
		id, err := b.PlaceShip(Carrier, Horizontal, 9, 0)
		require.NoError(t, err)

		require.NoError(t, PlaceRandomly(b, NewRand(7)))
		s, err := b.Ship(id)
		require.NoError(t, err)
		assert.Equal(t, Coord{9, 0}, s.Anchor)
		assert.Equal(t, FleetSize, b.ShipsPlaced())
	})

	t.Run("fail when locked", func(t *testing.T) {
		b := NewBoard(Computer, DefaultDimension, DefaultRules())
		assert.Equal(t, Computer, b.Owner())
		assert.False(t, b.Locked())
		b.Lock()
		assert.True(t, b.Locked())

		err := PlaceRandomly(b, NewRand(1))
		assert.ErrorIs(t, err, ErrInvalidTurn)
		assert.ErrorContains(t, err, "Computer fleet is locked")
		assert.Zero(t, b.ShipsPlaced())
	})
}
