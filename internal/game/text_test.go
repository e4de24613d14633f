package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumsAsNames(t *testing.T) {
	b, err := json.Marshal(AttackResult{Target: Coord{Row: 1, Col: 2}, Outcome: OutcomeSunk, Ship: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"target":{"row":1,"col":2},"outcome":"Sunk","ship":3,"fleetSunk":false}`, string(b))

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"state":"AiAttack","stage":"Loop","by":"Human"}`), &ev))
	assert.Equal(t, StateAiAttack, ev.State)
	assert.Equal(t, StageLoop, ev.Stage)
	assert.Equal(t, Human, ev.By)

	var s State
	assert.Error(t, json.Unmarshal([]byte(`"Draw"`), &s))
	var o Orientation
	assert.ErrorIs(t, o.UnmarshalText([]byte("diagonal")), ErrInvalidShip)
}
