package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship/internal/codec"
	"battleship/internal/config"
)

func playScript(t *testing.T, script string) string {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Seed = 3
	cfg.Proofs = false

	var out bytes.Buffer
	require.NoError(t, runPlay(cfg, nil, strings.NewReader(script), &out, zerolog.Nop()))
	return out.String()
}

func TestPlay_Commands(t *testing.T) {
	out := playScript(t, strings.Join([]string{
		"place Carrier h 0 8",
		"place Carrier h 0 0",
		"remove 7",
		"start",
		"auto",
		"start",
		"fire 0 0",
		"fire 0 0",
		"fire x 1",
		"reveal",
		"status",
		"bogus",
		"quit",
		"fire 1 1",
	}, "\n"))

	assert.Contains(t, out, "computer fleet committed to 0x")
	assert.Contains(t, out, "[OUT_OF_BOUNDS]")
	assert.Contains(t, out, "placed Carrier as ship 0 (1/5)")
	assert.Contains(t, out, "[UNKNOWN_SHIP_ID]")
	assert.Contains(t, out, "[INCOMPLETE_FLEET]")
	assert.Contains(t, out, "fleets locked")
	assert.Contains(t, out, "you fire at (0,0)")
	assert.Contains(t, out, "computer fires at")
	assert.Contains(t, out, "[DUPLICATE_ATTACK]")
	assert.Contains(t, out, `"x" is not a number`)
	assert.Contains(t, out, "[INVALID_TURN]")
	assert.Contains(t, out, "state HumanAttack")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.NotContains(t, out, "you fire at (1,1)")
}

func TestPlay_FullGame(t *testing.T) {
	dir := t.TempDir()
	revealPath := filepath.Join(dir, "reveal.json")

	lines := []string{"auto", "start"}
	for i := 0; i < 100; i++ {
		lines = append(lines, fmt.Sprintf("fire %d %d", i/10, i%10))
	}
	lines = append(lines, "reveal "+revealPath, "board", "new", "status")
	out := playScript(t, strings.Join(lines, "\n"))

	assert.Contains(t, out, "game over: ")
	assert.Contains(t, out, "✓ computer fleet matches its commitment")
	assert.NotContains(t, out, "does NOT match")
	assert.Contains(t, out, "enemy waters")
	assert.Equal(t, 2, strings.Count(out, "computer fleet committed to"))
	assert.Contains(t, out, "state Setup")

	var rev codec.Reveal
	require.NoError(t, loadJSON(revealPath, &rev))
	assert.Len(t, rev.Bits, 100)
	assert.Len(t, rev.Ships, 5)
}
