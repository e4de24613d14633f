package codec

import (
	"fmt"
	"math/big"
	"strings"

	"battleship/internal/game"
	"battleship/internal/merkle"
	"battleship/internal/zk"
)

// Secret is the computer's private fleet opening.
type Secret struct {
	Bits    []uint8      `json:"bits"`
	Tree    *merkle.Tree `json:"tree"`
	SaltHex string       `json:"salt_hex"`
}

// Commitment is published before the first shot.
type Commitment struct {
	Game      string `json:"game"`
	RootHex   string `json:"rootHex"`
	Dimension int    `json:"dimension"`
	Depth     int    `json:"depth"`
}

// Reveal opens the commitment once the game is decided.
type Reveal struct {
	Bits    []uint8     `json:"bits"`
	SaltHex string      `json:"saltHex"`
	Ships   []game.Ship `json:"ships"`
}

type ShotProofPayload struct {
	Proof  []byte        `json:"proof"`
	Public zk.ShotPublic `json:"public"` // contains root, cell index and the hit bit
}

// Hex renders a field element as 0x-prefixed hex.
func Hex(x *big.Int) string { return fmt.Sprintf("0x%x", x) }

// ParseHex accepts 0x-prefixed hex as written by Hex.
func ParseHex(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return nil, fmt.Errorf("invalid hex %q", s)
	}
	n, ok := new(big.Int).SetString(s[2:], 16)
	if !ok {
		return nil, fmt.Errorf("cannot parse hex %q", s)
	}
	return n, nil
}
