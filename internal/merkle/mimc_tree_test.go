package merkle

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepth(t *testing.T) {
	for n, want := range map[int]int{1: 0, 2: 1, 25: 5, 64: 6, 100: 7, 128: 7, 144: 8} {
		assert.Equal(t, want, Depth(n), "n=%d", n)
	}
}

func TestBuild(t *testing.T) {
	bits := make([]uint8, 100)
	bits[0], bits[1], bits[57] = 1, 1, 1

	tree, err := Build(bits)
	require.NoError(t, err)
	assert.Equal(t, 7, tree.Depth)
	assert.Len(t, tree.Levels[0], 128)

	again, err := Build(bits)
	require.NoError(t, err)
	assert.Equal(t, tree.Root(), again.Root())

	bits[2] = 1
	changed, err := Build(bits)
	require.NoError(t, err)
	assert.NotEqual(t, tree.Root(), changed.Root())

	_, err = Build(nil)
	assert.Error(t, err)
	_, err = Build([]uint8{0, 2})
	assert.Error(t, err)
}

func TestTree_Path(t *testing.T) {
	bits := make([]uint8, 36)
	for i := 0; i < 36; i += 5 {
		bits[i] = 1
	}
	tree, err := Build(bits)
	require.NoError(t, err)
	root := tree.Root()

	for idx, bit := range bits {
		path, dir, err := tree.Path(idx)
		require.NoError(t, err)
		require.Len(t, path, tree.Depth)
		assert.True(t, VerifyPath(bit, path, dir, root), "idx %d", idx)
		assert.False(t, VerifyPath(1-bit, path, dir, root), "flipped bit %d must not verify", idx)
	}

	_, _, err = tree.Path(64)
	assert.Error(t, err)
	_, _, err = tree.Path(-1)
	assert.Error(t, err)
}

func TestSalt(t *testing.T) {
	a, err := NewSalt()
	require.NoError(t, err)
	b, err := NewSalt()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, -1, a.Cmp(fr.Modulus()))

	tree, err := Build(make([]uint8, 100))
	require.NoError(t, err)
	assert.NotEqual(t, SaltedRoot(a, tree.Root()), SaltedRoot(b, tree.Root()))
}
