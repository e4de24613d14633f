package zk

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// ShotPublic is what a verifier learns about one shot.
type ShotPublic struct {
	Root  *big.Int `json:"root"`
	Depth int      `json:"depth"`
	Index int      `json:"index"`
	Hit   uint8    `json:"hit"`
}

// ShotWitness is the defender's private opening of one cell.
type ShotWitness struct {
	Bit   uint8
	Index int
	Path  []*big.Int
	Dir   []uint8
	Salt  *big.Int
	Root  *big.Int // salted
}

// Keys holds a compiled shot circuit and its groth16 key pair for one depth.
type Keys struct {
	depth int
	cs    constraint.ConstraintSystem
	pk    groth16.ProvingKey
	vk    groth16.VerifyingKey
}

func vkFile(dir string, depth int) string { return filepath.Join(dir, fmt.Sprintf("shot-d%d.vk", depth)) }
func pkFile(dir string, depth int) string { return filepath.Join(dir, fmt.Sprintf("shot-d%d.pk", depth)) }

// VerifyingKeyPath is where EnsureShotKeys stores the verifying key.
func VerifyingKeyPath(dir string, depth int) string { return vkFile(dir, depth) }

func compile(depth int) (constraint.ConstraintSystem, error) {
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewShotCircuit(depth))
	if err != nil {
		return nil, fmt.Errorf("compile shot circuit: %w", err)
	}
	return cs, nil
}

// EnsureShotKeys makes sure proving/verifying keys for depth exist in dir.
func EnsureShotKeys(dir string, depth int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// If both key files exist AND can be parsed, reuse them; else regenerate.
	if vk, pk, err := readKeys(vkFile(dir, depth), pkFile(dir, depth)); err == nil && vk != nil && pk != nil {
		return nil
	}

	cs, err := compile(depth)
	if err != nil {
		return err
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return fmt.Errorf("groth16 setup: %w", err)
	}

	if err := writeVK(vkFile(dir, depth), vk); err != nil {
		return err
	}
	if err := writePK(pkFile(dir, depth), pk); err != nil {
		return err
	}
	return nil
}

// LoadKeys ensures the key files exist and loads them with the compiled circuit.
func LoadKeys(dir string, depth int) (*Keys, error) {
	if err := EnsureShotKeys(dir, depth); err != nil {
		return nil, err
	}
	vk, pk, err := readKeys(vkFile(dir, depth), pkFile(dir, depth))
	if err != nil {
		return nil, err
	}
	cs, err := compile(depth)
	if err != nil {
		return nil, err
	}
	return &Keys{depth: depth, cs: cs, pk: pk, vk: vk}, nil
}

func (k *Keys) Depth() int { return k.depth }

// VerifyingKey returns the serialized verifying key.
func (k *Keys) VerifyingKey() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := k.vk.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Prove one shot.
func (k *Keys) Prove(w ShotWitness) ([]byte, ShotPublic, error) {
	if len(w.Path) != k.depth || len(w.Dir) != k.depth {
		return nil, ShotPublic{}, errors.New("bad path length")
	}
	if w.Salt == nil || w.Root == nil {
		return nil, ShotPublic{}, errors.New("missing salt or root")
	}

	assign := NewShotCircuit(k.depth)
	assign.Bit = uint64(w.Bit)
	assign.Salt = w.Salt
	for i := 0; i < k.depth; i++ {
		assign.Path[i] = w.Path[i]
		assign.Dir[i] = uint64(w.Dir[i])
	}
	assign.Root = w.Root
	assign.Index = w.Index
	assign.Hit = uint64(w.Bit)

	fullWit, err := frontend.NewWitness(assign, ecc.BN254.ScalarField())
	if err != nil {
		return nil, ShotPublic{}, err
	}
	proof, err := groth16.Prove(k.cs, k.pk, fullWit)
	if err != nil {
		return nil, ShotPublic{}, fmt.Errorf("prove shot: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, ShotPublic{}, err
	}
	pub := ShotPublic{Root: new(big.Int).Set(w.Root), Depth: k.depth, Index: w.Index, Hit: w.Bit}
	return buf.Bytes(), pub, nil
}

// Verify checks a proof against the loaded verifying key.
func (k *Keys) Verify(proofBin []byte, pub ShotPublic, root *big.Int) error {
	return verify(k.vk, proofBin, pub, root)
}

// VerifyShot checks a proof against a verifying key file. (Verify returns only error; nil => valid)
func VerifyShot(vkPath string, proofBin []byte, pub ShotPublic, root *big.Int) (bool, error) {
	vk, err := readVK(vkPath)
	if err != nil {
		return false, err
	}
	if err := verify(vk, proofBin, pub, root); err != nil {
		return false, err
	}
	return true, nil
}

func verify(vk groth16.VerifyingKey, proofBin []byte, pub ShotPublic, root *big.Int) error {
	if pub.Root == nil {
		return errors.New("proof payload missing public root")
	}
	if pub.Root.Cmp(root) != 0 {
		return errors.New("root mismatch: proof root != commitment")
	}
	if pub.Hit > 1 {
		return errors.New("invalid hit public output")
	}

	// Public-only witness; the secret slices still need their length.
	pubAssign := NewShotCircuit(pub.Depth)
	pubAssign.Root = root
	pubAssign.Index = pub.Index
	pubAssign.Hit = uint64(pub.Hit)

	pubWit, err := frontend.NewWitness(pubAssign, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	pr := groth16.NewProof(ecc.BN254)
	if _, err := pr.ReadFrom(bytes.NewReader(proofBin)); err != nil {
		return fmt.Errorf("read proof: %w", err)
	}
	return groth16.Verify(pr, vk, pubWit)
}

// --- key IO helpers using io.WriterTo / io.ReaderFrom ---

func writeVK(path string, vk groth16.VerifyingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = vk.WriteTo(f)
	return err
}

func writePK(path string, pk groth16.ProvingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = pk.WriteTo(f)
	return err
}

func readVK(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BN254)
	_, err = vk.ReadFrom(f)
	return vk, err
}

func readPK(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BN254)
	_, err = pk.ReadFrom(f)
	return pk, err
}

func readKeys(vkPath, pkPath string) (groth16.VerifyingKey, groth16.ProvingKey, error) {
	vk, err := readVK(vkPath)
	if err != nil {
		return nil, nil, err
	}
	pk, err := readPK(pkPath)
	if err != nil {
		return nil, nil, err
	}
	return vk, pk, nil
}
