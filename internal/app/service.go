package app

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/rs/zerolog"

	"battleship/internal/codec"
	"battleship/internal/config"
	"battleship/internal/game"
	"battleship/internal/merkle"
	"battleship/internal/zk"
)

// Session is one game plus the fair-play commitment of the computer fleet.
type Session struct {
	game *game.Game
	log  zerolog.Logger
	keys *zk.Keys

	secret     codec.Secret
	salt       *big.Int
	root       *big.Int
	commitment codec.Commitment

	mu      sync.Mutex
	history []game.Event
	proofs  map[int]codec.ShotProofPayload
}

// AttackReport is the outcome of one human shot and, when the game goes on,
// the computer's reply.
type AttackReport struct {
	Result game.AttackResult       `json:"result"`
	Reply  *game.AttackResult      `json:"reply,omitempty"`
	State  game.State              `json:"state"`
	Proof  *codec.ShotProofPayload `json:"proof,omitempty"`
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// NewSession creates a game from cfg and commits the computer fleet. keys may
// be nil, in which case shots carry no proofs.
func NewSession(cfg config.Config, keys *zk.Keys, log zerolog.Logger, opts ...game.Option) (*Session, error) {
	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = NewSeed(); err != nil {
			return nil, err
		}
	}
	strategy, err := game.NewStrategy(cfg.Strategy, game.NewRand(seed^0x5bd1e995))
	if err != nil {
		return nil, err
	}

	base := []game.Option{
		game.WithDimension(cfg.Dimension),
		game.WithRules(cfg.Rules()),
		game.WithSeed(seed),
		game.WithStrategy(strategy),
		game.WithLogger(log),
	}
	g, err := game.New(append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		game:   g,
		log:    log.With().Str("game", g.ID().String()).Logger(),
		proofs: make(map[int]codec.ShotProofPayload),
	}
	if err := s.commit(); err != nil {
		return nil, err
	}
	if keys != nil {
		if keys.Depth() != s.commitment.Depth {
			return nil, fmt.Errorf("proving keys for depth %d, board needs %d", keys.Depth(), s.commitment.Depth)
		}
		s.keys = keys
	}
	g.Subscribe(s.record)

	s.log.Info().
		Str("root", s.commitment.RootHex).
		Int("dimension", cfg.Dimension).
		Str("strategy", cfg.Strategy).
		Bool("proofs", keys != nil).
		Msg("session started")
	return s, nil
}

func (s *Session) commit() error {
	bits := s.game.FleetBits(game.Computer)
	t, err := merkle.Build(bits)
	if err != nil {
		return err
	}

	// this is to make root unique for same boards
	salt, err := merkle.NewSalt()
	if err != nil {
		return err
	}
	s.salt = salt
	s.root = merkle.SaltedRoot(salt, t.Root())
	s.secret = codec.Secret{Bits: bits, Tree: t, SaltHex: codec.Hex(salt)}
	s.commitment = codec.Commitment{
		Game:      s.game.ID().String(),
		RootHex:   codec.Hex(s.root),
		Dimension: s.game.Dimension(),
		Depth:     t.Depth,
	}
	return nil
}

func (s *Session) record(ev game.Event) {
	s.mu.Lock()
	s.history = append(s.history, ev)
	s.mu.Unlock()

	l := s.log.Debug().Str("state", ev.State.String()).Uint64("seq", ev.Seq)
	if ev.Attack != nil {
		l = l.Str("by", ev.By.String()).Stringer("target", ev.Attack.Target).Str("outcome", ev.Attack.Outcome.String())
	}
	l.Msg("event")
	if ev.State.Terminal() {
		s.log.Info().Str("outcome", ev.State.String()).Msg("game over")
	}
}

func (s *Session) Game() *game.Game { return s.game }

func (s *Session) Commitment() codec.Commitment { return s.commitment }

// Events returns the notifications published after seq.
func (s *Session) Events(after uint64) []game.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []game.Event
	for _, ev := range s.history {
		if ev.Seq > after {
			out = append(out, ev)
		}
	}
	return out
}

func (s *Session) lastSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return 0
	}
	return s.history[len(s.history)-1].Seq
}

// Attack fires the human shot and proves its outcome when proving is on.
func (s *Session) Attack(row, col int) (*AttackReport, error) {
	since := s.lastSeq()
	res, err := s.game.Attack(row, col)
	if err != nil {
		return nil, err
	}
	rep := &AttackReport{Result: res, State: s.game.State()}
	for _, ev := range s.Events(since) {
		if ev.By == game.Computer && ev.Attack != nil {
			reply := *ev.Attack
			rep.Reply = &reply
		}
	}

	if s.keys != nil {
		p, err := s.prove(res.Target)
		if err != nil {
			// the shot stands; only its proof is missing
			s.log.Error().Err(err).Stringer("target", res.Target).Msg("shot proof failed")
		} else {
			rep.Proof = &p
		}
	}
	return rep, nil
}

func (s *Session) prove(c game.Coord) (codec.ShotProofPayload, error) {
	idx := c.Row*s.commitment.Dimension + c.Col
	path, dir, err := s.secret.Tree.Path(idx)
	if err != nil {
		return codec.ShotProofPayload{}, err
	}
	proof, pub, err := s.keys.Prove(zk.ShotWitness{
		Bit:   s.secret.Bits[idx],
		Index: idx,
		Path:  path,
		Dir:   dir,
		Salt:  s.salt,
		Root:  s.root,
	})
	if err != nil {
		return codec.ShotProofPayload{}, err
	}
	p := codec.ShotProofPayload{Proof: proof, Public: pub}
	s.mu.Lock()
	s.proofs[idx] = p
	s.mu.Unlock()
	return p, nil
}

// Proof returns the stored proof for a cell already fired at.
func (s *Session) Proof(c game.Coord) (codec.ShotProofPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proofs[c.Row*s.commitment.Dimension+c.Col]
	return p, ok
}

type VerifyResult struct {
	Valid bool       `json:"valid"`
	Hit   uint8      `json:"hit"`
	Cell  game.Coord `json:"cell"`
}

// VerifyShot checks a proof against this session's commitment.
func (s *Session) VerifyShot(payload codec.ShotProofPayload) (*VerifyResult, error) {
	if s.keys == nil {
		return nil, errors.New("proofs are disabled")
	}
	if payload.Public.Root == nil || payload.Public.Root.Sign() == 0 {
		payload.Public.Root = new(big.Int).Set(s.root)
	}
	if err := s.keys.Verify(payload.Proof, payload.Public, s.root); err != nil {
		return nil, err
	}
	n := s.commitment.Dimension
	cell := game.Coord{Row: payload.Public.Index / n, Col: payload.Public.Index % n}
	return &VerifyResult{Valid: true, Hit: payload.Public.Hit, Cell: cell}, nil
}

// Reveal opens the computer fleet once the game is decided.
func (s *Session) Reveal() (codec.Reveal, error) {
	if st := s.game.State(); st.Stage() != game.StageResolution {
		return codec.Reveal{}, fmt.Errorf("%w: reveal in %s", game.ErrInvalidTurn, st)
	}
	return codec.Reveal{
		Bits:    append([]uint8(nil), s.secret.Bits...),
		SaltHex: s.secret.SaltHex,
		Ships:   s.game.Ships(game.Computer),
	}, nil
}
