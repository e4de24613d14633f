package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// MinDimension is the smallest board the longest ship fits on.
	MinDimension = 5
	// MaxDimension bounds the n*n grids a game allocates.
	MaxDimension = 64
)

// Game owns both boards and sequences Setup, alternating attacks and the
// final outcome. All methods are safe for concurrent use; commands are
// serialised by a single lock and notifications are delivered outside it.
// While a notification is being delivered no attack is accepted, so every
// subscriber has seen a state before anyone can act on it.
type Game struct {
	mu       sync.Mutex
	id       uuid.UUID
	dim      int
	rules    Rules
	boards   [2]*Board
	state    State
	strategy Strategy
	rng      *rand.Rand
	autoPlay bool
	last     [2]*AttackResult
	log      zerolog.Logger
	events   *dispatcher
	seq      uint64
	inflight bool
}

// Option configures a Game.
type Option func(*Game)

// WithDimension sets the side length of both boards.
func WithDimension(n int) Option { return func(g *Game) { g.dim = n } }

// WithRules sets the placement rules for both boards.
func WithRules(r Rules) Option { return func(g *Game) { g.rules = r } }

// WithStrategy replaces the computer's targeting policy.
func WithStrategy(s Strategy) Option { return func(g *Game) { g.strategy = s } }

// WithSeed makes computer placement and the default strategy reproducible.
func WithSeed(seed uint64) Option { return func(g *Game) { g.rng = NewRand(seed) } }

// WithAutoPlay controls whether the game takes the computer's turn by itself
// once the AiAttack notification has been delivered. Defaults to true; when
// off the host calls ComputerAttack after Attack returns. A call made from
// inside a subscriber is rejected with ErrInvalidTurn.
func WithAutoPlay(on bool) Option { return func(g *Game) { g.autoPlay = on } }

func WithLogger(l zerolog.Logger) Option { return func(g *Game) { g.log = l } }

// New creates a game in Setup with the computer fleet already placed.
func New(opts ...Option) (*Game, error) {
	g := &Game{
		id:       uuid.New(),
		dim:      DefaultDimension,
		rules:    DefaultRules(),
		state:    StateSetup,
		autoPlay: true,
		log:      zerolog.Nop(),
		events:   newDispatcher(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.dim < MinDimension || g.dim > MaxDimension {
		return nil, fmt.Errorf("dimension %d outside [%d,%d]", g.dim, MinDimension, MaxDimension)
	}
	if g.rng == nil {
		g.rng = NewRand(rand.Uint64())
	}
	if g.strategy == nil {
		g.strategy = NewHuntStrategy(g.rng)
	}
	g.log = g.log.With().Str("game", g.id.String()).Logger()

	g.boards[Human] = NewBoard(Human, g.dim, g.rules)
	g.boards[Computer] = NewBoard(Computer, g.dim, g.rules)
	if err := PlaceRandomly(g.boards[Computer], g.rng); err != nil {
		return nil, err
	}

	g.log.Debug().Int("dimension", g.dim).Bool("adjacent", g.rules.AllowAdjacentShips).Msg("game created")
	return g, nil
}

func (g *Game) ID() uuid.UUID { return g.id }

func (g *Game) Dimension() int { return g.dim }

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Game) Stage() Stage { return g.State().Stage() }

// Subscribe registers fn for every later state change and returns a function
// that removes it.
func (g *Game) Subscribe(fn func(Event)) (unsubscribe func()) {
	return g.events.subscribe(fn)
}

// PlaceShip places a human ship during Setup.
func (g *Game) PlaceShip(t ShipType, o Orientation, row, col int) (ShipID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateSetup {
		return NoShip, fmt.Errorf("%w: place ship in %s", ErrInvalidTurn, g.state)
	}
	id, err := g.boards[Human].PlaceShip(t, o, row, col)
	if err != nil {
		g.log.Debug().Err(err).Str("ship", t.String()).Msg("placement rejected")
		return NoShip, err
	}
	g.log.Debug().Int("id", int(id)).Str("ship", t.String()).Msg("ship placed")
	return id, nil
}

// RemoveShip takes a human ship back off the board during Setup.
func (g *Game) RemoveShip(id ShipID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateSetup {
		return fmt.Errorf("%w: remove ship in %s", ErrInvalidTurn, g.state)
	}
	return g.boards[Human].RemoveShip(id)
}

// AutoPlace randomly places whichever human ships are still missing.
func (g *Game) AutoPlace() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateSetup {
		return fmt.Errorf("%w: auto place in %s", ErrInvalidTurn, g.state)
	}
	return PlaceRandomly(g.boards[Human], g.rng)
}

// Start leaves Setup once the human fleet is complete.
func (g *Game) Start() error {
	g.mu.Lock()
	if g.state != StateSetup {
		g.mu.Unlock()
		return fmt.Errorf("%w: start in %s", ErrInvalidTurn, g.state)
	}
	if n := g.boards[Human].ShipsPlaced(); n != FleetSize {
		g.mu.Unlock()
		return fmt.Errorf("%w: %d of %d ships placed", ErrIncompleteFleet, n, FleetSize)
	}
	if !g.boards[Computer].FleetComplete() {
		panic("game: computer fleet incomplete at start")
	}
	g.boards[Human].Lock()
	g.boards[Computer].Lock()
	ev := g.transition(StateHumanAttack, Human, nil)
	g.mu.Unlock()

	g.deliver(ev)
	return nil
}

// Attack fires the human's shot at the computer board.
func (g *Game) Attack(row, col int) (AttackResult, error) {
	return g.fire(Human, func() (Coord, error) { return Coord{Row: row, Col: col}, nil })
}

// ComputerAttack lets the strategy fire one shot at the human board.
func (g *Game) ComputerAttack() (AttackResult, error) {
	return g.fire(Computer, func() (Coord, error) {
		c, err := g.strategy.SelectTarget(g.boards[Human].View(false))
		if err != nil {
			return Coord{}, fmt.Errorf("select target: %w", err)
		}
		return c, nil
	})
}

func (g *Game) fire(by Player, target func() (Coord, error)) (AttackResult, error) {
	turn, won := StateHumanAttack, StateHumanWon
	if by == Computer {
		turn, won = StateAiAttack, StateAiWon
	}

	g.mu.Lock()
	if g.inflight {
		g.mu.Unlock()
		return AttackResult{}, fmt.Errorf("%w: %s attack while a notification is being delivered", ErrInvalidTurn, by)
	}
	if g.state != turn {
		state := g.state
		g.mu.Unlock()
		return AttackResult{}, fmt.Errorf("%w: %s attack in %s", ErrInvalidTurn, by, state)
	}
	at, err := target()
	if err != nil {
		g.mu.Unlock()
		return AttackResult{}, err
	}
	res, err := resolveAttack(g.boards[by.Opponent()], at)
	if err != nil {
		g.mu.Unlock()
		g.log.Debug().Err(err).Str("by", by.String()).Stringer("target", at).Msg("attack rejected")
		return AttackResult{}, err
	}
	g.last[by] = &res

	var next State
	switch {
	case res.FleetSunk:
		next = won
	case by == Human:
		next = StateAiAttack
	default:
		next = StateHumanAttack
	}
	g.log.Debug().
		Str("by", by.String()).
		Stringer("target", at).
		Str("outcome", res.Outcome.String()).
		Msg("attack resolved")
	ev := g.transition(next, by, &res)
	g.mu.Unlock()

	g.deliver(ev)
	return res, nil
}

// transition must be called with g.mu held. The returned event is in flight
// until deliver has handed it to every subscriber.
func (g *Game) transition(next State, by Player, res *AttackResult) Event {
	prev := g.state
	g.state = next
	g.seq++
	g.inflight = true
	g.log.Debug().Str("from", prev.String()).Str("to", next.String()).Uint64("seq", g.seq).Msg("state change")
	ev := Event{Game: g.id, Seq: g.seq, State: next, Stage: next.Stage(), By: by}
	if res != nil {
		cp := *res
		ev.Attack = &cp
	}
	return ev
}

// deliver must be called without g.mu. A panicking subscriber still
// clears the in-flight mark, but the computer's turn is then left to the host.
func (g *Game) deliver(ev Event) {
	func() {
		defer func() {
			g.mu.Lock()
			g.inflight = false
			g.mu.Unlock()
		}()
		g.events.deliver(ev)
	}()
	g.afterDelivery(ev)
}

func (g *Game) afterDelivery(ev Event) {
	if ev.State != StateAiAttack || !g.autoPlay {
		return
	}
	if _, err := g.ComputerAttack(); err != nil && !errors.Is(err, ErrInvalidTurn) {
		g.log.Error().Err(err).Msg("computer turn failed")
	}
}

// VisibleState is the board of p as the human at the table sees it. The
// computer board is fogged until the game is decided.
func (g *Game) VisibleState(p Player) [][]CellState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boards[p].View(p == Human || g.state.Stage() == StageResolution)
}

// OpponentView is what the computer sees of the human board.
func (g *Game) OpponentView() [][]CellState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boards[Human].View(false)
}

func (g *Game) ShipsPlaced(p Player) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boards[p].ShipsPlaced()
}

func (g *Game) ShipsSunk(p Player) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boards[p].ShipsSunk()
}

func (g *Game) IsSunk(p Player, id ShipID) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boards[p].IsSunk(id)
}

// Ships lists the ships of p visible to the human: the whole human fleet,
// and only sunk computer ships until the game is decided.
func (g *Game) Ships(p Player) []Ship {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := g.boards[p]
	all := b.Ships()
	if p == Human || g.state.Stage() == StageResolution {
		return all
	}
	var out []Ship
	for _, s := range all {
		if sunk, _ := b.IsSunk(s.ID); sunk {
			out = append(out, s)
		}
	}
	return out
}

// LastAttack returns the most recent shot fired by p.
func (g *Game) LastAttack(by Player) (AttackResult, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last[by] == nil {
		return AttackResult{}, false
	}
	return *g.last[by], true
}

// FleetBits returns the occupancy bits of p's board. It exists for fleet
// commitments and must not reach the opposing player before Resolution.
func (g *Game) FleetBits(p Player) []uint8 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.boards[p].Flatten()
}
