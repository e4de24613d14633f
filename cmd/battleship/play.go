package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"battleship/internal/app"
	"battleship/internal/config"
	"battleship/internal/game"
	"battleship/internal/zk"
)

const playHelp = `commands:
  place TYPE h|v ROW COL   place a ship (Carrier Battleship Cruiser Submarine Destroyer)
  remove ID                take a ship back
  auto                     place the remaining ships randomly
  start                    lock the fleets and begin
  fire ROW COL             shoot at the computer board
  board                    show both boards
  status                   show state and commitment
  proof ROW COL FILE       save the proof of one of your shots
  reveal [FILE]            open and check the computer fleet after the game
  new                      start over with a fresh game
  quit`

// repl is a line-oriented host around one session.
type repl struct {
	cfg  config.Config
	keys *zk.Keys
	log  zerolog.Logger
	out  io.Writer
	sess *app.Session
}

func runPlay(cfg config.Config, keys *zk.Keys, in io.Reader, out io.Writer, log zerolog.Logger) error {
	r := &repl{cfg: cfg, keys: keys, log: log, out: out}
	if err := r.reset(); err != nil {
		return err
	}
	fmt.Fprintln(out, playHelp)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := r.exec(fields[0], fields[1:]); err != nil {
			fmt.Fprintf(out, "! %v [%s]\n", err, game.Code(err))
		}
	}
}

func (r *repl) reset() error {
	sess, err := app.NewSession(r.cfg, r.keys, r.log)
	if err != nil {
		return err
	}
	r.sess = sess
	c := sess.Commitment()
	fmt.Fprintf(r.out, "new game %s, computer fleet committed to %s\n", c.Game, c.RootHex)
	return nil
}

func ints(args []string, n int) ([]int, error) {
	if len(args) < n {
		return nil, fmt.Errorf("need %d numbers", n)
	}
	out := make([]int, n)
	for i := range out {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", args[i])
		}
		out[i] = v
	}
	return out, nil
}

func (r *repl) exec(cmd string, args []string) error {
	g := r.sess.Game()
	switch cmd {
	case "help":
		fmt.Fprintln(r.out, playHelp)
	case "place":
		if len(args) != 4 {
			return errors.New("usage: place TYPE h|v ROW COL")
		}
		t, err := game.ParseShipType(args[0])
		if err != nil {
			return err
		}
		o, err := game.ParseOrientation(args[1])
		if err != nil {
			return err
		}
		rc, err := ints(args[2:], 2)
		if err != nil {
			return err
		}
		id, err := g.PlaceShip(t, o, rc[0], rc[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "placed %s as ship %d (%d/%d)\n", t, id, g.ShipsPlaced(game.Human), game.FleetSize)
	case "remove":
		v, err := ints(args, 1)
		if err != nil {
			return err
		}
		if err := g.RemoveShip(game.ShipID(v[0])); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "removed ship %d\n", v[0])
	case "auto":
		if err := g.AutoPlace(); err != nil {
			return err
		}
		r.render(g)
	case "start":
		if err := g.Start(); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "fleets locked, your shot")
	case "fire", "attack":
		rc, err := ints(args, 2)
		if err != nil {
			return err
		}
		rep, err := r.sess.Attack(rc[0], rc[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "you fire at %s: %s\n", rep.Result.Target, rep.Result.Outcome)
		if rep.Reply != nil {
			fmt.Fprintf(r.out, "computer fires at %s: %s\n", rep.Reply.Target, rep.Reply.Outcome)
		}
		if rep.State.Terminal() {
			r.render(g)
			fmt.Fprintf(r.out, "game over: %s\n", rep.State)
			return r.reveal("")
		}
	case "board":
		r.render(g)
	case "status":
		c := r.sess.Commitment()
		fmt.Fprintf(r.out, "state %s, ships placed %d, sunk %d/%d each side\ncommitment %s (depth %d)\n",
			g.State(), g.ShipsPlaced(game.Human), g.ShipsSunk(game.Computer), g.ShipsSunk(game.Human), c.RootHex, c.Depth)
	case "proof":
		rc, err := ints(args, 2)
		if err != nil {
			return err
		}
		if len(args) < 3 {
			return errors.New("usage: proof ROW COL FILE")
		}
		p, ok := r.sess.Proof(game.Coord{Row: rc[0], Col: rc[1]})
		if !ok {
			return errors.New("no proof for that cell")
		}
		if err := saveJSON(args[2], p); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "✓ wrote", args[2])
	case "reveal":
		file := ""
		if len(args) > 0 {
			file = args[0]
		}
		return r.reveal(file)
	case "new":
		return r.reset()
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

func (r *repl) reveal(file string) error {
	rev, err := r.sess.Reveal()
	if err != nil {
		return err
	}
	if err := app.VerifyReveal(r.sess.Commitment(), rev, r.sess.Game().VisibleState(game.Computer)); err != nil {
		fmt.Fprintln(r.out, "✗ computer fleet does NOT match its commitment:", err)
	} else {
		fmt.Fprintln(r.out, "✓ computer fleet matches its commitment")
	}
	if file != "" {
		if err := saveJSON(file, rev); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "✓ wrote", file)
	}
	return nil
}

var glyphs = map[game.CellState]byte{
	game.Ocean:      '.',
	game.ShipIntact: 'S',
	game.Attacked:   'X',
	game.ShipSunk:   '#',
	game.Miss:       'o',
}

func (r *repl) render(g *game.Game) {
	own, enemy := g.VisibleState(game.Human), g.VisibleState(game.Computer)
	n := g.Dimension()
	var b strings.Builder

	header := func() {
		b.WriteString("   ")
		for c := 0; c < n; c++ {
			fmt.Fprintf(&b, "%2d", c)
		}
	}
	fmt.Fprintf(&b, "%-*s   %s\n", 3+2*n, "your fleet", "enemy waters")
	header()
	b.WriteString("   ")
	header()
	b.WriteByte('\n')
	for row := 0; row < n; row++ {
		for _, grid := range [][][]game.CellState{own, enemy} {
			fmt.Fprintf(&b, "%2d ", row)
			for col := 0; col < n; col++ {
				b.WriteByte(' ')
				b.WriteByte(glyphs[grid[row][col]])
			}
			b.WriteString("   ")
		}
		b.WriteByte('\n')
	}
	fmt.Fprint(r.out, b.String())
}
