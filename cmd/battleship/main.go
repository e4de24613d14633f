package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"battleship/internal/codec"
	"battleship/internal/config"
	"battleship/internal/merkle"
	"battleship/internal/server"
	"battleship/internal/zk"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		err = cmdServe(cfg, args)
	case "play":
		err = cmdPlay(cfg, args)
	case "keys":
		err = cmdKeys(cfg, args)
	case "verify":
		err = cmdVerify(cfg, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Battleship CLI

Commands:
  serve  --addr :8080 --proofs --keys ./keys
  play   --dim 10 --strategy hunt --seed 0
  keys   --keys ./keys --dim 10
  verify --keys ./keys --dim 10 --root ROOT_HEX --proof proof.json --row R --col C

Every flag defaults to its BATTLESHIP_* environment variable.`)
}

// gameFlags registers the flags shared by serve and play on top of cfg.
func gameFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.IntVar(&cfg.Dimension, "dim", cfg.Dimension, "board side length")
	fs.BoolVar(&cfg.AllowAdjacentShips, "adjacent", cfg.AllowAdjacentShips, "allow ships to touch")
	fs.StringVar(&cfg.Strategy, "strategy", cfg.Strategy, "computer strategy: hunt|random")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "rng seed, 0 for random")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console|json")
}

func parse(fs *flag.FlagSet, cfg *config.Config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cfg.Validate()
}

func loadKeys(cfg config.Config, log zerolog.Logger) (*zk.Keys, error) {
	if !cfg.Proofs {
		return nil, nil
	}
	depth := merkle.Depth(cfg.Dimension * cfg.Dimension)
	log.Info().Str("dir", cfg.KeysDir).Int("depth", depth).Msg("loading shot keys")
	if err := zk.EnsureShotKeys(cfg.KeysDir, depth); err != nil {
		return nil, err
	}
	return zk.LoadKeys(cfg.KeysDir, depth)
}

func cmdServe(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	gameFlags(fs, &cfg)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.KeysDir, "keys", cfg.KeysDir, "keys directory")
	fs.BoolVar(&cfg.Proofs, "proofs", cfg.Proofs, "prove every shot against the fleet commitment")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}
	log := cfg.Logger(os.Stderr)

	keys, err := loadKeys(cfg, log)
	if err != nil {
		return err
	}
	srv, err := server.New(cfg, keys, log)
	if err != nil {
		return err
	}

	hs := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("serving")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cmdPlay(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	gameFlags(fs, &cfg)
	fs.StringVar(&cfg.KeysDir, "keys", cfg.KeysDir, "keys directory")
	fs.BoolVar(&cfg.Proofs, "proofs", cfg.Proofs, "prove every shot against the fleet commitment")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}
	log := cfg.Logger(os.Stderr)
	keys, err := loadKeys(cfg, log)
	if err != nil {
		return err
	}
	return runPlay(cfg, keys, os.Stdin, os.Stdout, log)
}

func cmdKeys(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	fs.StringVar(&cfg.KeysDir, "keys", cfg.KeysDir, "keys directory")
	fs.IntVar(&cfg.Dimension, "dim", cfg.Dimension, "board side length")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}
	depth := merkle.Depth(cfg.Dimension * cfg.Dimension)
	if err := zk.EnsureShotKeys(cfg.KeysDir, depth); err != nil {
		return err
	}
	fmt.Println("✓ keys ready in", cfg.KeysDir, "for depth", depth)
	return nil
}

func cmdVerify(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	fs.StringVar(&cfg.KeysDir, "keys", cfg.KeysDir, "keys directory")
	fs.IntVar(&cfg.Dimension, "dim", cfg.Dimension, "board side length")
	vkPath := fs.String("vk", "", "verifying key file (defaults to the one in --keys)")
	rootHex := fs.String("root", "", "committed root, hex prefixed 0x")
	proofPath := fs.String("proof", "proof.json", "proof payload json")
	row := fs.Int("row", -1, "expected row")
	col := fs.Int("col", -1, "expected col")
	if err := parse(fs, &cfg, args); err != nil {
		return err
	}

	if *rootHex == "" {
		return errors.New("--root required")
	}
	root, err := codec.ParseHex(*rootHex)
	if err != nil {
		return err
	}
	var payload codec.ShotProofPayload
	if err := loadJSON(*proofPath, &payload); err != nil {
		return err
	}

	n := cfg.Dimension
	if *row >= 0 && *col >= 0 {
		if *row >= n || *col >= n {
			return fmt.Errorf("row/col outside a %dx%d board", n, n)
		}
		if want := *row*n + *col; payload.Public.Index != want {
			return fmt.Errorf("proof is for (%d, %d) but expected (%d, %d)",
				payload.Public.Index/n, payload.Public.Index%n, *row, *col)
		}
	}
	if *vkPath == "" {
		*vkPath = zk.VerifyingKeyPath(cfg.KeysDir, merkle.Depth(n*n))
	}

	ok, err := zk.VerifyShot(*vkPath, payload.Proof, payload.Public, root)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("invalid proof")
	}
	fmt.Println(map[uint8]string{0: "MISS", 1: "HIT"}[payload.Public.Hit])
	return nil
}

func saveJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	return dec.Decode(v)
}
