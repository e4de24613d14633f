package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"battleship/internal/app"
	"battleship/internal/codec"
	"battleship/internal/config"
	"battleship/internal/game"
	"battleship/internal/zk"
)

// Server exposes one game session at a time over HTTP. POST /v1/games
// replaces the session with a fresh one.
type Server struct {
	cfg  config.Config
	keys *zk.Keys
	log  zerolog.Logger
	opts []game.Option
	hub  *hub

	mu      sync.RWMutex
	session *app.Session
	unsub   func()
	vkB64   string
}

// New builds a server and its first session. keys may be nil to serve
// without shot proofs.
func New(cfg config.Config, keys *zk.Keys, log zerolog.Logger, opts ...game.Option) (*Server, error) {
	s := &Server{
		cfg:  cfg,
		keys: keys,
		log:  log,
		opts: opts,
		hub:  newHub(log),
	}
	if keys != nil {
		vk, err := keys.VerifyingKey()
		if err != nil {
			return nil, err
		}
		s.vkB64 = base64.StdEncoding.EncodeToString(vk)
	}
	if _, err := s.newSession(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) newSession() (*app.Session, error) {
	sess, err := app.NewSession(s.cfg, s.keys, s.log, s.opts...)
	if err != nil {
		return nil, err
	}
	unsub := sess.Game().Subscribe(s.hub.broadcast)

	s.mu.Lock()
	old := s.unsub
	s.session, s.unsub = sess, unsub
	s.mu.Unlock()
	if old != nil {
		old()
	}
	return sess, nil
}

// Session returns the game currently being served.
func (s *Server) Session() *app.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/games", s.handleNewGame)
	mux.HandleFunc("POST /v1/ships", s.handlePlaceShip)
	mux.HandleFunc("DELETE /v1/ships", s.handleRemoveShip)
	mux.HandleFunc("POST /v1/ships/auto", s.handleAutoPlace)
	mux.HandleFunc("POST /v1/start", s.handleStart)
	mux.HandleFunc("POST /v1/attack", s.handleAttack)
	mux.HandleFunc("GET /v1/board", s.handleBoard)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/proof", s.handleProof)
	mux.HandleFunc("POST /v1/verify", s.handleVerify)
	mux.HandleFunc("GET /v1/reveal", s.handleReveal)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
}

// Handler is the full middleware stack around Routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Routes(mux)
	return WithLogging(s.log, WithCORS(mux))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, err error) {
	code := game.Code(err)
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, game.ErrUnknownShipID):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrInvalidTurn),
		errors.Is(err, game.ErrDuplicateAttack),
		errors.Is(err, game.ErrIncompleteFleet):
		status = http.StatusConflict
	case errors.Is(err, game.ErrNoTargets):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "BAD_REQUEST"})
}

// === Setup ===

func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	if _, err := s.newSession(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: "UNKNOWN"})
		return
	}
	writeJSON(w, http.StatusCreated, s.statusPayload())
}

type placeReq struct {
	Type        game.ShipType    `json:"type"`
	Orientation game.Orientation `json:"orientation"`
	Row         int              `json:"row"`
	Col         int              `json:"col"`
}

func (s *Server) handlePlaceShip(w http.ResponseWriter, r *http.Request) {
	var req placeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad json: "+err.Error())
		return
	}
	id, err := s.Session().Game().PlaceShip(req.Type, req.Orientation, req.Row, req.Col)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleRemoveShip(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		badRequest(w, "id must be an integer")
		return
	}
	if err := s.Session().Game().RemoveShip(game.ShipID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAutoPlace(w http.ResponseWriter, r *http.Request) {
	g := s.Session().Game()
	if err := g.AutoPlace(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ships": g.Ships(game.Human)})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.Session().Game().Start(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.statusPayload())
}

// === Play ===

type attackReq struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	var req attackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "bad json: "+err.Error())
		return
	}
	rep, err := s.Session().Attack(req.Row, req.Col)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

type boardResp struct {
	Player    game.Player        `json:"player"`
	Dimension int                `json:"dimension"`
	Cells     [][]game.CellState `json:"cells"`
	Ships     []game.Ship        `json:"ships"`
	ShipsSunk int                `json:"shipsSunk"`
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("player")
	if name == "" {
		name = "human"
	}
	p, err := game.ParsePlayer(name)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	g := s.Session().Game()
	writeJSON(w, http.StatusOK, boardResp{
		Player:    p,
		Dimension: g.Dimension(),
		Cells:     g.VisibleState(p),
		Ships:     g.Ships(p),
		ShipsSunk: g.ShipsSunk(p),
	})
}

type statusResp struct {
	Game        string             `json:"game"`
	State       game.State         `json:"state"`
	Stage       game.Stage         `json:"stage"`
	Dimension   int                `json:"dimension"`
	ShipsPlaced int                `json:"shipsPlaced"`
	ShipsSunk   map[string]int     `json:"shipsSunk"`
	Commitment  codec.Commitment   `json:"commitment"`
	LastHuman   *game.AttackResult `json:"lastHuman,omitempty"`
	LastAi      *game.AttackResult `json:"lastAi,omitempty"`
	VKB64       string             `json:"vkB64,omitempty"`
}

func (s *Server) statusPayload() statusResp {
	sess := s.Session()
	g := sess.Game()
	st := statusResp{
		Game:        g.ID().String(),
		State:       g.State(),
		Stage:       g.Stage(),
		Dimension:   g.Dimension(),
		ShipsPlaced: g.ShipsPlaced(game.Human),
		ShipsSunk: map[string]int{
			"human":    g.ShipsSunk(game.Human),
			"computer": g.ShipsSunk(game.Computer),
		},
		Commitment: sess.Commitment(),
		VKB64:      s.vkB64,
	}
	if a, ok := g.LastAttack(game.Human); ok {
		st.LastHuman = &a
	}
	if a, ok := g.LastAttack(game.Computer); ok {
		st.LastAi = &a
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.statusPayload())
}

// === Fair play ===

func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	row, err1 := strconv.Atoi(q.Get("row"))
	col, err2 := strconv.Atoi(q.Get("col"))
	if err1 != nil || err2 != nil {
		badRequest(w, "row and col must be integers")
		return
	}
	p, ok := s.Session().Proof(game.Coord{Row: row, Col: col})
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no proof for that cell", Code: "NOT_FOUND"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var payload codec.ShotProofPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		badRequest(w, "bad json: "+err.Error())
		return
	}
	res, err := s.Session().VerifyShot(payload)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type revealResp struct {
	Reveal     codec.Reveal     `json:"reveal"`
	Commitment codec.Commitment `json:"commitment"`
	Consistent bool             `json:"consistent"`
	Problem    string           `json:"problem,omitempty"`
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sess := s.Session()
	rev, err := sess.Reveal()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := revealResp{Reveal: rev, Commitment: sess.Commitment(), Consistent: true}
	if err := app.VerifyReveal(resp.Commitment, rev, sess.Game().VisibleState(game.Computer)); err != nil {
		resp.Consistent, resp.Problem = false, err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
