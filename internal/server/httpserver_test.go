package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship/internal/config"
	"battleship/internal/game"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Seed = 5

	srv, err := New(cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServer_Setup(t *testing.T) {
	_, ts := newTestServer(t)

	var st statusResp
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodGet, "/v1/status", nil, &st))
	assert.Equal(t, game.StateSetup, st.State)
	assert.Equal(t, 10, st.Dimension)
	assert.NotEmpty(t, st.Commitment.RootHex)
	assert.Empty(t, st.VKB64)

	t.Run("fail out of bounds", func(t *testing.T) {
		var e errorBody
		code := do(t, ts, http.MethodPost, "/v1/ships",
			map[string]any{"type": "Carrier", "orientation": "Horizontal", "row": 0, "col": 7}, &e)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "OUT_OF_BOUNDS", e.Code)
	})

	t.Run("fail unknown ship type", func(t *testing.T) {
		var e errorBody
		code := do(t, ts, http.MethodPost, "/v1/ships",
			map[string]any{"type": "Dinghy", "orientation": "h", "row": 0, "col": 0}, &e)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	var placed struct {
		ID game.ShipID `json:"id"`
	}
	code := do(t, ts, http.MethodPost, "/v1/ships",
		map[string]any{"type": "Carrier", "orientation": "h", "row": 0, "col": 0}, &placed)
	require.Equal(t, http.StatusCreated, code)

	t.Run("fail start with incomplete fleet", func(t *testing.T) {
		var e errorBody
		assert.Equal(t, http.StatusConflict, do(t, ts, http.MethodPost, "/v1/start", nil, &e))
		assert.Equal(t, "INCOMPLETE_FLEET", e.Code)
	})

	t.Run("remove ship", func(t *testing.T) {
		var e errorBody
		assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodDelete, "/v1/ships?id=99", nil, &e))
		assert.Equal(t, "UNKNOWN_SHIP_ID", e.Code)
		assert.Equal(t, http.StatusNoContent, do(t, ts, http.MethodDelete, fmt.Sprintf("/v1/ships?id=%d", placed.ID), nil, nil))
		assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodDelete, "/v1/ships?id=x", nil, &e))
	})

	var auto struct {
		Ships []game.Ship `json:"ships"`
	}
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/ships/auto", nil, &auto))
	assert.Len(t, auto.Ships, game.FleetSize)

	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/start", nil, &st))
	assert.Equal(t, game.StateHumanAttack, st.State)
	assert.Equal(t, 5, st.ShipsPlaced)

	var e errorBody
	assert.Equal(t, http.StatusConflict, do(t, ts, http.MethodPost, "/v1/ships/auto", nil, &e))
	assert.Equal(t, "INVALID_TURN", e.Code)
}

func TestServer_Play(t *testing.T) {
	_, ts := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/ships/auto", nil, nil))
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/start", nil, nil))

	var rep struct {
		Result game.AttackResult  `json:"result"`
		Reply  *game.AttackResult `json:"reply"`
		State  game.State         `json:"state"`
	}
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/attack", map[string]int{"row": 4, "col": 4}, &rep))
	assert.Equal(t, game.Coord{Row: 4, Col: 4}, rep.Result.Target)
	require.NotNil(t, rep.Reply)
	assert.Equal(t, game.StateHumanAttack, rep.State)

	var e errorBody
	assert.Equal(t, http.StatusConflict, do(t, ts, http.MethodPost, "/v1/attack", map[string]int{"row": 4, "col": 4}, &e))
	assert.Equal(t, "DUPLICATE_ATTACK", e.Code)
	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodPost, "/v1/attack", map[string]int{"row": 10, "col": 0}, &e))
	assert.Equal(t, "OUT_OF_BOUNDS", e.Code)

	var b boardResp
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodGet, "/v1/board?player=computer", nil, &b))
	require.Len(t, b.Cells, 10)
	for _, row := range b.Cells {
		assert.NotContains(t, row, game.ShipIntact)
	}
	assert.NotEqual(t, game.Ocean, b.Cells[4][4])

	require.Equal(t, http.StatusOK, do(t, ts, http.MethodGet, "/v1/board", nil, &b))
	assert.Equal(t, game.Human, b.Player)
	assert.Len(t, b.Ships, game.FleetSize)

	assert.Equal(t, http.StatusBadRequest, do(t, ts, http.MethodGet, "/v1/board?player=fish", nil, &e))
	assert.Equal(t, http.StatusConflict, do(t, ts, http.MethodGet, "/v1/reveal", nil, &e))
	assert.Equal(t, http.StatusNotFound, do(t, ts, http.MethodGet, "/v1/proof?row=4&col=4", nil, &e))

	var v map[string]any
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/verify", map[string]any{}, &v))
	assert.Equal(t, false, v["valid"])
}

func TestServer_Reveal(t *testing.T) {
	srv, ts := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/ships/auto", nil, nil))
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/start", nil, nil))

	g := srv.Session().Game()
	for i := 0; i < 100 && !g.State().Terminal(); i++ {
		require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/attack", map[string]int{"row": i / 10, "col": i % 10}, nil))
	}
	require.True(t, g.State().Terminal())

	var rev revealResp
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodGet, "/v1/reveal", nil, &rev))
	assert.True(t, rev.Consistent, rev.Problem)
	assert.Len(t, rev.Reveal.Ships, game.FleetSize)
	assert.Equal(t, srv.Session().Commitment(), rev.Commitment)
}

func TestServer_NewGame(t *testing.T) {
	srv, ts := newTestServer(t)
	first := srv.Session().Game().ID().String()
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/ships/auto", nil, nil))
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/start", nil, nil))

	var st statusResp
	require.Equal(t, http.StatusCreated, do(t, ts, http.MethodPost, "/v1/games", nil, &st))
	assert.NotEqual(t, first, st.Game)
	assert.Equal(t, game.StateSetup, st.State)
	assert.Zero(t, st.ShipsPlaced)
}

func TestServer_CORS(t *testing.T) {
	_, ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/attack", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func dialEvents(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/events" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) game.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev game.Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestServer_Events(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dialEvents(t, ts, "?since=0")

	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/ships/auto", nil, nil))
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/start", nil, nil))
	require.Equal(t, http.StatusOK, do(t, ts, http.MethodPost, "/v1/attack", map[string]int{"row": 0, "col": 0}, nil))

	id := srv.Session().Game().ID()
	want := []game.State{game.StateHumanAttack, game.StateAiAttack, game.StateHumanAttack}
	for i, st := range want {
		ev := readEvent(t, conn)
		assert.Equal(t, id, ev.Game)
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, st, ev.State)
	}

	t.Run("late subscriber replays history", func(t *testing.T) {
		late := dialEvents(t, ts, "?since=1")
		ev := readEvent(t, late)
		assert.Equal(t, uint64(2), ev.Seq)
		assert.Equal(t, game.Human, ev.By)
		require.NotNil(t, ev.Attack)
		assert.Equal(t, game.Coord{Row: 0, Col: 0}, ev.Attack.Target)
		assert.Equal(t, uint64(3), readEvent(t, late).Seq)
	})

	t.Run("fail bad since", func(t *testing.T) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/events?since=x"
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := newHub(zerolog.Nop())
	c := h.register()
	for i := 0; i < clientBuf+1; i++ {
		h.broadcast(game.Event{Seq: uint64(i + 1)})
	}
	assert.Zero(t, h.size())

	n := 0
	for range c.send {
		n++
	}
	assert.Equal(t, clientBuf, n)
	h.unregister(c)
}
