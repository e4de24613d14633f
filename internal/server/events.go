package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"battleship/internal/game"
)

const (
	writeWait  = 10 * time.Second
	clientBuf  = 64
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// In dev we allow any origin, same as WithCORS.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	send chan game.Event
}

// hub fans game events out to websocket clients. broadcast runs on the
// game's dispatch path, so it never blocks: a client whose buffer is full
// is dropped.
type hub struct {
	log     zerolog.Logger
	mu      sync.Mutex
	clients map[*client]struct{}
}

func newHub(log zerolog.Logger) *hub {
	return &hub{log: log, clients: make(map[*client]struct{})}
}

func (h *hub) register() *client {
	c := &client{send: make(chan game.Event, clientBuf)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) broadcast(ev game.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.log.Warn().Uint64("seq", ev.Seq).Msg("dropping slow event client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// handleEvents streams game events as JSON text frames. ?since=N first
// replays the current game's events after sequence number N.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var since uint64
	replay := r.URL.Query().Has("since")
	if replay {
		n, err := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)
		if err != nil {
			badRequest(w, "since must be a sequence number")
			return
		}
		since = n
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	c := s.hub.register()
	defer s.hub.unregister(c)

	// the reader only notices the peer going away
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(ev game.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(ev)
	}

	sess := s.Session()
	var (
		replayed uuid.UUID
		sent     uint64
	)
	if replay {
		replayed = sess.Game().ID()
		for _, ev := range sess.Events(since) {
			if err := write(ev); err != nil {
				return
			}
			sent = ev.Seq
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
					time.Now().Add(writeWait))
				return
			}
			if ev.Game == replayed && ev.Seq <= sent {
				continue
			}
			if err := write(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
