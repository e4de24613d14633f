package game

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Event announces a state change. Attack is set when a shot caused it.
type Event struct {
	Game   uuid.UUID     `json:"game"`
	Seq    uint64        `json:"seq"`
	State  State         `json:"state"`
	Stage  Stage         `json:"stage"`
	By     Player        `json:"by"`
	Attack *AttackResult `json:"attack,omitempty"`
}

// dispatcher holds the subscribers of one game. The game stamps and gates
// events; the dispatcher only calls subscribers, in subscription order.
type dispatcher struct {
	mu   sync.Mutex
	subs map[int]func(Event)
	next int
}

func newDispatcher() *dispatcher {
	return &dispatcher{subs: make(map[int]func(Event))}
}

func (d *dispatcher) subscribe(fn func(Event)) func() {
	d.mu.Lock()
	id := d.next
	d.next++
	d.subs[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

func (d *dispatcher) deliver(e Event) {
	d.mu.Lock()
	ids := make([]int, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, d.subs[id])
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
