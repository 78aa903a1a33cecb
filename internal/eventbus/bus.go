package eventbus

import (
	"sync"

	"github.com/jonboulle/clockwork"
)

// Bus fans scheduler and playback events out to in-process subscribers.
// Publish never blocks; a subscriber whose buffer is full misses the event.
//
// The bus keeps the most recent event of every type, so a subscriber that
// attaches late (a status reporter started after the schedule, or one being
// restarted) can catch up with Last instead of waiting for the next change.
type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
	Last(typ string) (Event, bool)
}

type Option func(*memBus)

// WithClock stamps events that arrive without a Time.
func WithClock(c clockwork.Clock) Option {
	return func(b *memBus) {
		if c != nil {
			b.clock = c
		}
	}
}

func New(opts ...Option) Bus {
	b := &memBus{
		clock: clockwork.NewRealClock(),
		subs:  map[uint64]chan Event{},
		last:  map[string]Event{},
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

type memBus struct {
	clock clockwork.Clock

	mu   sync.Mutex
	seq  uint64
	subs map[uint64]chan Event
	last map[string]Event
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = b.clock.Now()
	}

	b.mu.Lock()
	if e.Type != "" {
		b.last[e.Type] = e
	}
	chs := make([]chan Event, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.Unlock()

	for _, ch := range chs {
		// unsubscribe may close ch between the snapshot and the send
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.seq++
	id := b.seq
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Last returns the most recent event published with typ.
func (b *memBus) Last(typ string) (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.last[typ]
	return e, ok
}

// Nop discards everything.
type Nop struct{}

func (Nop) Publish(Event) {}

func (Nop) Subscribe(int) (<-chan Event, func()) {
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}

func (Nop) Last(string) (Event, bool) { return Event{}, false }
