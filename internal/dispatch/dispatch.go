package dispatch

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/stratalake/eventstream/internal/event"
)

// Handler consumes a dispatched envelope.
type Handler func(event.Envelope)

// Predicate filters envelopes before a handler sees them.
type Predicate func(event.Envelope) bool

// Options configures a subscription.
type Options struct {
	Predicate Predicate // Optional filter; nil accepts everything
	Once      bool      // Remove the subscription after its first delivery
	Priority  int       // Higher fires earlier; unset means 0
	Replay    bool      // Deliver buffered history on subscribe
}

// subscription is one entry in the table.
type subscription struct {
	id      string
	kind    event.Kind
	handler Handler
	opts    Options
	seq     uint64 // Registration order, tiebreak for equal priority
}

// Stats contains dispatcher runtime statistics.
type Stats struct {
	Dispatched    int64 // Envelopes offered to the subscription table
	Delivered     int64 // Handler invocations, replay included
	Intercepted   int64 // Envelopes consumed by control intercepts
	HandlerPanics int64 // Recovered handler panics
}

// Dispatcher demultiplexes inbound envelopes to registered subscriptions.
//
// Dispatch must be invoked from a single goroutine (the client's read loop);
// Subscribe and Unsubscribe are safe from any goroutine.
type Dispatcher struct {
	logger *slog.Logger
	replay *ReplayBuffer

	mu         sync.Mutex
	subs       map[string]*subscription
	intercepts map[event.Kind]Handler
	nextSeq    uint64

	dispatched    int64
	delivered     int64
	intercepted   int64
	handlerPanics int64
}

// New creates a Dispatcher with a replay history of replayLimit envelopes
// per kind.
func New(replayLimit int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger:     logger,
		replay:     NewReplayBuffer(replayLimit),
		subs:       make(map[string]*subscription),
		intercepts: make(map[event.Kind]Handler),
	}
}

// Intercept registers an in-band control handler for a kind. Intercepted
// envelopes are consumed before generic dispatch and never buffered or
// forwarded to subscribers.
func (d *Dispatcher) Intercept(kind event.Kind, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.intercepts[kind] = handler
}

// Subscribe registers a handler for a kind and returns the subscription id.
// With Options.Replay set, buffered envelopes for the kind that satisfy the
// predicate are delivered in arrival order before Subscribe returns.
func (d *Dispatcher) Subscribe(kind event.Kind, handler Handler, opts Options) string {
	sub := &subscription{
		id:      uuid.NewString(),
		kind:    kind,
		handler: handler,
		opts:    opts,
	}

	d.mu.Lock()
	sub.seq = d.nextSeq
	d.nextSeq++
	d.subs[sub.id] = sub
	d.mu.Unlock()

	if opts.Replay {
		for _, env := range d.replay.Get(kind) {
			if !d.deliver(sub, env) {
				continue
			}
			if sub.opts.Once {
				d.Unsubscribe(sub.id)
				break
			}
		}
	}

	return sub.id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (d *Dispatcher) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.subs, id)
}

// Dispatch routes one inbound envelope: control intercepts first, then the
// replay buffer, then priority-ordered delivery to matching subscriptions.
func (d *Dispatcher) Dispatch(env event.Envelope) {
	d.mu.Lock()
	if intercept, ok := d.intercepts[env.Type]; ok {
		d.intercepted++
		d.mu.Unlock()
		intercept(env)
		return
	}
	d.dispatched++

	matching := make([]*subscription, 0, 4)
	for _, sub := range d.subs {
		if sub.kind == env.Type {
			matching = append(matching, sub)
		}
	}
	d.mu.Unlock()

	d.replay.Push(env)

	sort.Slice(matching, func(i, j int) bool {
		if matching[i].opts.Priority != matching[j].opts.Priority {
			return matching[i].opts.Priority > matching[j].opts.Priority
		}
		return matching[i].seq < matching[j].seq
	})

	for _, sub := range matching {
		if !d.deliver(sub, env) {
			continue
		}
		if sub.opts.Once {
			d.Unsubscribe(sub.id)
		}
	}
}

// deliver invokes one handler if the predicate accepts the envelope,
// isolating panics. Reports whether the handler ran.
func (d *Dispatcher) deliver(sub *subscription, env event.Envelope) (fired bool) {
	if sub.opts.Predicate != nil && !sub.opts.Predicate(env) {
		return false
	}

	// A concurrent Unsubscribe may have raced the snapshot.
	d.mu.Lock()
	_, live := d.subs[sub.id]
	if live {
		d.delivered++
	}
	d.mu.Unlock()
	if !live {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			d.mu.Lock()
			d.handlerPanics++
			d.mu.Unlock()
			d.logger.Error("subscription handler panicked",
				"subscription", sub.id,
				"kind", sub.kind,
				"panic", r,
			)
			fired = true
		}
	}()

	sub.handler(env)
	return true
}

// Replay exposes the buffer for the metrics and client layers.
func (d *Dispatcher) Replay() *ReplayBuffer {
	return d.replay
}

// Stats returns current dispatcher statistics.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Stats{
		Dispatched:    d.dispatched,
		Delivered:     d.delivered,
		Intercepted:   d.intercepted,
		HandlerPanics: d.handlerPanics,
	}
}

// Subscriptions returns the number of live subscriptions.
func (d *Dispatcher) Subscriptions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}
