package can

import "sync"

// LoopbackBus is an in-memory CAN bus for tests and simulations. Every
// endpoint opened from the same bus sees frames sent by the others, the way
// nodes on a physical bus do.
type LoopbackBus struct {
	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopbackBus creates an empty loopback bus.
func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{endpoints: make(map[*loopEndpoint]struct{})}
}

// Open attaches a new endpoint to the bus.
func (b *LoopbackBus) Open() Bus {
	ep := &loopEndpoint{
		bus:    b,
		ch:     make(chan Frame, 64),
		closed: make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ep.markDead()
		return ep
	}
	b.endpoints[ep] = struct{}{}
	return ep
}

// Close shuts the bus down and detaches every endpoint.
func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.markDead()
	}
	b.endpoints = nil
	return nil
}

type loopEndpoint struct {
	bus *LoopbackBus
	ch  chan Frame

	mu     sync.Mutex
	dead   bool
	closed chan struct{}
}

// Send broadcasts the frame to all other endpoints on the same bus.
func (e *loopEndpoint) Send(frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	dead := e.dead
	e.mu.Unlock()
	if dead {
		return ErrClosed
	}

	// Snapshot peers so delivery happens outside the bus lock.
	e.bus.mu.RLock()
	if e.bus.closed {
		e.bus.mu.RUnlock()
		return ErrClosed
	}
	peers := make([]*loopEndpoint, 0, len(e.bus.endpoints))
	for ep := range e.bus.endpoints {
		if ep != e {
			peers = append(peers, ep)
		}
	}
	e.bus.mu.RUnlock()

	for _, p := range peers {
		select {
		case p.ch <- frame:
		case <-p.closed:
		}
	}
	return nil
}

// Receive waits for the next frame.
func (e *loopEndpoint) Receive() (Frame, error) {
	f, ok := <-e.ch
	if !ok {
		return Frame{}, ErrClosed
	}
	return f, nil
}

// Close detaches the endpoint from the bus.
func (e *loopEndpoint) Close() error {
	e.bus.mu.Lock()
	defer e.bus.mu.Unlock()
	e.markDead()
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
	return nil
}

// markDead closes the endpoint's channels once. Callers hold the bus lock
// when the endpoint is still attached.
func (e *loopEndpoint) markDead() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return
	}
	e.dead = true
	close(e.closed)
	close(e.ch)
}
