package canbutton

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/robohw/teachbutton/button"
	"github.com/robohw/teachbutton/can"
)

// Transport implements button.Driver for one logical CAN interface.
//
// It owns a background reader (via can.Mux) that decodes pendant status
// frames and delivers them to registered observers in bus order on a single
// goroutine. Outbound completion signals are fire-and-forget: send failures
// are logged and absorbed, matching the hardware signal path.
type Transport struct {
	name string
	bus  can.Bus
	mux  *can.Mux
	log  zerolog.Logger

	mu        sync.Mutex
	observers map[button.Observer]struct{}
	recvFn    button.RawReceiveFunc

	cancelStatus func()
	cancelRaw    func()
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

// New wires a Transport for the named interface on top of an open bus and
// starts its reader. The Transport takes ownership of the bus; Close shuts
// both down.
func New(name string, bus can.Bus, logger zerolog.Logger) *Transport {
	t := &Transport{
		name:      name,
		bus:       bus,
		log:       logger.With().Str("component", "canbutton").Str("interface", name).Logger(),
		observers: make(map[button.Observer]struct{}),
	}
	t.mux = can.NewMux(bus)

	statusCh, cancelStatus := t.mux.Subscribe(StatusFilter(), 16)
	rawCh, cancelRaw := t.mux.Subscribe(nil, 64)
	t.cancelStatus = cancelStatus
	t.cancelRaw = cancelRaw

	t.wg.Add(2)
	go t.runStatus(statusCh)
	go t.runRaw(rawCh)
	return t
}

// Interface returns the logical interface name the transport serves.
func (t *Transport) Interface() string { return t.name }

// SendReplayComplete implements button.Driver. A mismatching interface name
// is dropped: the transport serves exactly one bus.
func (t *Transport) SendReplayComplete(iface string) {
	if iface != t.name {
		t.log.Warn().Str("requested", iface).Msg("completion signal for foreign interface dropped")
		return
	}
	if err := t.bus.Send(ReplayCompleteFrame()); err != nil {
		t.log.Error().Err(err).Msg("replay completion send failed")
		return
	}
	t.log.Debug().Msg("replay completion sent")
}

// AddObserver implements button.Driver.
func (t *Transport) AddObserver(o button.Observer) {
	if o == nil {
		return
	}
	t.mu.Lock()
	t.observers[o] = struct{}{}
	t.mu.Unlock()
}

// RemoveObserver implements button.Driver. Unknown observers are ignored.
func (t *Transport) RemoveObserver(o button.Observer) {
	t.mu.Lock()
	delete(t.observers, o)
	t.mu.Unlock()
}

// SetReceiveCallback implements button.Driver. The callback sees every
// frame on the bus, not only pendant status frames.
func (t *Transport) SetReceiveCallback(fn button.RawReceiveFunc) {
	t.mu.Lock()
	t.recvFn = fn
	t.mu.Unlock()
}

// Close stops the reader goroutines and closes the underlying bus.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.cancelStatus()
		t.cancelRaw()
		_ = t.mux.Close()
		err = t.bus.Close()
		t.wg.Wait()
	})
	return err
}

func (t *Transport) runStatus(frames <-chan can.Frame) {
	defer t.wg.Done()
	for f := range frames {
		status, ok := DecodeStatus(f)
		if !ok {
			t.log.Debug().Str("frame", f.String()).Msg("undecodable status frame")
			continue
		}
		t.log.Debug().Stringer("status", status).Msg("button status received")
		for _, o := range t.snapshotObservers() {
			o.OnButtonEvent(t.name, status)
		}
	}
}

func (t *Transport) runRaw(frames <-chan can.Frame) {
	defer t.wg.Done()
	for f := range frames {
		t.mu.Lock()
		fn := t.recvFn
		t.mu.Unlock()
		if fn != nil {
			fn(f.ID, f.Data[:f.Len])
		}
	}
}

// snapshotObservers copies the registry so callbacks run without the lock.
func (t *Transport) snapshotObservers() []button.Observer {
	t.mu.Lock()
	defer t.mu.Unlock()
	obs := make([]button.Observer, 0, len(t.observers))
	for o := range t.observers {
		obs = append(obs, o)
	}
	return obs
}
