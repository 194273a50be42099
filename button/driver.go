package button

// Observer receives decoded button events from a Driver. Multiple observers
// may be registered with one driver; per interface, events arrive in bus
// order on a single goroutine.
type Observer interface {
	OnButtonEvent(iface string, status Status)
}

// RawReceiveFunc is an optional passthrough for raw frames, for diagnostics.
// The core state machine never uses it.
type RawReceiveFunc func(id uint32, data []byte)

// Driver is the capability set a button transport must implement. It
// decouples the state machine from bus wiring: the transport decodes raw
// frames into Status values before delivering them.
type Driver interface {
	// SendReplayComplete emits the replay-completion signal on the given
	// logical interface. Fire-and-forget: transmission failures stay inside
	// the transport and are never surfaced to the state machine.
	SendReplayComplete(iface string)

	// AddObserver registers an observer of button events.
	AddObserver(o Observer)

	// RemoveObserver unregisters an observer. Removing an observer that was
	// never added is a no-op.
	RemoveObserver(o Observer)

	// SetReceiveCallback installs the optional raw-frame passthrough.
	SetReceiveCallback(fn RawReceiveFunc)
}

// CompletionSender is the outbound slice of Driver the handler needs to
// acknowledge a finished replay.
type CompletionSender interface {
	SendReplayComplete(iface string)
}
