package button

import (
	"fmt"
	"sync"
	"time"
)

// Handler is the button event state machine. It tracks whether a teaching
// or replay session is active, asks the controller to switch modes through
// the configured SwitchFunc, and acknowledges finished replays through the
// configured CompletionSender.
//
// Teaching and replaying are mutually exclusive; a rejected or failed
// request leaves the current mode untouched. One mutex guards the whole
// check-request-update sequence, so concurrent callers observe each event
// as atomic. The controller callback runs under that mutex and may block;
// latency-sensitive integrations should dispatch controller work
// asynchronously and deliver events from a single goroutine.
type Handler struct {
	mu       sync.Mutex
	switchFn SwitchFunc
	sender   CompletionSender
	logFn    LogFunc
	now      func() time.Time

	teaching   bool
	replaying  bool
	trajectory string
	lastIface  string
}

// Option configures a Handler at construction time.
type Option func(*Handler)

// WithControllerSwitch sets the controller mode-change callback. Without
// one, button events are logged and dropped.
func WithControllerSwitch(fn SwitchFunc) Option {
	return func(h *Handler) { h.switchFn = fn }
}

// WithCompletionSender sets where replay-completion signals go, normally
// the Driver the handler observes.
func WithCompletionSender(s CompletionSender) Option {
	return func(h *Handler) { h.sender = s }
}

// WithLogFunc sets the diagnostics sink.
func WithLogFunc(fn LogFunc) Option {
	return func(h *Handler) { h.logFn = fn }
}

// WithClock overrides the wall clock used for trajectory names.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler builds an idle handler. All collaborators are optional;
// missing ones degrade to logged no-ops.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnButtonEvent implements Observer. It is the single entry point for
// transport-decoded button statuses.
func (h *Handler) OnButtonEvent(iface string, status Status) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logf("button event: interface=%s status=%s", iface, status)
	h.lastIface = iface

	switch status {
	case StatusEntryTeach:
		h.entryTeach(iface)
	case StatusExitTeach:
		h.exitTeach(iface)
	case StatusTeachRepeat:
		h.teachRepeat(iface)
	default:
		h.logf("unhandled button status %d on %s", status, iface)
	}
}

// NotifyReplayComplete is called by the motion layer when a replay has run
// to the end. Outside of a replay it is a silent no-op, which absorbs
// spurious or duplicate completion notifications.
func (h *Handler) NotifyReplayComplete(iface string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.replaying {
		return
	}
	h.replaying = false
	h.logf("replay complete: interface=%s trajectory=%s", iface, h.trajectory)
	if h.sender != nil {
		h.sender.SendReplayComplete(iface)
	}
}

// IsTeaching reports whether a recording session is active.
func (h *Handler) IsTeaching() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.teaching
}

// IsReplaying reports whether a replay is in progress.
func (h *Handler) IsReplaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replaying
}

// Trajectory returns the identifier of the current or most recent session.
func (h *Handler) Trajectory() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.trajectory
}

// LastInterface returns the interface name of the most recent button event.
func (h *Handler) LastInterface() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastIface
}

func (h *Handler) entryTeach(iface string) {
	if h.teaching {
		h.logf("already teaching, duplicate entry ignored")
		return
	}
	if h.replaying {
		h.logf("replay in progress, cannot enter teaching")
		return
	}

	// Names are second-granular; re-entry within the same second reuses
	// the previous name and the controller decides what that means for
	// stored trajectories.
	h.trajectory = fmt.Sprintf("button_traj_%d", h.now().Unix())

	if h.switchFn == nil {
		h.logf("no controller switch configured, dropping entry-teach")
		return
	}
	if h.switchFn(CommandStartRecord, h.trajectory) {
		h.teaching = true
		h.logf("teaching started: interface=%s trajectory=%s", iface, h.trajectory)
	} else {
		h.logf("controller refused start-record for %s", h.trajectory)
	}
}

func (h *Handler) exitTeach(iface string) {
	if !h.teaching {
		h.logf("not teaching, exit ignored")
		return
	}
	if h.switchFn == nil {
		h.logf("no controller switch configured, dropping exit-teach")
		return
	}
	if h.switchFn(CommandStopRecord, h.trajectory) {
		h.teaching = false
		h.logf("teaching finished: interface=%s trajectory=%s", iface, h.trajectory)
	} else {
		h.logf("controller refused stop-record for %s", h.trajectory)
	}
}

func (h *Handler) teachRepeat(iface string) {
	if h.teaching {
		h.logf("teaching in progress, cannot start replay")
		return
	}
	if h.replaying {
		h.logf("already replaying, duplicate request ignored")
		return
	}
	if h.switchFn == nil {
		h.logf("no controller switch configured, dropping teach-repeat")
		return
	}
	if h.switchFn(CommandStartReplay, h.trajectory) {
		h.replaying = true
		h.logf("replay started: interface=%s trajectory=%s", iface, h.trajectory)
	} else {
		h.logf("controller refused start-replay for %s", h.trajectory)
	}
}

func (h *Handler) logf(format string, args ...any) {
	if h.logFn == nil {
		return
	}
	h.logFn(fmt.Sprintf(format, args...))
}
