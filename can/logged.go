package can

import "github.com/rs/zerolog"

// loggedBus decorates a Bus with frame-level tracing.
type loggedBus struct {
	inner  Bus
	log    zerolog.Logger
	filter FrameFilter
}

// NewLoggedBus wraps a Bus so that every sent and received frame is logged
// at debug level. If filter is non-nil, only matching frames are logged;
// errors are always logged.
func NewLoggedBus(inner Bus, logger zerolog.Logger, filter FrameFilter) Bus {
	return &loggedBus{inner: inner, log: logger, filter: filter}
}

func (l *loggedBus) Send(frame Frame) error {
	if l.filter == nil || l.filter(frame) {
		l.logFrame("can send", frame)
	}
	err := l.inner.Send(frame)
	if err != nil {
		l.log.Error().Err(err).Uint32("id", frame.ID).Msg("can send failed")
	}
	return err
}

func (l *loggedBus) Receive() (Frame, error) {
	f, err := l.inner.Receive()
	if err != nil {
		l.log.Error().Err(err).Msg("can receive failed")
		return f, err
	}
	if l.filter == nil || l.filter(f) {
		l.logFrame("can receive", f)
	}
	return f, nil
}

func (l *loggedBus) Close() error {
	return l.inner.Close()
}

func (l *loggedBus) logFrame(msg string, f Frame) {
	l.log.Debug().
		Uint32("id", f.ID).
		Bool("extended", f.Extended).
		Bool("rtr", f.RTR).
		Int("len", int(f.Len)).
		Hex("data", f.Data[:f.Len]).
		Str("frame", f.String()).
		Msg(msg)
}
