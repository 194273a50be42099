// Package button turns decoded teach-pendant button statuses into robot
// control commands.
//
// The package is middleware-agnostic: the hardware side is reached through
// the Driver contract and the motion-control side through plain callback
// functions, so the state machine can sit between any CAN transport and any
// controller without linking either in.
package button

// Status is a decoded button status code as delivered by a transport.
type Status uint8

const (
	StatusNone        Status = iota // no action
	StatusEntryTeach                // short press + 2s hold: enter teaching
	StatusExitTeach                 // 2s hold: leave teaching
	StatusTeachRepeat               // double press: replay the trajectory
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusEntryTeach:
		return "entry-teach"
	case StatusExitTeach:
		return "exit-teach"
	case StatusTeachRepeat:
		return "teach-repeat"
	default:
		return "unknown"
	}
}

// Command is a controller mode change requested by the handler.
type Command uint8

const (
	CommandStartRecord Command = iota + 1
	CommandStopRecord
	CommandStartReplay
)

func (c Command) String() string {
	switch c {
	case CommandStartRecord:
		return "start-record"
	case CommandStopRecord:
		return "stop-record"
	case CommandStartReplay:
		return "start-replay"
	default:
		return "unknown"
	}
}

// SwitchFunc requests a controller mode change for the given trajectory.
// It returns true when the controller accepted the switch. The function is
// invoked synchronously and may block; retry policy belongs to the owner of
// the controller, not to the handler.
type SwitchFunc func(cmd Command, trajectory string) bool

// LogFunc receives diagnostic messages from the handler. Logging is
// best-effort; a nil LogFunc discards everything.
type LogFunc func(msg string)
