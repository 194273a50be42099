//go:build linux

package main

import (
	"context"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/robohw/teachbutton/button"
)

// hookRunner maps controller-switch requests onto an external executable.
//
// start-record and stop-record run synchronously under the optional
// timeout; their exit status is the switch verdict. start-replay is started
// and judged by whether it launched, then waited on in the background: the
// hook is expected to block for the duration of the replay, and its exit
// triggers the replay-complete notification.
type hookRunner struct {
	ctx     context.Context
	hook    string
	timeout time.Duration
	iface   string
	log     zerolog.Logger

	// replayDone is set once the handler exists; hookRunner and Handler
	// reference each other.
	replayDone func(iface string)
}

func (r *hookRunner) dispatch(cmd button.Command, trajectory string) bool {
	switch cmd {
	case button.CommandStartRecord, button.CommandStopRecord:
		return r.runSync(cmd, trajectory)
	case button.CommandStartReplay:
		return r.startReplay(trajectory)
	default:
		r.log.Error().Stringer("command", cmd).Msg("unknown controller command")
		return false
	}
}

func (r *hookRunner) runSync(cmd button.Command, trajectory string) bool {
	ctx := r.ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, r.hook, cmd.String(), trajectory).CombinedOutput()
	if err != nil {
		r.log.Error().Err(err).
			Stringer("command", cmd).
			Str("trajectory", trajectory).
			Bytes("output", out).
			Msg("controller hook failed")
		return false
	}
	r.log.Info().Stringer("command", cmd).Str("trajectory", trajectory).Msg("controller hook succeeded")
	return true
}

func (r *hookRunner) startReplay(trajectory string) bool {
	proc := exec.CommandContext(r.ctx, r.hook, button.CommandStartReplay.String(), trajectory)
	if err := proc.Start(); err != nil {
		r.log.Error().Err(err).Str("trajectory", trajectory).Msg("replay hook failed to start")
		return false
	}
	r.log.Info().Str("trajectory", trajectory).Int("pid", proc.Process.Pid).Msg("replay hook started")

	go func() {
		err := proc.Wait()
		if err != nil {
			r.log.Error().Err(err).Str("trajectory", trajectory).Msg("replay hook exited with error")
		} else {
			r.log.Info().Str("trajectory", trajectory).Msg("replay finished")
		}
		// Either way the replay is over; release the state machine and
		// turn the pendant LED off.
		if r.replayDone != nil {
			r.replayDone(r.iface)
		}
	}()
	return true
}
