package button

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchCall struct {
	cmd        Command
	trajectory string
}

// fakeController records mode-change requests and answers with a canned
// verdict.
type fakeController struct {
	accept bool
	calls  []switchCall
}

func (c *fakeController) fn(cmd Command, trajectory string) bool {
	c.calls = append(c.calls, switchCall{cmd, trajectory})
	return c.accept
}

// fakeSender records replay-completion signals.
type fakeSender struct {
	sent []string
}

func (s *fakeSender) SendReplayComplete(iface string) {
	s.sent = append(s.sent, iface)
}

func fixedClock(sec int64) func() time.Time {
	return func() time.Time { return time.Unix(sec, 0) }
}

func TestEntryTeachStartsRecording(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn), WithClock(fixedClock(1700000000)))

	h.OnButtonEvent("can0", StatusEntryTeach)

	assert.True(t, h.IsTeaching())
	assert.False(t, h.IsReplaying())
	assert.Equal(t, "button_traj_1700000000", h.Trajectory())
	assert.Equal(t, "can0", h.LastInterface())
	require.Len(t, ctrl.calls, 1)
	assert.Equal(t, switchCall{CommandStartRecord, "button_traj_1700000000"}, ctrl.calls[0])
}

func TestEntryTeachControllerRefusal(t *testing.T) {
	ctrl := &fakeController{accept: false}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusEntryTeach)

	assert.False(t, h.IsTeaching())
	require.Len(t, ctrl.calls, 1)
}

func TestEntryTeachDuplicateIgnored(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusEntryTeach)
	traj := h.Trajectory()
	h.OnButtonEvent("can0", StatusEntryTeach)

	assert.True(t, h.IsTeaching())
	assert.Equal(t, traj, h.Trajectory())
	assert.Len(t, ctrl.calls, 1, "duplicate entry must not reach the controller")
}

func TestEntryTeachRejectedWhileReplaying(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusEntryTeach)
	h.OnButtonEvent("can0", StatusExitTeach)
	h.OnButtonEvent("can0", StatusTeachRepeat)
	require.True(t, h.IsReplaying())
	calls := len(ctrl.calls)

	h.OnButtonEvent("can0", StatusEntryTeach)

	assert.True(t, h.IsReplaying())
	assert.False(t, h.IsTeaching())
	assert.Len(t, ctrl.calls, calls, "rejected entry must not reach the controller")
}

func TestExitTeachStopsRecordingWithSameTrajectory(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn), WithClock(fixedClock(42)))

	h.OnButtonEvent("can1", StatusEntryTeach)
	h.OnButtonEvent("can1", StatusExitTeach)

	assert.False(t, h.IsTeaching())
	require.Len(t, ctrl.calls, 2)
	assert.Equal(t, switchCall{CommandStopRecord, "button_traj_42"}, ctrl.calls[1])
}

func TestExitTeachIgnoredWhenNotTeaching(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusExitTeach)

	assert.False(t, h.IsTeaching())
	assert.Empty(t, ctrl.calls)
}

func TestExitTeachControllerRefusalKeepsTeaching(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusEntryTeach)
	ctrl.accept = false
	h.OnButtonEvent("can0", StatusExitTeach)

	assert.True(t, h.IsTeaching(), "failed stop-record must not leave teaching")
}

func TestTeachRepeatStartsReplayWithStoredTrajectory(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn), WithClock(fixedClock(7)))

	h.OnButtonEvent("can0", StatusEntryTeach)
	h.OnButtonEvent("can0", StatusExitTeach)
	h.OnButtonEvent("can0", StatusTeachRepeat)

	assert.True(t, h.IsReplaying())
	require.Len(t, ctrl.calls, 3)
	assert.Equal(t, switchCall{CommandStartReplay, "button_traj_7"}, ctrl.calls[2])
}

func TestTeachRepeatRejectedWhileTeaching(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusEntryTeach)
	calls := len(ctrl.calls)

	h.OnButtonEvent("can0", StatusTeachRepeat)

	assert.True(t, h.IsTeaching())
	assert.False(t, h.IsReplaying())
	assert.Len(t, ctrl.calls, calls, "rejected replay must not reach the controller")
}

func TestTeachRepeatDuplicateIgnored(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusTeachRepeat)
	require.True(t, h.IsReplaying())
	calls := len(ctrl.calls)

	h.OnButtonEvent("can0", StatusTeachRepeat)

	assert.True(t, h.IsReplaying())
	assert.Len(t, ctrl.calls, calls)
}

func TestTeachRepeatControllerRefusal(t *testing.T) {
	ctrl := &fakeController{accept: false}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusTeachRepeat)

	assert.False(t, h.IsReplaying())
	require.Len(t, ctrl.calls, 1)
}

func TestNotifyReplayCompleteSendsExactlyOnce(t *testing.T) {
	ctrl := &fakeController{accept: true}
	sender := &fakeSender{}
	h := NewHandler(WithControllerSwitch(ctrl.fn), WithCompletionSender(sender))

	h.OnButtonEvent("can0", StatusTeachRepeat)
	require.True(t, h.IsReplaying())

	h.NotifyReplayComplete("can0")
	assert.False(t, h.IsReplaying())
	assert.Equal(t, []string{"can0"}, sender.sent)

	// Duplicate notification is absorbed.
	h.NotifyReplayComplete("can0")
	assert.Equal(t, []string{"can0"}, sender.sent)
}

func TestNotifyReplayCompleteNoOpWhenIdle(t *testing.T) {
	sender := &fakeSender{}
	h := NewHandler(WithCompletionSender(sender))

	h.NotifyReplayComplete("can0")

	assert.False(t, h.IsReplaying())
	assert.Empty(t, sender.sent)
}

func TestMissingControllerSwitchIsTolerated(t *testing.T) {
	var msgs []string
	h := NewHandler(WithLogFunc(func(m string) { msgs = append(msgs, m) }))

	h.OnButtonEvent("can0", StatusEntryTeach)
	h.OnButtonEvent("can0", StatusExitTeach)
	h.OnButtonEvent("can0", StatusTeachRepeat)

	assert.False(t, h.IsTeaching())
	assert.False(t, h.IsReplaying())
	assert.NotEmpty(t, msgs)
}

func TestMissingLogFuncIsTolerated(t *testing.T) {
	h := NewHandler()
	assert.NotPanics(t, func() {
		h.OnButtonEvent("can0", StatusEntryTeach)
		h.OnButtonEvent("can0", StatusNone)
		h.NotifyReplayComplete("can0")
	})
}

func TestUnknownStatusLeavesStateAlone(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	h.OnButtonEvent("can0", StatusNone)
	h.OnButtonEvent("can0", Status(99))

	assert.False(t, h.IsTeaching())
	assert.False(t, h.IsReplaying())
	assert.Empty(t, ctrl.calls)
	assert.Equal(t, "can0", h.LastInterface())
}

func TestTrajectoryNamesFollowTheClock(t *testing.T) {
	sec := int64(100)
	ctrl := &fakeController{accept: true}
	h := NewHandler(
		WithControllerSwitch(ctrl.fn),
		WithClock(func() time.Time { return time.Unix(sec, 0) }),
	)

	h.OnButtonEvent("can0", StatusEntryTeach)
	first := h.Trajectory()
	h.OnButtonEvent("can0", StatusExitTeach)

	sec++
	h.OnButtonEvent("can0", StatusEntryTeach)
	assert.NotEqual(t, first, h.Trajectory())

	// Same-second re-entry reuses the name; known limitation of
	// second-granular identifiers.
	h.OnButtonEvent("can0", StatusExitTeach)
	h.OnButtonEvent("can0", StatusEntryTeach)
	assert.Equal(t, fmt.Sprintf("button_traj_%d", sec), h.Trajectory())
}

func TestTeachingAndReplayingNeverOverlap(t *testing.T) {
	ctrl := &fakeController{accept: true}
	h := NewHandler(WithControllerSwitch(ctrl.fn))

	// Walk a pseudo-random event sequence and check the exclusion
	// invariant after every step.
	seq := []Status{
		StatusEntryTeach, StatusTeachRepeat, StatusEntryTeach,
		StatusExitTeach, StatusTeachRepeat, StatusEntryTeach,
		StatusExitTeach, StatusTeachRepeat, StatusTeachRepeat,
		StatusNone, StatusExitTeach, StatusEntryTeach,
	}
	for i, ev := range seq {
		if i == 9 {
			h.NotifyReplayComplete("can0")
		}
		h.OnButtonEvent("can0", ev)
		assert.False(t, h.IsTeaching() && h.IsReplaying(),
			"teaching and replaying both true after event %d (%s)", i, ev)
	}
}
