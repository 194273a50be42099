// Package canbutton implements the teach-pendant button transport over a
// CAN bus.
//
// The pendant reports button statuses as 4-byte ASCII codes on CAN ID 0x8F
// and expects a replay-completion code on CAN ID 0x7F, which turns the
// pendant LED off. This package decodes those frames into button.Status
// values and implements the button.Driver contract on top of a can.Bus.
package canbutton

import (
	"github.com/robohw/teachbutton/button"
	"github.com/robohw/teachbutton/can"
)

// CAN identifiers of the pendant protocol.
const (
	StatusFrameID   uint32 = 0x8F // pendant -> host: button status
	CompleteFrameID uint32 = 0x7F // host -> pendant: replay finished
)

// 4-byte ASCII codes carried in the frame payload.
var (
	codeEntryTeach  = [4]byte{'J', 'R', 'S', 'J'}
	codeExitTeach   = [4]byte{'T', 'C', 'S', 'J'}
	codeTeachRepeat = [4]byte{'G', 'J', 'F', 'X'}
	codeReplayDone  = [4]byte{'F', 'X', 'J', 'S'}
)

// DecodeStatus extracts a button status from a pendant frame. It reports
// false for frames that are not valid status reports: wrong identifier,
// RTR, short payload or an unknown code.
func DecodeStatus(f can.Frame) (button.Status, bool) {
	if f.ID != StatusFrameID || f.Extended || f.RTR || f.Len < 4 {
		return button.StatusNone, false
	}
	var code [4]byte
	copy(code[:], f.Data[:4])
	switch code {
	case codeEntryTeach:
		return button.StatusEntryTeach, true
	case codeExitTeach:
		return button.StatusExitTeach, true
	case codeTeachRepeat:
		return button.StatusTeachRepeat, true
	}
	return button.StatusNone, false
}

// ReplayCompleteFrame builds the completion frame the pendant expects when
// a replay has finished.
func ReplayCompleteFrame() can.Frame {
	return can.NewFrame(CompleteFrameID, codeReplayDone[:])
}

// StatusFilter matches well-formed pendant status frames.
func StatusFilter() can.FrameFilter {
	return can.And(can.ByID(StatusFrameID), can.DataOnly())
}
