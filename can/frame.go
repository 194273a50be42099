package can

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame is a classical CAN (2.0A/2.0B) frame.
//
// Standard (11-bit) and extended (29-bit) identifiers, data frames and
// remote transmission requests, payload 0-8 bytes. CAN FD fields are not
// modeled; the teach-pendant protocol only uses classical frames.
type Frame struct {
	ID       uint32 // 11-bit (standard) or 29-bit (extended)
	Extended bool
	RTR      bool
	Len      uint8 // 0..8
	Data     [8]byte
}

const (
	maxStandardID = 0x7FF
	maxExtendedID = 0x1FFFFFFF
)

var (
	ErrInvalidID  = errors.New("can: invalid identifier")
	ErrInvalidLen = errors.New("can: invalid data length")
)

// Validate reports whether the frame is well formed.
func (f Frame) Validate() error {
	if f.Len > 8 {
		return ErrInvalidLen
	}
	max := uint32(maxStandardID)
	if f.Extended {
		max = maxExtendedID
	}
	if f.ID > max {
		return ErrInvalidID
	}
	return nil
}

// NewFrame builds a data frame from an identifier and payload. Identifiers
// above the standard range are marked extended. It panics on payloads longer
// than 8 bytes; intended for fixed protocol frames and tests.
func NewFrame(id uint32, data []byte) Frame {
	if len(data) > 8 {
		panic(ErrInvalidLen)
	}
	f := Frame{ID: id, Extended: id > maxStandardID, Len: uint8(len(data))}
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

// String renders the frame in a candump-like form: identifier, length and
// payload bytes, e.g. "08F [4] 4A 52 53 4A".
func (f Frame) String() string {
	var b strings.Builder
	if f.Extended {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	fmt.Fprintf(&b, " [%d]", f.Len)
	if f.RTR {
		b.WriteString(" RTR")
		return b.String()
	}
	for _, d := range f.Data[:f.Len] {
		fmt.Fprintf(&b, " %02X", d)
	}
	return b.String()
}

// Flag bits of the can_id field in the Linux can_frame layout.
const (
	effFlag = 0x80000000
	rtrFlag = 0x40000000
)

// MarshalBinary encodes the frame into the 16-byte Linux SocketCAN
// can_frame layout (little-endian can_id with EFF/RTR flags, DLC, 3 bytes
// padding, 8 data bytes).
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	id := f.ID
	if f.Extended {
		id |= effFlag
	}
	if f.RTR {
		id |= rtrFlag
	}
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the Linux SocketCAN can_frame layout.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("can: need 16 bytes, got %d", len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	f.Extended = id&effFlag != 0
	f.RTR = id&rtrFlag != 0
	if f.Extended {
		f.ID = id & maxExtendedID
	} else {
		f.ID = id & maxStandardID
	}
	f.Len = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}
