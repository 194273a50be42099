//go:build linux

package canbutton

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/robohw/teachbutton/can"
)

// Dial opens the named SocketCAN interface and returns a running Transport
// bound to it.
func Dial(iface string, logger zerolog.Logger) (*Transport, error) {
	bus, err := can.DialSocketCAN(iface)
	if err != nil {
		return nil, fmt.Errorf("canbutton: dial %s: %w", iface, err)
	}
	return New(iface, bus, logger), nil
}
