//go:build linux

package can

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"unsafe"
)

// Linux CAN network interface helpers. Flag changes go through ioctl on a
// SOCK_DGRAM socket; bitrate changes go through the system `ip` tool.
// All of these require CAP_NET_ADMIN and return EPERM without it.

const (
	ifNameSize   = 16     // IFNAMSIZ
	siocGIFFlags = 0x8913 // SIOCGIFFLAGS
	siocSIFFlags = 0x8914 // SIOCSIFFLAGS
	iffUp        = 0x1    // IFF_UP
)

// ifreqFlags mirrors struct ifreq for flag operations on 64-bit Linux:
// 16 bytes name followed by a 24-byte union beginning with a short.
type ifreqFlags struct {
	Name  [ifNameSize]byte
	Flags uint16
	_     [22]byte
}

func getInterfaceFlags(name string) (uint16, error) {
	if len(name) == 0 || len(name) >= ifNameSize {
		return 0, fmt.Errorf("can: invalid interface name %q", name)
	}
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, 0)
	if err != nil {
		return 0, err
	}
	defer syscall.Close(fd)
	var ifr ifreqFlags
	copy(ifr.Name[:], name)
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), siocGIFFlags, uintptr(unsafe.Pointer(&ifr))); errno != 0 {
		return 0, errno
	}
	return ifr.Flags, nil
}

func setInterfaceFlags(name string, flags uint16) error {
	if len(name) == 0 || len(name) >= ifNameSize {
		return fmt.Errorf("can: invalid interface name %q", name)
	}
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_DGRAM, 0)
	if err != nil {
		return err
	}
	defer syscall.Close(fd)
	var ifr ifreqFlags
	copy(ifr.Name[:], name)
	ifr.Flags = flags
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), siocSIFFlags, uintptr(unsafe.Pointer(&ifr))); errno != 0 {
		return errno
	}
	return nil
}

// IsInterfaceUp reports whether the interface has IFF_UP set.
func IsInterfaceUp(name string) (bool, error) {
	flags, err := getInterfaceFlags(name)
	if err != nil {
		return false, err
	}
	return flags&iffUp != 0, nil
}

// SetInterfaceUp sets IFF_UP on the interface. Requires CAP_NET_ADMIN.
func SetInterfaceUp(name string) error {
	flags, err := getInterfaceFlags(name)
	if err != nil {
		return err
	}
	if flags&iffUp != 0 {
		return nil
	}
	return setInterfaceFlags(name, flags|iffUp)
}

// SetInterfaceDown clears IFF_UP on the interface. Requires CAP_NET_ADMIN.
func SetInterfaceDown(name string) error {
	flags, err := getInterfaceFlags(name)
	if err != nil {
		return err
	}
	if flags&iffUp == 0 {
		return nil
	}
	return setInterfaceFlags(name, flags&^iffUp)
}

// ConfigureInterface sets the arbitration bitrate of a CAN interface via
// iproute2. The interface must be down while the bitrate changes; callers
// typically SetInterfaceDown, configure, then SetInterfaceUp.
func ConfigureInterface(name string, bitrate uint32) error {
	if len(name) == 0 || len(name) >= ifNameSize {
		return fmt.Errorf("can: invalid interface name %q", name)
	}
	cmd := exec.Command("ip", "link", "set", "dev", name, "type", "can", "bitrate", fmt.Sprintf("%d", bitrate))
	if out, err := cmd.CombinedOutput(); err != nil {
		return wrapPermission(fmt.Errorf("ip link set type can failed: %w; output: %s", err, out))
	}
	return nil
}

// wrapPermission maps EPERM to a clearer message about CAP_NET_ADMIN.
func wrapPermission(err error) error {
	if errors.Is(err, syscall.EPERM) {
		return fmt.Errorf("operation requires CAP_NET_ADMIN (or root): %w", err)
	}
	return err
}
