package conn

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setReuseAddr is a net.Dialer.Control callback that sets SO_REUSEADDR on
// the socket before connect, for the REUSEADDR flag in spec §6 "Connection
// parameters". This is a single platform socket option, not a protocol or
// domain concern any example repo's dependency covers, so it's the one spot
// this module reaches for golang.org/x/sys/unix directly instead of a
// higher-level library.
func setReuseAddr(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
