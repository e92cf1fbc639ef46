package conn

import (
	"net"
	"strconv"
)

// Network selects how a Connection reaches its server.
type Network int

const (
	NetworkTCP Network = iota
	NetworkUnix
	NetworkFd
)

// Addr describes the connection parameters a Connection or AsyncConnection
// was dialed with, kept around verbatim so Reconnect can re-create an
// identical socket (spec §4.5 "Reconnect").
type Addr struct {
	Network Network

	// TCP fields.
	Host       string
	Port       int
	SourceAddr string // optional local bind address
	ReuseAddr  bool

	// Unix field.
	Path string

	// Fd is not read by this package: attach-from-fd goes through
	// NewFromFd, which takes an already-connected net.Conn, skips dialing
	// entirely, and leaves reconnect no saved parameters to replay.
	Fd uintptr
}

func (a Addr) String() string {
	switch a.Network {
	case NetworkUnix:
		return "unix:" + a.Path
	case NetworkFd:
		return "fd"
	default:
		return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
	}
}
