// Package conn implements both halves of the client: Connection owns a
// socket, an output Buffer, and a wire.Reader, and drives the
// send-then-block-for-reply loop described in spec §4.5. AsyncConnection, in
// async.go, wraps a Connection with a notifier.Notifier and a callback
// registry to drive the same socket non-blockingly; it shares this package
// rather than living in a subpackage because it needs the unexported fields
// below.
package conn

import (
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mongowire/mongowire/metrics"
	"github.com/mongowire/mongowire/mongoerr"
	"github.com/mongowire/mongowire/wire"
)

var (
	errNotConnected  = errors.New("conn: not connected")
	errNoReconnect   = errors.New("conn: no saved connection parameters to reconnect with")
	errFreeing       = errors.New("conn: connection is being freed, no new requests accepted")
	errDisconnecting = errors.New("conn: connection is disconnecting, no new requests accepted")
)

const keepAliveInterval = 15 * time.Second

// Connection is a single, non-pooled connection to a mongod/mongos, driven
// either by the blocking Command call in this file or by AsyncConnection. It
// is not safe for concurrent use (spec §5 "Scheduling model").
type Connection struct {
	// Log receives debug/info/error text. Defaults to a no-op logger.
	Log Logger
	// Metrics receives operation counters. A nil *metrics.Client is safe to
	// use (every method becomes a no-op).
	Metrics *metrics.Client
	// Timeout bounds every blocking read/write, when non-zero.
	Timeout time.Duration

	addr  Addr
	nc    net.Conn
	state State
	flags flag

	out    *wire.Buffer
	reader *wire.Reader

	requestID uint32 // incremented with atomic ops; see NextRequestID

	err *mongoerr.Error

	mu sync.Mutex
}

// Dial opens a blocking TCP connection to host:port.
func Dial(host string, port int) (*Connection, error) {
	return DialTCP(Addr{Network: NetworkTCP, Host: host, Port: port})
}

// DialTimeout is like Dial but fails if the connection isn't established
// within timeout, and configures Connection.Timeout to the same value.
func DialTimeout(host string, port int, timeout time.Duration) (*Connection, error) {
	c := newConnection(Addr{Network: NetworkTCP, Host: host, Port: port})
	c.Timeout = timeout
	if err := c.connect(timeout); err != nil {
		return nil, err
	}
	return c, nil
}

// DialTCP opens a blocking TCP connection using the full Addr (host, port,
// optional source bind address, optional REUSEADDR).
func DialTCP(addr Addr) (*Connection, error) {
	c := newConnection(addr)
	if err := c.connect(c.Timeout); err != nil {
		return nil, err
	}
	return c, nil
}

// DialUnix opens a blocking connection to a Unix domain socket.
func DialUnix(path string) (*Connection, error) {
	c := newConnection(Addr{Network: NetworkUnix, Path: path})
	if err := c.connect(c.Timeout); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromFd attaches a Connection to an already-connected socket. The
// Connection starts in StateConnected immediately; no saved address means
// Reconnect will fail with errNoReconnect, matching the spec's notation that
// attach-from-fd connections have no dial parameters to replay.
func NewFromFd(nc net.Conn) *Connection {
	c := newConnection(Addr{Network: NetworkFd})
	c.nc = nc
	c.state = StateConnected
	return c
}

func newConnection(addr Addr) *Connection {
	return &Connection{
		addr:   addr,
		state:  StateInit,
		out:    wire.NewBuffer(256),
		reader: wire.NewReader(),
	}
}

func (c *Connection) log() Logger {
	if c.Log != nil {
		return c.Log
	}
	return nopLogger{}
}

// State returns the current lifecycle state.
func (c *Connection) State() State { return c.state }

// Err returns the last error recorded against this Connection, if any.
func (c *Connection) Err() *mongoerr.Error { return c.err }

// NextRequestID returns the next request ID, wrapping modulo 2^32 and
// treating the value as unsigned for correlation purposes (spec §9 open
// question on request-ID overflow). The protocol's wire field remains a
// signed int32; only the Go-side bookkeeping is unsigned.
func (c *Connection) NextRequestID() int32 {
	id := atomic.AddUint32(&c.requestID, 1)
	if id == 0 {
		id = atomic.AddUint32(&c.requestID, 1)
	}
	return int32(id)
}

func (c *Connection) connect(timeout time.Duration) error {
	c.state = StateConnecting
	dialer := net.Dialer{Timeout: timeout}
	if c.addr.SourceAddr != "" {
		if local, err := net.ResolveTCPAddr("tcp", c.addr.SourceAddr); err == nil {
			dialer.LocalAddr = local
		}
	}
	if c.addr.ReuseAddr {
		dialer.Control = setReuseAddr
		c.flags.set(flagReuseAddr)
	}

	var nc net.Conn
	var err error
	switch c.addr.Network {
	case NetworkUnix:
		nc, err = dialer.Dial("unix", c.addr.Path)
	default:
		nc, err = dialer.Dial("tcp", c.addr.String())
	}
	if err != nil {
		c.state = StateFailed
		return c.fail(mongoerr.New(mongoerr.IO, err))
	}

	c.nc = nc
	c.state = StateConnected
	return nil
}

// EnableKeepAlive turns on TCP keepalive with the protocol's 15 second
// interval (spec §4.5 "KeepAlive").
func (c *Connection) EnableKeepAlive() error {
	tc, ok := c.nc.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetKeepAlive(true); err != nil {
		return err
	}
	return tc.SetKeepAlivePeriod(keepAliveInterval)
}

// SetTimeout sets the timeout used by subsequent blocking reads/writes.
func (c *Connection) SetTimeout(d time.Duration) { c.Timeout = d }

func (c *Connection) deadline() time.Time {
	if c.Timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.Timeout)
}

func (c *Connection) fail(err *mongoerr.Error) error {
	c.err = err
	return err
}

// Command encodes a request via encode, flushes the output buffer, and
// blocks until exactly one reply has been decoded (spec §4.5 "Blocking
// send/receive"). encode is expected to call one of the wire.Encode*
// functions against the *wire.Buffer it's given, using requestID.
func (c *Connection) Command(encode func(buf *wire.Buffer, requestID int32) error) (*wire.Reply, error) {
	if c.state != StateConnected {
		return nil, c.fail(mongoerr.New(mongoerr.Other, errNotConnected))
	}
	if c.flags.has(flagFreeing) {
		return nil, c.fail(mongoerr.New(mongoerr.Other, errFreeing))
	}

	requestID := c.NextRequestID()
	lenBefore := c.out.Len()
	if err := encode(c.out, requestID); err != nil {
		return nil, c.fail(mongoerr.New(mongoerr.OOM, err))
	}
	c.recordRequestEncoded(lenBefore)

	if err := c.flush(); err != nil {
		return nil, err
	}

	reply, err := c.readOneReply()
	if err != nil {
		return nil, err
	}
	c.Metrics.ReplyDecoded()
	c.debugReply(reply)
	return reply, nil
}

// recordRequestEncoded bumps the per-opcode encode counter for the frame
// encode just appended to c.out, identified by its own header rather than
// threaded through as a separate parameter. lenBefore is out.Len() before
// the encode call.
func (c *Connection) recordRequestEncoded(lenBefore int) {
	b := c.out.Bytes()
	written := len(b) - lenBefore
	if written < wire.HeaderLen {
		return
	}
	var h wire.Header
	h.FromWire(b[len(b)-written:])
	c.Metrics.RequestEncoded(h.OpCode.String())
}

// flush writes the entire output buffer to the socket, honoring Timeout and
// transparently retrying on EINTR/EAGAIN (spec §4.5 "Blocking send/receive").
func (c *Connection) flush() error {
	for !c.out.IsEmpty() {
		if dl := c.deadline(); !dl.IsZero() {
			c.nc.SetWriteDeadline(dl)
		}
		n, err := c.nc.Write(c.out.Bytes())
		if n > 0 {
			c.out.Consume(n)
			c.Metrics.BytesWritten(n)
		}
		if err != nil {
			if isBlockingRetryable(err) {
				continue
			}
			return c.fail(mongoerr.New(mongoerr.IO, err))
		}
	}
	return nil
}

// readOneReply loops reading off the socket and feeding wire.Reader until
// exactly one reply is available.
func (c *Connection) readOneReply() (*wire.Reply, error) {
	var scratch [32 * 1024]byte
	for {
		reply, err := c.reader.GetReply()
		if err != nil {
			return nil, c.fail(mongoerr.New(mongoerr.Protocol, err))
		}
		if reply != nil {
			return reply, nil
		}

		if dl := c.deadline(); !dl.IsZero() {
			c.nc.SetReadDeadline(dl)
		}
		n, err := c.nc.Read(scratch[:])
		if n > 0 {
			c.Metrics.BytesRead(n)
			if ferr := c.reader.Feed(scratch[:n]); ferr != nil {
				return nil, c.fail(mongoerr.New(mongoerr.Protocol, ferr))
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil, c.fail(mongoerr.New(mongoerr.EOF, err))
			}
			if isBlockingRetryable(err) {
				continue
			}
			return nil, c.fail(mongoerr.New(mongoerr.IO, err))
		}
	}
}

// isBlockingRetryable reports whether a blocking read/write error should be
// retried rather than surfaced. A deadline set by deadline() expiring is
// reported through the same net.Error.Temporary()==true path as a transient
// error on some platforms, but it must never be retried: that would turn
// SetTimeout/DialTimeout into a no-op and loop forever against a hung peer.
// Go's blocking net package never actually returns a bare EAGAIN-style
// transient error outside of a deadline, so once Timeout() is excluded there
// is nothing left worth retrying here; this only exists to make that
// exclusion explicit rather than relying on net.Error's documented-deprecated
// Temporary() doing the right thing by accident.
func isBlockingRetryable(err error) bool {
	ne, ok := err.(net.Error)
	if !ok {
		return false
	}
	if ne.Timeout() {
		return false
	}
	return ne.Temporary()
}

// isRetryable reports whether a non-blocking socket error is a transient
// EAGAIN/EWOULDBLOCK-style condition that should be retried on the next
// readiness notification, used by AsyncConnection's read/write handlers
// which never set deadlines.
func isRetryable(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Temporary()
}

// KillCursors issues OP_KILL_CURSORS for the given cursor IDs. Cursor
// cleanup is never automatic (spec design notes): the caller that owns an
// Iterator or a raw cursorID is responsible for calling this once it's done
// iterating, or the server-side cursor lingers until its own timeout.
func (c *Connection) KillCursors(cursorIDs ...int64) error {
	if c.state != StateConnected {
		return c.fail(mongoerr.New(mongoerr.Other, errNotConnected))
	}
	requestID := c.NextRequestID()
	if err := wire.EncodeKillCursors(c.out, requestID, cursorIDs); err != nil {
		return c.fail(mongoerr.New(mongoerr.OOM, err))
	}
	return c.flush()
}

// Reconnect tears down the current socket and dials a fresh one using the
// saved Addr, replacing the output buffer and Reader. Any state tied to the
// old socket (in particular, for AsyncConnection, pending callbacks) is not
// preserved (spec §4.5 "Reconnect").
func (c *Connection) Reconnect() error {
	if c.addr.Network == NetworkFd {
		return c.fail(mongoerr.New(mongoerr.Other, errNoReconnect))
	}
	if c.nc != nil {
		c.nc.Close()
	}
	c.out = wire.NewBuffer(256)
	c.reader = wire.NewReader()
	c.err = nil
	if err := c.connect(c.Timeout); err != nil {
		return err
	}
	c.Metrics.Reconnect()
	return nil
}

// Disconnect performs a clean shutdown: refuses new encodes, flushes the
// write buffer, and closes the socket. Connection itself has no pending
// callbacks to drain (that's AsyncConnection's job); this just releases the
// socket (spec §4.5 "Disconnection", the blocking half).
func (c *Connection) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed || c.state == StateDisconnecting {
		return nil
	}
	c.state = StateDisconnecting
	if !c.out.IsEmpty() {
		c.flush()
	}
	var err error
	if c.nc != nil {
		err = c.nc.Close()
	}
	c.state = StateClosed
	return err
}

// Close is an alias for Disconnect, satisfying io.Closer.
func (c *Connection) Close() error { return c.Disconnect() }
