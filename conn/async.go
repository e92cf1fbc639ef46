package conn

import (
	"io"
	"net"

	"github.com/mongowire/mongowire/mongoerr"
	"github.com/mongowire/mongowire/notifier"
	"github.com/mongowire/mongowire/wire"
)

const readScratchSize = 32 * 1024

// ConnectCallback is invoked exactly once after the first writable event
// following an async connect attempt, with ok=false if the connection could
// not be established.
type ConnectCallback func(ok bool)

// DisconnectCallback is invoked exactly once when an AsyncConnection tears
// down, with ok=false if the disconnect was triggered by an error.
type DisconnectCallback func(ok bool)

// AsyncConnection drives a Connection's socket non-blockingly, on top of a
// caller-supplied notifier.Notifier (spec §4.5, §6). It implements
// notifier.Handlers so the notifier can call back into HandleRead/HandleWrite
// on wake-up.
//
// AsyncConnection is built on the same Connection as the blocking path so
// both share the output Buffer, Reader, and request-ID counter; only the
// control flow around them differs.
type AsyncConnection struct {
	*Connection

	Notifier notifier.Notifier

	OnConnect    ConnectCallback
	OnDisconnect DisconnectCallback

	callbacks *callbackRegistry

	connectPending  bool
	writeInterested bool
	readInterested  bool
}

// NewAsync wraps an already-dialed, still-non-blocking Connection with an
// async dispatcher. The caller is expected to have created nc with
// net.Dialer (which returns connected sockets, so in Go there is no
// separate "writable means TCP handshake done" detection step the way the C
// core needs — see detectConnect below for how this is still honored for
// parity with spec §4.5).
func NewAsync(c *Connection, n notifier.Notifier) *AsyncConnection {
	ac := &AsyncConnection{
		Connection: c,
		Notifier:   n,
		callbacks:  newCallbackRegistry(),
	}
	return ac
}

// DialAsync opens a non-blocking TCP connection and returns an
// AsyncConnection not yet marked CONNECTED: the first writable event from n
// completes the handshake detection before any request may be encoded
// (spec §4.5 "the async core only sets CONNECTED after seeing this first
// writable event").
func DialAsync(host string, port int, n notifier.Notifier) (*AsyncConnection, error) {
	addr := Addr{Network: NetworkTCP, Host: host, Port: port}
	c := newConnection(addr)
	c.state = StateConnecting
	nc, err := net.Dial("tcp", addr.String())
	if err != nil {
		c.state = StateFailed
		return nil, c.fail(mongoerr.New(mongoerr.IO, err))
	}
	c.nc = nc
	ac := NewAsync(c, n)
	ac.connectPending = true
	ac.armWrite()
	return ac, nil
}

// Command encodes a request and registers cb to be invoked once a reply
// correlated to it arrives. If expectReply is false (a mutation with no
// immediate response expected), cb may be nil.
func (ac *AsyncConnection) Command(encode func(buf *wire.Buffer, requestID int32) error, expectReply bool, cb ReplyCallback) (int32, error) {
	if ac.flags.has(flagFreeing) {
		return 0, ac.fail(mongoerr.New(mongoerr.Other, errFreeing))
	}
	if ac.state == StateDisconnecting || ac.state == StateClosed {
		return 0, ac.fail(mongoerr.New(mongoerr.Other, errDisconnecting))
	}
	if ac.state != StateConnected {
		return 0, ac.fail(mongoerr.New(mongoerr.Other, errNotConnected))
	}

	requestID := ac.NextRequestID()
	lenBefore := ac.out.Len()
	if err := encode(ac.out, requestID); err != nil {
		return 0, ac.fail(mongoerr.New(mongoerr.OOM, err))
	}
	ac.recordRequestEncoded(lenBefore)
	if expectReply && cb != nil {
		ac.callbacks.register(requestID, cb)
	}
	ac.armWrite()
	return requestID, nil
}

func (ac *AsyncConnection) armWrite() {
	if !ac.writeInterested {
		ac.writeInterested = true
		ac.Notifier.AddWrite()
	}
}

func (ac *AsyncConnection) disarmWrite() {
	if ac.writeInterested {
		ac.writeInterested = false
		ac.Notifier.DelWrite()
	}
}

func (ac *AsyncConnection) armRead() {
	if !ac.readInterested {
		ac.readInterested = true
		ac.Notifier.AddRead()
	}
}

// HandleWrite is invoked by the Notifier when the socket is writable (spec
// §4.5 "Async write handler").
func (ac *AsyncConnection) HandleWrite() {
	if ac.connectPending {
		if !ac.detectConnect() {
			return
		}
	}

	for !ac.out.IsEmpty() {
		n, err := ac.nc.Write(ac.out.Bytes())
		if n > 0 {
			ac.out.Consume(n)
			ac.Metrics.BytesWritten(n)
		}
		if err != nil {
			if isRetryable(err) {
				break
			}
			ac.hardDisconnect(mongoerr.New(mongoerr.IO, err))
			return
		}
		if n == 0 {
			break
		}
	}

	if ac.out.IsEmpty() {
		ac.disarmWrite()
	}
	ac.armRead()
}

// HandleRead is invoked by the Notifier when the socket is readable (spec
// §4.5 "Async read handler").
func (ac *AsyncConnection) HandleRead() {
	if ac.connectPending {
		if !ac.detectConnect() {
			return
		}
	}

	var scratch [readScratchSize]byte
	n, err := ac.nc.Read(scratch[:])
	if n > 0 {
		ac.Metrics.BytesRead(n)
		if ferr := ac.reader.Feed(scratch[:n]); ferr != nil {
			ac.hardDisconnect(mongoerr.New(mongoerr.Protocol, ferr))
			return
		}
	}
	if err != nil {
		if err == io.EOF {
			ac.hardDisconnect(mongoerr.New(mongoerr.EOF, err))
			return
		}
		if !isRetryable(err) {
			ac.hardDisconnect(mongoerr.New(mongoerr.IO, err))
			return
		}
	}

	for {
		reply, rerr := ac.reader.GetReply()
		if rerr != nil {
			ac.hardDisconnect(mongoerr.New(mongoerr.Protocol, rerr))
			return
		}
		if reply == nil {
			break
		}
		ac.dispatch(reply)
	}

	ac.armRead()
}

// dispatch correlates reply to its Pending Callback by responseTo and
// invokes it. A reply with no matching callback is dropped silently (spec
// §4.5 step 3). Cursor continuation: the callback stays registered as long
// as CursorID != 0, so an EXHAUST stream's unsolicited follow-up OP_REPLY
// frames (same ResponseTo as the originating query) keep reaching it (spec
// §4.5 "Cursor continuation semantics", Testable Property 6, Seed D).
func (ac *AsyncConnection) dispatch(reply *wire.Reply) {
	ac.Metrics.ReplyDecoded()
	ac.debugReply(reply)
	cb, ok := ac.callbacks.lookup(reply.ResponseTo)
	if !ok {
		return
	}

	ac.flags.set(flagInCallback)
	cb.fn(reply)
	ac.flags.clear(flagInCallback)

	if reply.Exhausted() {
		ac.callbacks.remove(cb.requestID)
	}

	ac.maybeFinishFree()
}

// detectConnect runs the first-writable-event connect-detection step (spec
// §4.5 step 1 of both handlers): getsockopt(SO_ERROR) semantics, modeled in
// Go by probing the socket with a zero-byte write attempt's error. Returns
// true if the connection is now CONNECTED, false if it failed.
func (ac *AsyncConnection) detectConnect() bool {
	ac.connectPending = false
	if _, err := ac.nc.Write(nil); err != nil {
		ac.state = StateFailed
		ac.Notifier.DelWrite()
		ac.Notifier.DelRead()
		if ac.OnConnect != nil {
			ac.OnConnect(false)
		}
		return false
	}
	ac.state = StateConnected
	if ac.OnConnect != nil {
		ac.OnConnect(true)
	}
	return true
}

// Disconnect performs a clean async shutdown (spec §4.5 "Disconnection",
// clean path): refuse new encodes, flush the write buffer, keep reading
// replies until every pending callback has been delivered, then free.
func (ac *AsyncConnection) Disconnect() {
	if ac.state == StateDisconnecting || ac.state == StateClosed {
		return
	}
	ac.state = StateDisconnecting
	if ac.callbacks.len() == 0 {
		ac.finishDisconnect(true)
	}
	// Remaining pending callbacks are delivered as their replies arrive
	// through the normal HandleRead path; once the registry empties,
	// finishDisconnect is triggered from dispatch via maybeFinishFree's
	// sibling check in checkCleanDisconnect.
}

func (ac *AsyncConnection) checkCleanDisconnect() {
	if ac.state == StateDisconnecting && ac.callbacks.len() == 0 {
		ac.finishDisconnect(true)
	}
}

func (ac *AsyncConnection) finishDisconnect(ok bool) {
	if ac.state == StateClosed {
		return
	}
	ac.state = StateClosed
	ac.Notifier.DelRead()
	ac.Notifier.DelWrite()
	ac.Notifier.Close()
	if ac.nc != nil {
		ac.nc.Close()
	}
	if ac.OnDisconnect != nil {
		ac.OnDisconnect(ok)
	}
}

// hardDisconnect is the I/O-or-protocol-error teardown path (spec §4.5
// "Disconnection", hard path / Testable Property 7): every pending callback
// is invoked with a nil reply, then OnDisconnect(false) fires, then
// resources are freed. A Free() issued from inside one of the drained
// callbacks is deferred until the drain has finished, as in dispatch.
func (ac *AsyncConnection) hardDisconnect(err *mongoerr.Error) {
	if ac.state == StateClosed {
		return
	}
	ac.err = err
	if err.Kind == mongoerr.Protocol {
		ac.Metrics.ProtocolError()
	} else {
		ac.Metrics.IOError()
	}

	ac.state = StateDisconnecting
	ac.flags.set(flagInCallback)
	ac.callbacks.drain()
	ac.flags.clear(flagInCallback)
	ac.flags.clear(flagFreeing)
	ac.finishDisconnect(false)
}

// Free requests teardown of resources not already released. If called
// re-entrantly from inside a callback (flagInCallback set), the actual
// release is deferred until the outer dispatch loop returns and calls
// maybeFinishFree, preventing use-after-free of state the callback might
// still be touching (spec §4.5 "Re-entrancy").
func (ac *AsyncConnection) Free() {
	if ac.flags.has(flagInCallback) {
		ac.flags.set(flagFreeing)
		return
	}
	ac.finishDisconnect(ac.state != StateFailed)
}

func (ac *AsyncConnection) maybeFinishFree() {
	if ac.flags.has(flagFreeing) {
		ac.flags.clear(flagFreeing)
		ac.finishDisconnect(ac.state != StateFailed)
		return
	}
	ac.checkCleanDisconnect()
}
