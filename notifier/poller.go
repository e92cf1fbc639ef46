package notifier

import (
	"errors"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

var errPeekClosed = errors.New("notifier: connection closed")

// Poller is a minimal, single-connection Notifier built directly on a
// net.TCPConn, with no platform-specific event loop underneath. It exists
// for tests; the example CLI (cmd/mongowire-bench) uses the blocking
// Connection and no Notifier at all. A real deployment
// wires AsyncConnection to an actual epoll/kqueue/run-loop binding instead.
//
// Read readiness is detected with a raw MSG_PEEK recv of one byte via
// syscall.RawConn.Read, which parks the goroutine on the runtime's netpoller
// until the fd is readable rather than busy-polling. MSG_PEEK reports data
// as available without consuming it, so AsyncConnection.HandleRead's own
// subsequent net.Conn.Read still sees that byte — unlike a bufio.Reader-based
// peek, which would buffer it where AsyncConnection's direct Read could never
// reach it. Write readiness has no comparable peek, so Poller simply retries
// HandleWrite on a short interval while write interest is armed; a real
// event-loop binding reports true edge-triggered readiness instead.
//
// watchRead and watchWrite run as two independent goroutines, so HandleRead
// and HandleWrite can be invoked concurrently with each other. AsyncConnection
// is not safe for that: it assumes a single-threaded event loop serializes
// every call into it. This is tolerable for a demo/test notifier where reads
// and writes rarely race in practice, but any real binding on top of an
// actual epoll/kqueue loop must serialize its two handler dispatches onto one
// goroutine (or otherwise mutually exclude them) before driving AsyncConnection
// with it.
type Poller struct {
	conn *net.TCPConn
	raw  syscall.RawConn
	h    Handlers

	mu        sync.Mutex
	readWant  bool
	writeWant bool
	closed    bool

	readGen  int
	writeGen int
}

// NewPoller returns a Poller that will invoke h.HandleRead/h.HandleWrite as
// readiness is detected on conn.
func NewPoller(conn *net.TCPConn, h Handlers) (*Poller, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}
	return &Poller{conn: conn, raw: raw, h: h}, nil
}

// AddRead requests read-readiness notifications. Idempotent.
func (p *Poller) AddRead() {
	p.mu.Lock()
	if p.readWant || p.closed {
		p.mu.Unlock()
		return
	}
	p.readWant = true
	p.readGen++
	gen := p.readGen
	p.mu.Unlock()
	go p.watchRead(gen)
}

// DelRead stops requesting read-readiness notifications. Idempotent.
func (p *Poller) DelRead() {
	p.mu.Lock()
	p.readWant = false
	p.mu.Unlock()
}

// AddWrite requests write-readiness notifications. Idempotent.
func (p *Poller) AddWrite() {
	p.mu.Lock()
	if p.writeWant || p.closed {
		p.mu.Unlock()
		return
	}
	p.writeWant = true
	p.writeGen++
	gen := p.writeGen
	p.mu.Unlock()
	go p.watchWrite(gen)
}

// DelWrite stops requesting write-readiness notifications. Idempotent.
func (p *Poller) DelWrite() {
	p.mu.Lock()
	p.writeWant = false
	p.mu.Unlock()
}

// Close releases Poller's resources. Idempotent.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	p.readWant = false
	p.writeWant = false
	p.mu.Unlock()
}

func (p *Poller) wantRead(gen int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readWant && gen == p.readGen && !p.closed
}

func (p *Poller) wantWrite(gen int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeWant && gen == p.writeGen && !p.closed
}

// peekReadable blocks, parked on the runtime's netpoller, until at least one
// byte is available on the socket or it errors/closes.
func (p *Poller) peekReadable() error {
	var buf [1]byte
	var n int
	var recvErr error
	err := p.raw.Read(func(fd uintptr) bool {
		n, _, recvErr = unix.Recvfrom(int(fd), buf[:], unix.MSG_PEEK)
		return recvErr != unix.EAGAIN && recvErr != unix.EWOULDBLOCK
	})
	if err != nil {
		return err
	}
	if recvErr != nil {
		return recvErr
	}
	if n == 0 {
		return errPeekClosed
	}
	return nil
}

func (p *Poller) watchRead(gen int) {
	for p.wantRead(gen) {
		if err := p.peekReadable(); err != nil {
			p.h.HandleRead()
			return
		}
		if !p.wantRead(gen) {
			return
		}
		p.h.HandleRead()
	}
}

func (p *Poller) watchWrite(gen int) {
	for p.wantWrite(gen) {
		p.h.HandleWrite()
		time.Sleep(pollInterval)
	}
}

const pollInterval = 20 * time.Millisecond
