package conn

import (
	"net"
	"testing"
	"time"

	"github.com/facebookgo/ensure"
	"github.com/mongowire/mongowire/wire"
)

// fakeServer answers a single OP_QUERY with one OP_REPLY on the given
// connection, to exercise Connection.Command's blocking send/receive loop
// (spec §4.5) without a real mongod.
func fakeServer(t *testing.T, nc net.Conn, cursorID int64) {
	t.Helper()
	h, err := wire.ReadHeader(nc)
	if err != nil {
		t.Errorf("fakeServer: ReadHeader: %v", err)
		return
	}
	rest := make([]byte, h.MessageLength-wire.HeaderLen)
	if _, err := readFull(nc, rest); err != nil {
		t.Errorf("fakeServer: reading body: %v", err)
		return
	}

	doc := []byte{5, 0, 0, 0, 0}
	reply := buildFakeReply(h.RequestID, cursorID, doc)
	if _, err := nc.Write(reply); err != nil {
		t.Errorf("fakeServer: writing reply: %v", err)
	}
}

func readFull(nc net.Conn, b []byte) (int, error) {
	total := 0
	for total < len(b) {
		n, err := nc.Read(b[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func buildFakeReply(responseTo int32, cursorID int64, doc []byte) []byte {
	var b4 [4]byte
	var b8 [8]byte
	body := make([]byte, 0, 20+len(doc))
	putInt32local(&b4, 0)
	body = append(body, b4[:]...)
	putInt64local(&b8, cursorID)
	body = append(body, b8[:]...)
	putInt32local(&b4, 0)
	body = append(body, b4[:]...)
	putInt32local(&b4, 1)
	body = append(body, b4[:]...)
	body = append(body, doc...)

	h := wire.Header{
		MessageLength: int32(wire.HeaderLen + len(body)),
		RequestID:     1000,
		ResponseTo:    responseTo,
		OpCode:        wire.OpReply,
	}
	frame := append([]byte{}, h.ToWire()...)
	return append(frame, body...)
}

func putInt32local(b *[4]byte, v int32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putInt64local(b *[8]byte, v int64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func TestConnectionCommandBlockingRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := newConnection(Addr{Network: NetworkFd})
	c.nc = client
	c.state = StateConnected

	done := make(chan struct{})
	go func() {
		fakeServer(t, server, 0)
		close(done)
	}()

	query := []byte{5, 0, 0, 0, 0}
	reply, err := c.Command(func(buf *wire.Buffer, requestID int32) error {
		return wire.EncodeQuery(buf, requestID, 0, "db", "coll", 0, 1, query, nil)
	})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(reply.Documents), 1)
	<-done
}

// fakeNotifier is a test double for notifier.Notifier that records
// Add/Del calls without driving any real event loop; tests call
// AsyncConnection.HandleRead/HandleWrite directly instead.
type fakeNotifier struct {
	reads, writes int
	closed        bool
}

func (f *fakeNotifier) AddRead()  { f.reads++ }
func (f *fakeNotifier) DelRead()  { f.reads-- }
func (f *fakeNotifier) AddWrite() { f.writes++ }
func (f *fakeNotifier) DelWrite() { f.writes-- }
func (f *fakeNotifier) Close()    { f.closed = true }

func TestAsyncConnectionHardDisconnectDrainsInOrder(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	c := newConnection(Addr{Network: NetworkFd})
	c.nc = client
	c.state = StateConnected
	n := &fakeNotifier{}
	ac := NewAsync(c, n)

	var order []int32
	for _, id := range []int32{1, 2, 3} {
		id := id
		ac.callbacks.register(id, func(reply *wire.Reply) { order = append(order, id) })
	}

	var disconnectOK *bool
	ac.OnDisconnect = func(ok bool) { disconnectOK = &ok }

	server.Close() // forces the next Read to return an error/EOF on client
	ac.HandleRead()

	ensure.DeepEqual(t, order, []int32{1, 2, 3})
	ensure.NotNil(t, disconnectOK)
	if *disconnectOK {
		t.Fatal("expected OnDisconnect(false) on a hard disconnect")
	}
	ensure.DeepEqual(t, ac.State(), StateClosed)
}

func TestAsyncConnectionCleanDisconnectWaitsForPending(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := newConnection(Addr{Network: NetworkFd})
	c.nc = client
	c.state = StateConnected
	n := &fakeNotifier{}
	ac := NewAsync(c, n)

	delivered := false
	ac.callbacks.register(7, func(reply *wire.Reply) { delivered = true })

	ac.Disconnect()
	ensure.DeepEqual(t, ac.State(), StateDisconnecting)

	go func() {
		time.Sleep(10 * time.Millisecond)
		server.Write(buildFakeReply(7, 0, []byte{5, 0, 0, 0, 0}))
	}()

	for i := 0; i < 10 && ac.State() != StateClosed; i++ {
		ac.HandleRead()
	}

	if !delivered {
		t.Fatal("expected pending callback to be delivered before close")
	}
	ensure.DeepEqual(t, ac.State(), StateClosed)
}
