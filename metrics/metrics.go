// Package metrics provides the ambient observability counters every
// Connection reports through, grounded in dvara's use of
// github.com/facebookgo/stats and github.com/facebookgo/gangliamr.
package metrics

import (
	"github.com/facebookgo/gangliamr"
	"github.com/facebookgo/stats"
)

// Client bundles the per-connection counters a Connection bumps. A nil
// *Client is safe to use — every method is a no-op — matching
// facebookgo/stats' own nil-safe BumpSum/BumpTime package functions.
type Client struct {
	Stats stats.Client
}

func (c *Client) bumpSum(key string, n float64) {
	if c == nil {
		return
	}
	stats.BumpSum(c.Stats, key, n)
}

// RequestEncoded records that a request of the given opcode was encoded.
func (c *Client) RequestEncoded(opcode string) {
	c.bumpSum("request.encoded."+opcode, 1)
}

// ReplyDecoded records that a reply was successfully decoded.
func (c *Client) ReplyDecoded() {
	c.bumpSum("reply.decoded", 1)
}

// BytesWritten records the number of bytes flushed to the socket.
func (c *Client) BytesWritten(n int) {
	c.bumpSum("bytes.written", float64(n))
}

// BytesRead records the number of bytes read from the socket.
func (c *Client) BytesRead(n int) {
	c.bumpSum("bytes.read", float64(n))
}

// ProtocolError records a malformed-frame disconnect.
func (c *Client) ProtocolError() {
	c.bumpSum("error.protocol", 1)
}

// IOError records an I/O disconnect.
func (c *Client) IOError() {
	c.bumpSum("error.io", 1)
}

// Reconnect records a successful reconnect.
func (c *Client) Reconnect() {
	c.bumpSum("reconnect", 1)
}

// GangliaRegistry adapts Client's counters for processes that report to
// Ganglia, mirroring dvara's RegisterMetrics(r *gangliamr.Registry)
// convention (main.go, lib/dvara/replica_set.go).
func RegisterMetrics(r *gangliamr.Registry, counters map[string]*gangliamr.Counter) {
	for name, counter := range counters {
		counter.Name = name
		r.Register(counter)
	}
}
