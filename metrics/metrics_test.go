package metrics

import (
	"testing"

	"github.com/facebookgo/gangliamr"
)

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	c.RequestEncoded("query")
	c.ReplyDecoded()
	c.BytesWritten(10)
	c.BytesRead(10)
	c.ProtocolError()
	c.IOError()
	c.Reconnect()
}

func TestRegisterMetricsSetsNameAndRegisters(t *testing.T) {
	r := gangliamr.NewTestRegistry()
	counters := map[string]*gangliamr.Counter{
		"reply.decoded": {},
	}
	RegisterMetrics(r, counters)
	if counters["reply.decoded"].Name != "reply.decoded" {
		t.Fatalf("expected counter Name to be set, got %q", counters["reply.decoded"].Name)
	}
}
