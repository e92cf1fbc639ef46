package main

import (
	"net"
	"strconv"
	"time"

	"github.com/facebookgo/gangliamr"
	"github.com/facebookgo/stats"
	"github.com/mongowire/mongowire/conn"
	"github.com/mongowire/mongowire/metrics"
	"github.com/mongowire/mongowire/wire"
	"gopkg.in/mgo.v2/bson"
)

// App drives a single blocking Connection against a mongod and issues
// repeated ping commands, reporting round-trip latency. It implements the
// Start/Stop shape facebookgo/startstop drives by reflection, matching
// proxy.Proxy's convention in the original.
type App struct {
	Log conn.Logger `inject:""`
	// Stats if provided will be used to record interesting stats, matching
	// proxy.Proxy's own "Stats if provided..." convention.
	Stats stats.Client `inject:""`

	Addr     string
	Database string
	Count    int
	Interval time.Duration

	c *conn.Connection
}

// Start dials the target mongod. Injected by startstop.Start.
func (a *App) Start() error {
	host, port, err := splitHostPort(a.Addr)
	if err != nil {
		return err
	}
	c, err := conn.DialTimeout(host, port, 5*time.Second)
	if err != nil {
		return err
	}
	c.Log = a.Log
	c.Metrics = &metrics.Client{Stats: a.Stats}
	a.c = c
	return nil
}

// Stop closes the connection. Injected by startstop.Stop.
func (a *App) Stop() error {
	if a.c == nil {
		return nil
	}
	return a.c.Disconnect()
}

// RegisterMetrics registers this App's counters with a Ganglia registry,
// matching dvara's RegisterMetrics(r *gangliamr.Registry) convention.
func (a *App) RegisterMetrics(r *gangliamr.Registry) {
	metrics.RegisterMetrics(r, map[string]*gangliamr.Counter{
		"mongowire_bench_pings": {},
	})
}

// Run issues Count ping commands against Database, sleeping Interval
// between each, and logs round-trip latency for every one.
func (a *App) Run() error {
	ping, err := bson.Marshal(bson.M{"ping": 1})
	if err != nil {
		return err
	}

	for i := 0; i < a.Count; i++ {
		start := time.Now()
		reply, err := a.c.Command(func(buf *wire.Buffer, requestID int32) error {
			return wire.EncodeQuery(buf, requestID, 0, a.Database, "$cmd", 0, 1, ping, nil)
		})
		elapsed := time.Since(start)
		if err != nil {
			a.Log.Errorf("ping %d failed: %v", i, err)
			return err
		}
		a.Log.Infof("ping %d: %s (documents=%d)", i, elapsed, len(reply.Documents))
		if a.Interval > 0 && i < a.Count-1 {
			time.Sleep(a.Interval)
		}
	}
	return nil
}

func splitHostPort(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
