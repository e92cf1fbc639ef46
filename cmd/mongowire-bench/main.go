package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/facebookgo/gangliamr"
	"github.com/facebookgo/inject"
	"github.com/facebookgo/startstop"
	"github.com/facebookgo/stats"
)

func main() {
	if err := Main(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func Main() error {
	addr := flag.String("addr", "localhost:27017", "mongod address to bench against")
	database := flag.String("db", "admin", "database to run ping against")
	count := flag.Int("count", 100, "number of ping commands to issue")
	interval := flag.Duration("interval", 0, "delay between pings")

	flag.Parse()

	app := App{
		Addr:     *addr,
		Database: *database,
		Count:    *count,
		Interval: *interval,
	}

	var statsClient stats.HookClient
	var log stdLogger
	var graph inject.Graph
	err := graph.Provide(
		&inject.Object{Value: &log},
		&inject.Object{Value: &app},
		&inject.Object{Value: &statsClient},
	)
	if err != nil {
		return err
	}
	if err := graph.Populate(); err != nil {
		return err
	}
	objects := graph.Objects()

	gregistry := gangliamr.NewTestRegistry()
	for _, o := range objects {
		if rmO, ok := o.Value.(registerMetrics); ok {
			rmO.RegisterMetrics(gregistry)
		}
	}

	if err := startstop.Start(objects, &log); err != nil {
		return err
	}
	defer startstop.Stop(objects, &log)

	start := time.Now()
	if err := app.Run(); err != nil {
		return err
	}
	log.Infof("bench complete: %d pings in %s", *count, time.Since(start))
	return nil
}

type registerMetrics interface {
	RegisterMetrics(r *gangliamr.Registry)
}
