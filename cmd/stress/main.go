package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/delaneyj/kvo/kvo"
	"github.com/delaneyj/kvo/runloop"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const repeatsKey = "repeats"

type topology string

const (
	ring   topology = "ring"   // two-way, every node bound to the next, last to first
	chain  topology = "chain"  // one-way, node i drives node i+1
	fanout topology = "fanout" // one-way, node 0 drives every other node
)

type stressTestConfig struct {
	name       string   // friendly name for the test, should be unique
	topology   topology // shape of the binding graph
	size       int      // number of objects
	transform  bool     // route values through a transform pair
	iterations int64    // writes per run, each followed by a flush
}

func main() {
	cmd := &cli.Command{
		Name:  "stress",
		Usage: "Drive binding graphs to convergence and report sync throughput",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  repeatsKey,
				Usage: "Runs per config, the fastest is reported",
				Value: 5,
			},
		},
		Action: stress,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func stress(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting kvo binding stress, please wait...")
	defer log.Print("Finished kvo binding stress")

	cfgs := []stressTestConfig{
		{name: "small ring", topology: ring, size: 10, iterations: 20000},
		{name: "large ring", topology: ring, size: 1000, iterations: 200},
		{name: "long chain", topology: chain, size: 1000, iterations: 500},
		{name: "transformed chain", topology: chain, size: 30, transform: true, iterations: 2000},
		{name: "wide fanout", topology: fanout, size: 5000, iterations: 200},
	}

	type results struct {
		syncs    uint64
		flushes  uint64
		duration time.Duration
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"test", "topology", "size", "bindings", "nTimes",
		"time", "syncs", "flushes", "syncRate",
	})

	repeats := int(cmd.Uint(repeatsKey))
	for _, cfg := range cfgs {
		log.Printf("Running '%s' config", cfg.name)
		best := &results{duration: time.Hour}

		// run once to warm up
		if _, _, err := runStress(cfg); err != nil {
			return err
		}

		for i := 0; i < repeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.name, i+1, repeats, (i+1)*100/repeats)
			start := time.Now()
			syncs, stats, err := runStress(cfg)
			if err != nil {
				return err
			}
			duration := time.Since(start)
			if duration < best.duration {
				best.duration = duration
				best.syncs = syncs
				best.flushes = stats.Flushes
			}
		}

		syncRate := float64(best.syncs) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			cfg.name,
			string(cfg.topology),
			humanize.Comma(int64(cfg.size)),
			humanize.Comma(int64(bindingCount(cfg))),
			humanize.Comma(cfg.iterations),
			fmt.Sprint(best.duration),
			humanize.Comma(int64(best.syncs)),
			humanize.Comma(int64(best.flushes)),
			humanize.Comma(int64(syncRate)) + "/ms",
		})
	}
	table.Render()
	return nil
}

func bindingCount(cfg stressTestConfig) int {
	if cfg.topology == ring {
		return cfg.size
	}
	return cfg.size - 1
}

var nodeClass = kvo.NewClass("Node").Property("value", kvo.Raw(0))

// scale doubles values flowing forward; unscale is its inverse.
func scale(v any) (any, error)   { return v.(int) * 2, nil }
func unscale(v any) (any, error) { return v.(int) / 2, nil }

// runStress builds the graph, then repeatedly writes a random node (the
// root for one-way graphs), flushes and checks that every node agrees.
func runStress(cfg stressTestConfig) (syncs uint64, stats runloop.Stats, err error) {
	var loopErr error
	loop := runloop.New(func(queue string, bound any, err error) {
		loopErr = err
	})

	nodes := make([]*kvo.Object, cfg.size)
	for i := range nodes {
		nodes[i] = nodeClass.MustNew(loop, nil)
	}

	var bindings []*kvo.Binding
	bind := func(from, to int, twoWay bool) error {
		bc := kvo.BindingConfig{
			Source:     nodes[from],
			SourcePath: "value",
			Target:     nodes[to],
			TargetPath: "value",
			TwoWay:     twoWay,
		}
		if cfg.transform {
			bc.Transform, bc.Reverse = scale, unscale
		}
		b, err := kvo.Bind(loop, bc)
		if err != nil {
			return err
		}
		bindings = append(bindings, b)
		return nil
	}

	switch cfg.topology {
	case ring:
		for i := range nodes {
			if err := bind(i, (i+1)%len(nodes), true); err != nil {
				return 0, stats, err
			}
		}
	case chain:
		for i := 1; i < len(nodes); i++ {
			if err := bind(i-1, i, false); err != nil {
				return 0, stats, err
			}
		}
	case fanout:
		for i := 1; i < len(nodes); i++ {
			if err := bind(0, i, false); err != nil {
				return 0, stats, err
			}
		}
	}

	random := rand.New(rand.NewSource(0))
	for i := int64(0); i < cfg.iterations; i++ {
		writer := 0
		if cfg.topology == ring {
			writer = random.Intn(len(nodes))
		}
		nodes[writer].MustSet("value", int(i+1))
		loop.Flush()
		if loopErr != nil {
			return 0, stats, loopErr
		}
		if err := converged(cfg, nodes, writer); err != nil {
			return 0, stats, fmt.Errorf("%s iteration %d: %w", cfg.name, i, err)
		}
	}

	for _, b := range bindings {
		syncs += b.Syncs()
	}
	return syncs, loop.Stats(), nil
}

// converged checks every node against the value written at writer. With
// transforms the value doubles at every hop.
func converged(cfg stressTestConfig, nodes []*kvo.Object, writer int) error {
	want := kvo.Value[int](nodes[writer], "value")
	for i, n := range nodes {
		got := kvo.Value[int](n, "value")
		expect := want
		if cfg.transform {
			switch cfg.topology {
			case chain:
				expect = want << i
			case fanout:
				if i > 0 {
					expect = want * 2
				}
			}
		}
		if got != expect {
			return fmt.Errorf("node %d holds %d, want %d", i, got, expect)
		}
	}
	return nil
}
