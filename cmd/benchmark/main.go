package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/delaneyj/kvo/kvo"
	"github.com/delaneyj/kvo/runloop"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	itersKey     = "iters"
	maxWidthKey  = "width"
	maxHeightKey = "height"
	profileKey   = "profile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure kvo propagation, binding and run loop latency",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  itersKey,
				Usage: "Timed iterations per case",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  maxWidthKey,
				Usage: "Largest graph width, cases step by powers of ten",
				Value: 100,
			},
			&cli.UintFlag{
				Name:  maxHeightKey,
				Usage: "Largest graph height, cases step by powers of ten",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile here, empty to disable",
				Value: "default.pgo",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(profileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	iters := int(cmd.Uint(itersKey))
	ww := powersOfTen(int(cmd.Uint(maxWidthKey)))
	hh := powersOfTen(int(cmd.Uint(maxHeightKey)))

	log.Printf("warming up")
	benchmarkPropagate(ww, hh, iters, false)

	benchmarkPropagate(ww, hh, iters, true)
	benchmarkBindings(ww, iters, true)
	benchmarkRunLoop(ww, iters, true)
	return nil
}

func powersOfTen(limit int) []int {
	var out []int
	for n := 1; n <= limit; n *= 10 {
		out = append(out, n)
	}
	return out
}

func addOne(v int) int {
	return v + 1
}

func newTable(title string) table.Writer {
	tbl := table.NewWriter()
	tbl.SetTitle(title)
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})
	return tbl
}

func appendCalc(tbl table.Writer, name string, tach *tachymeter.Tachymeter) {
	calc := tach.Calc()
	tbl.AppendRow(table.Row{
		name,
		calc.Time.Avg,
		calc.Time.Min,
		calc.Time.P75,
		calc.Time.P99,
		calc.Time.Max,
	})
}

func newLoop() *runloop.RunLoop {
	return runloop.New(func(queue string, bound any, err error) {
		log.Panic(err)
	})
}

// benchmarkPropagate builds w chains of h computed properties hanging off
// one source key, each leaf observed, and times a write to the source.
func benchmarkPropagate(ww, hh []int, iters int, shouldRender bool) {
	tbl := newTable("Computed propagation")

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			c := kvo.NewClass("Graph").Property("src", kvo.Raw(1))
			var leaves []string
			for i := 0; i < w; i++ {
				prev := "src"
				for j := 0; j < h; j++ {
					key := fmt.Sprintf("c%d_%d", i, j)
					c.Property(key, kvo.Computed1(prev, addOne))
					prev = key
				}
				leaves = append(leaves, prev)
			}
			o := c.MustNew(newLoop(), nil)
			for _, leaf := range leaves {
				o.AddObserverForKey(leaf, nil, func(*kvo.Object, string, any, any) {})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				o.MustSet("src", kvo.Value[int](o, "src")+1)
				tach.AddTime(time.Since(start))
			}
			appendCalc(tbl, fmt.Sprintf("propagate: %d * %d", w, h), tach)
		}
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkBindings times a write at the head of a chain of one-way
// bindings plus the flush that carries it to the tail.
func benchmarkBindings(ww []int, iters int, shouldRender bool) {
	tbl := newTable("Binding chains")
	fields := kvo.NewClass("Field").Property("value", kvo.Raw(0))

	for _, n := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		loop := newLoop()
		nodes := make([]*kvo.Object, n+1)
		for i := range nodes {
			nodes[i] = fields.MustNew(loop, nil)
		}
		for i := 0; i < n; i++ {
			if _, err := kvo.Bind(loop, kvo.BindingConfig{
				Source:     nodes[i],
				SourcePath: "value",
				Target:     nodes[i+1],
				TargetPath: "value",
			}); err != nil {
				log.Panic(err)
			}
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			nodes[0].MustSet("value", i+1)
			loop.Flush()
			tach.AddTime(time.Since(start))
			if got := nodes[n].Get("value"); got != i+1 {
				log.Panicf("chain of %d did not converge: got %v want %d", n, got, i+1)
			}
		}
		appendCalc(tbl, fmt.Sprintf("bindings: %d", n), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}

// benchmarkRunLoop times queueing n distinct jobs across all queues and
// flushing them.
func benchmarkRunLoop(ww []int, iters int, shouldRender bool) {
	tbl := newTable("Run loop")
	queues := runloop.DefaultQueues

	for _, n := range ww {
		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		loop := newLoop()
		bounds := make([]*int, n)
		for i := range bounds {
			bounds[i] = new(int)
		}

		for i := 0; i < iters; i++ {
			start := time.Now()
			for j, b := range bounds {
				loop.QueueFn(queues[j%len(queues)], func() error {
					*b++
					return nil
				}, b)
			}
			loop.Flush()
			tach.AddTime(time.Since(start))
		}
		appendCalc(tbl, fmt.Sprintf("queue+flush: %d", n), tach)
	}

	if shouldRender {
		tbl.Render()
	}
}
