package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/syncx-go/internal/bench"
	"github.com/yndnr/syncx-go/internal/output"
)

// resultsSnapshot names the stored series of run results.
const (
	resultsSnapshot = "results"
	resultKind      = "bench.result"
)

// RunCommand returns the run command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run workloads once and report throughput",
		ArgsUsage: "[WORKLOAD...]",
		Description: "Workloads are locks, rwlock, queue and map. " +
			"Without arguments, or with \"all\", every workload runs.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fair",
				Usage: "Release locks with direct hand-off to the next waiter",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Keep the results in the result store",
			},
		},
		Action: runWorkloads,
	}
}

func parseWorkloads(args []string) ([]bench.Workload, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "all") {
		return bench.All, nil
	}
	out := make([]bench.Workload, 0, len(args))
	for _, a := range args {
		w, err := bench.ParseWorkload(a)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

// benchOptions builds workload options from the current configuration.
func benchOptions(env *Env, fair bool) bench.Options {
	cfg := env.Config()
	return bench.Options{
		Runtime:        cfg.Runtime(),
		Workers:        cfg.Bench.Workers,
		Ops:            cfg.Bench.Ops,
		Rate:           cfg.Bench.Rate,
		Burst:          cfg.Bench.Burst,
		AcquireTimeout: cfg.Bench.AcquireTimeout,
		Fair:           cfg.Bench.Fair || fair,
		MapShards:      cfg.Map.Shards,
		MapKeys:        cfg.Map.Keys,
		QueueMaxSize:   cfg.Queue.MaxSize,
		Metrics:        env.Metrics,
		Logger:         env.Log,
	}
}

func runWorkloads(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	workloads, err := parseWorkloads(c.Args().Slice())
	if err != nil {
		return err
	}

	results := make([]*bench.Result, 0, len(workloads))
	for _, w := range workloads {
		opts := benchOptions(env, c.Bool("fair"))

		var p *output.Progress
		if !env.Quiet && env.Format == output.FormatTable {
			p = output.NewProgress(env.Err, string(w), opts.TotalOps(w))
			opts.OnOps = p.Add
		}
		res, err := bench.Run(c.Context, w, opts)
		if p != nil {
			p.Finish()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", w, err)
		}
		results = append(results, res)
	}

	if c.Bool("save") {
		kv, store, err := openStore(env)
		if err != nil {
			return err
		}
		defer kv.Close()
		info, err := store.Save(c.Context, resultsSnapshot, resultKind, len(results), results)
		if err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		env.Log.Info("results saved", "id", info.ID, "count", info.Count)
	}

	return env.Print(results)
}
