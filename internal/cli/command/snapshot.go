package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/syncx-go/internal/bench"
	"github.com/yndnr/syncx-go/internal/storage"
	"github.com/yndnr/syncx-go/internal/storage/snapshot"
	"github.com/yndnr/syncx-go/pkg/cmap"
)

// SnapshotCommand returns the snapshot subcommand group.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Inspect stored results and map snapshots",
		Subcommands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List snapshots of a series",
				ArgsUsage: "[NAME]",
				Action:    snapshotList,
			},
			{
				Name:      "show",
				Usage:     "Show a snapshot (the newest one without ID)",
				ArgsUsage: "NAME [ID]",
				Action:    snapshotShow,
			},
			{
				Name:      "prune",
				Usage:     "Delete all but the newest snapshots of a series",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "keep",
						Usage: "Number of snapshots to keep",
						Value: 1,
					},
				},
				Action: snapshotPrune,
			},
			{
				Name:      "backup",
				Usage:     "Write a full dump of the store to FILE",
				ArgsUsage: "FILE",
				Action:    snapshotBackup,
			},
			{
				Name:   "gc",
				Usage:  "Reclaim value-log space",
				Action: snapshotGC,
			},
			{
				Name:   "stats",
				Usage:  "Show store statistics",
				Action: snapshotStats,
			},
		},
	}
}

// openStore opens the result store configured for env. The caller closes
// the returned engine.
func openStore(env *Env) (*storage.BadgerEngine, *snapshot.Store, error) {
	cfg := env.Config()
	kv, err := storage.NewBadgerEngine(storage.DefaultKVConfig(cfg.Storage.DataDir), env.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	opts := []snapshot.Option{
		snapshot.WithRetention(cfg.Storage.Keep),
		snapshot.WithLogger(env.Log),
	}
	if cfg.Storage.Passphrase != "" {
		opts = append(opts, snapshot.WithPassphrase([]byte(cfg.Storage.Passphrase)))
	}
	store := snapshot.NewStore(kv, opts...)
	return kv, store, nil
}

// withStore runs fn against the configured store.
func withStore(c *cli.Context, fn func(env *Env, kv *storage.BadgerEngine, store *snapshot.Store) error) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	kv, store, err := openStore(env)
	if err != nil {
		return err
	}
	defer kv.Close()
	return fn(env, kv, store)
}

func snapshotList(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		name = resultsSnapshot
	}
	return withStore(c, func(env *Env, _ *storage.BadgerEngine, store *snapshot.Store) error {
		infos, err := store.List(c.Context, name)
		if err != nil {
			return err
		}
		return env.Print(infos)
	})
}

// totalRow is one workload's cumulative operation count.
type totalRow struct {
	Workload string `json:"workload" yaml:"workload"`
	Ops      int64  `json:"ops" yaml:"ops"`
}

func totalRows(entries []cmap.Entry[string, int64]) []totalRow {
	rows := make([]totalRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, totalRow{Workload: e.Key, Ops: e.Value})
	}
	return rows
}

func snapshotShow(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: snapshot show NAME [ID]")
	}
	name, id := c.Args().Get(0), c.Args().Get(1)

	return withStore(c, func(env *Env, _ *storage.BadgerEngine, store *snapshot.Store) error {
		var (
			raw  json.RawMessage
			info *snapshot.Info
			err  error
		)
		if id == "" {
			info, err = store.Latest(c.Context, name, &raw)
		} else {
			info, err = store.Load(c.Context, name, id, &raw)
		}
		if err != nil {
			return err
		}

		switch info.Kind {
		case resultKind:
			var results []bench.Result
			if err := json.Unmarshal(raw, &results); err != nil {
				return err
			}
			return env.Print(results)
		case "map":
			var entries []cmap.Entry[string, int64]
			if err := json.Unmarshal(raw, &entries); err != nil {
				return err
			}
			return env.Print(totalRows(entries))
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			return env.Print(v)
		}
	})
}

func snapshotPrune(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: snapshot prune NAME [--keep N]")
	}
	keep := c.Int("keep")
	if keep < 0 {
		return fmt.Errorf("--keep must be >= 0")
	}
	return withStore(c, func(env *Env, _ *storage.BadgerEngine, store *snapshot.Store) error {
		n, err := store.Prune(c.Context, c.Args().First(), keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Removed %d snapshot(s)\n", n)
		return nil
	})
}

func snapshotBackup(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("usage: snapshot backup FILE")
	}
	return withStore(c, func(env *Env, kv *storage.BadgerEngine, _ *snapshot.Store) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := kv.Backup(c.Context, f); err != nil {
			f.Close()
			return fmt.Errorf("backup: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Backup written to %s\n", path)
		return nil
	})
}

func snapshotGC(c *cli.Context) error {
	return withStore(c, func(env *Env, kv *storage.BadgerEngine, _ *snapshot.Store) error {
		n, err := kv.GC(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Rewrote %d value-log file(s)\n", n)
		return nil
	})
}

func snapshotStats(c *cli.Context) error {
	return withStore(c, func(env *Env, kv *storage.BadgerEngine, _ *snapshot.Store) error {
		stats, err := kv.Stats(c.Context)
		if err != nil {
			return err
		}
		return env.Print(stats)
	})
}
