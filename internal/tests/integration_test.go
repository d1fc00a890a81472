// Package tests runs the workloads end to end against an on-disk store.
package tests

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/syncx-go/internal/bench"
	"github.com/yndnr/syncx-go/internal/storage"
	"github.com/yndnr/syncx-go/internal/storage/snapshot"
	"github.com/yndnr/syncx-go/internal/telemetry/logger"
	"github.com/yndnr/syncx-go/internal/telemetry/metric"
	"github.com/yndnr/syncx-go/pkg/bridge"
	"github.com/yndnr/syncx-go/pkg/cmap"
)

const passphrase = "integration passphrase"

func openStore(t *testing.T, dir string) (*storage.BadgerEngine, *snapshot.Store) {
	t.Helper()
	kv, err := storage.NewBadgerEngine(storage.DefaultKVConfig(dir), logger.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return kv, snapshot.NewStore(kv,
		snapshot.WithLogger(logger.NewNop()),
		snapshot.WithRetention(5),
		snapshot.WithPassphrase([]byte(passphrase)))
}

// TestWorkloads_PersistAcrossRestart runs every workload under both host
// runtimes, persists results and running totals, reopens the store and
// checks nothing was lost.
func TestWorkloads_PersistAcrossRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := filepath.Join(t.TempDir(), "data")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	reg := metric.NewRegistry()
	bridge.SetObserver(reg)
	defer bridge.SetObserver(nil)

	kv, store := openStore(t, dir)
	totals := cmap.New[string, int64]()
	var want int64

	for _, mode := range []struct {
		name string
		rt   bridge.Runtime
	}{
		{"serialized", bridge.NewSerialized()},
		{"free", bridge.FreeThreaded()},
	} {
		opts := bench.Options{
			Runtime:        mode.rt,
			Workers:        8,
			Ops:            400,
			AcquireTimeout: -1,
			Metrics:        reg,
			Logger:         logger.NewNop(),
		}
		var results []*bench.Result
		for _, w := range bench.All {
			res, err := bench.Run(ctx, w, opts)
			if err != nil {
				t.Fatalf("%s/%s: %v", mode.name, w, err)
			}
			if res.Ops != opts.TotalOps(w) {
				t.Errorf("%s/%s ops = %d, want %d", mode.name, w, res.Ops, opts.TotalOps(w))
			}
			results = append(results, res)
			want += res.Ops
			if _, err := totals.Update(string(w), func(v int64, _ bool) int64 { return v + res.Ops }); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := store.Save(ctx, "results", "bench.result", len(results), results); err != nil {
			t.Fatalf("save results: %v", err)
		}
	}
	if _, err := snapshot.SaveMap(ctx, store, "totals", totals); err != nil {
		t.Fatalf("save totals: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	kv, store = openStore(t, dir)
	defer kv.Close()

	infos, err := store.List(ctx, "results")
	if err != nil || len(infos) != 2 {
		t.Fatalf("List() = %d infos, %v; want 2", len(infos), err)
	}
	for _, info := range infos {
		if !info.Encrypted {
			t.Errorf("snapshot %s stored in clear text", info.ID)
		}
	}

	restored := cmap.New[string, int64]()
	if _, err := snapshot.RestoreMap(ctx, store, "totals", restored); err != nil {
		t.Fatalf("restore totals: %v", err)
	}
	var got int64
	for _, v := range restored.All() {
		got += v
	}
	if got != want {
		t.Errorf("restored total = %d, want %d", got, want)
	}
}
