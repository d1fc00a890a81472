package command

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/syncx-go/internal/bench"
	"github.com/yndnr/syncx-go/internal/config"
	"github.com/yndnr/syncx-go/internal/infra/confloader"
	"github.com/yndnr/syncx-go/internal/infra/shutdown"
	"github.com/yndnr/syncx-go/internal/infra/tlsroots"
	"github.com/yndnr/syncx-go/internal/server/httpserver"
	"github.com/yndnr/syncx-go/internal/storage/snapshot"
	"github.com/yndnr/syncx-go/internal/telemetry/logger"
	"github.com/yndnr/syncx-go/internal/telemetry/metric"
	"github.com/yndnr/syncx-go/pkg/bridge"
	"github.com/yndnr/syncx-go/pkg/cmap"
)

const (
	totalsSnapshot       = "soak-totals"
	shutdownTimeout      = 30 * time.Second
	storeMetricsInterval = 10 * time.Second
)

// SoakCommand returns the soak command.
func SoakCommand() *cli.Command {
	return &cli.Command{
		Name:  "soak",
		Usage: "Run every workload repeatedly until interrupted",
		Description: "Each round runs all workloads, stores the results and the " +
			"cumulative operation totals, then sleeps bench.soak_interval. " +
			"The configuration file is watched and re-applied between rounds.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "rounds",
				Usage: "Stop after this many rounds (0 = until interrupted)",
			},
			&cli.DurationFlag{
				Name:  "duration",
				Usage: "Stop after this long (0 = until interrupted)",
			},
			&cli.BoolFlag{
				Name:  "fair",
				Usage: "Release locks with direct hand-off to the next waiter",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Serve /metrics even if metrics.enabled is false",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Metrics listen address (overrides metrics.listen_addr)",
			},
		},
		Action: soak,
	}
}

func soak(c *cli.Context) error {
	env, err := GetEnv(c)
	if err != nil {
		return err
	}
	cfg := env.Config()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()
	if d := c.Duration("duration"); d > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, d)
		defer cancelTimeout()
	}

	// Each soak run gets its own registry so store collectors register once.
	reg := metric.NewRegistry()
	env.Metrics = reg
	bridge.SetObserver(reg)
	defer bridge.SetObserver(nil)

	h := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(env.Log))

	kv, store, err := openStore(env)
	if err != nil {
		return err
	}
	h.OnShutdown("store", func(context.Context) error { return kv.Close() })
	kv.RegisterMetrics(reg.Registerer(), storeMetricsInterval)

	if cfg.Metrics.Enabled || c.Bool("metrics") {
		addr := cfg.Metrics.ListenAddr
		if c.IsSet("listen") {
			addr = c.String("listen")
		}
		tlsCfg, err := metricsTLS(env, h, &cfg.Metrics)
		if err != nil {
			h.Shutdown()
			return err
		}
		srv, err := serveMetrics(env, reg, addr, cfg.Metrics.AuthToken, tlsCfg)
		if err != nil {
			h.Shutdown()
			return err
		}
		h.OnShutdown("metrics", srv.Shutdown)
	}

	if path := env.Loader.FilePath(); path != "" {
		w, err := watchConfig(env, path)
		if err != nil {
			h.Shutdown()
			return err
		}
		h.OnShutdown("config-watcher", func(context.Context) error { return w.Stop() })
	}

	totals := cmap.New[string, int64]()
	if info, err := snapshot.RestoreMap(ctx, store, totalsSnapshot, totals); err == nil {
		env.Log.Info("resuming soak totals", "snapshot", info.ID, "workloads", info.Count)
	} else if !errors.Is(err, snapshot.ErrNoSnapshots) {
		h.Shutdown()
		return fmt.Errorf("restore totals: %w", err)
	}

	var loopErr error
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		defer cancel()
		loopErr = soakLoop(ctx, env, store, totals, c.Int("rounds"), c.Bool("fair"))
	}()
	h.OnShutdown("workloads", func(sctx context.Context) error {
		cancel()
		select {
		case <-loopDone:
			return nil
		case <-sctx.Done():
			return sctx.Err()
		}
	})

	if err := h.Wait(ctx); err != nil {
		return err
	}
	if loopErr != nil {
		return loopErr
	}
	state := totals.State()
	return env.Print(totalRows(state))
}

// soakLoop runs rounds until ctx is done or rounds (if positive) is
// reached. Cancellation is a normal stop.
func soakLoop(ctx context.Context, env *Env, store *snapshot.Store, totals *cmap.Map[string, int64], rounds int, fair bool) error {
	for round := 1; rounds <= 0 || round <= rounds; round++ {
		results := make([]*bench.Result, 0, len(bench.All))
		for _, w := range bench.All {
			res, err := bench.Run(ctx, w, benchOptions(env, fair))
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("round %d: %s: %w", round, w, err)
			}
			if _, err := totals.Update(string(w), func(v int64, _ bool) int64 { return v + res.Ops }); err != nil {
				return err
			}
			results = append(results, res)
		}

		if _, err := store.Save(ctx, resultsSnapshot, resultKind, len(results), results); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("save results: %w", err)
		}
		if _, err := snapshot.SaveMap(ctx, store, totalsSnapshot, totals); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("save totals: %w", err)
		}
		env.Log.Info("soak round finished", "round", round)

		if rounds > 0 && round == rounds {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(env.Config().Bench.SoakInterval):
		}
	}
	return nil
}

// metricsTLS loads the endpoint's key pair and keeps it fresh until
// shutdown. It returns nil when TLS is not configured.
func metricsTLS(env *Env, h *shutdown.Handler, cfg *config.MetricsSection) (*tls.Config, error) {
	if cfg.TLSCertFile == "" {
		return nil, nil
	}
	kp, err := tlsroots.LoadKeypair(cfg.TLSCertFile, cfg.TLSKeyFile, env.Log)
	if err != nil {
		return nil, err
	}
	var clientCAs *x509.CertPool
	if cfg.ClientCAFile != "" {
		if clientCAs, err = tlsroots.LoadClientCAs(cfg.ClientCAFile); err != nil {
			return nil, err
		}
	}
	if err := kp.Watch(); err != nil {
		return nil, err
	}
	h.OnShutdown("tls-watcher", func(context.Context) error { return kp.Stop() })
	return tlsroots.ServerConfig(kp, clientCAs), nil
}

func serveMetrics(env *Env, reg *metric.Registry, addr, token string, tlsCfg *tls.Config) (*httpserver.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}
	srv := httpserver.New(addr, httpserver.NewRouter(&httpserver.RouterConfig{
		Metrics:   reg,
		AuthToken: token,
		Logger:    env.Log,
	}))
	go func() {
		if err := srv.Serve(ln); err != nil {
			env.Log.Error("metrics server error", "error", err)
		}
	}()
	env.Log.Info("metrics endpoint listening",
		"addr", ln.Addr().String(),
		"auth", token != "",
		"tls", tlsCfg != nil)
	return srv, nil
}

// watchConfig re-applies the configuration file whenever it changes. A file
// that fails to load or verify leaves the running configuration in place.
func watchConfig(env *Env, path string) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		next, err := config.Reload(env.Loader)
		if err != nil {
			env.Log.Warn("config reload rejected", "file", path, "error", err)
			return
		}
		logger.SetLevel(next.Log.Level)
		env.setConfig(next)
		env.Log.Info("config reloaded", "file", path, "workers", next.Bench.Workers, "mode", next.Bridge.Mode)
	})
	w.StartAsync()
	return w, nil
}
