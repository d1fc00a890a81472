package command

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/syncx-go/internal/config"
	"github.com/yndnr/syncx-go/internal/infra/buildinfo"
	"github.com/yndnr/syncx-go/internal/infra/confloader"
	"github.com/yndnr/syncx-go/internal/output"
	"github.com/yndnr/syncx-go/internal/telemetry/logger"
	"github.com/yndnr/syncx-go/internal/telemetry/metric"
	"github.com/yndnr/syncx-go/pkg/bridge"
)

const envKey = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "syncx-bench",
		Usage:   "Exercise the syncx primitives under contention",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			RunCommand(),
			SoakCommand(),
			SnapshotCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		Before: setup,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"SYNCX_CONFIG"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"n"},
			Usage:   "Number of concurrent host threads",
		},
		&cli.IntFlag{
			Name:  "ops",
			Usage: "Operations per worker",
		},
		&cli.Float64Flag{
			Name:  "rate",
			Usage: "Cap on total operations per second (0 = unlimited)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Bound on each blocking acquire (negative waits forever)",
		},
		&cli.StringFlag{
			Name:  "mode",
			Usage: "Host runtime: serialized or free",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory of the result store",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress progress output",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Wide       bool
	Quiet      bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		ConfigFile: c.String("config"),
		Output:     c.String("output"),
		Wide:       c.Bool("wide"),
		Quiet:      c.Bool("quiet"),
	}
}

// flagOverrides maps explicitly set flags onto configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	m := make(map[string]any)
	if c.IsSet("workers") {
		m["bench.workers"] = c.Int("workers")
	}
	if c.IsSet("ops") {
		m["bench.ops"] = c.Int("ops")
	}
	if c.IsSet("rate") {
		m["bench.rate"] = c.Float64("rate")
	}
	if c.IsSet("timeout") {
		m["bench.acquire_timeout"] = c.Duration("timeout").String()
	}
	if c.IsSet("mode") {
		m["bridge.mode"] = c.String("mode")
	}
	if c.IsSet("data-dir") {
		m["storage.data_dir"] = c.String("data-dir")
	}
	if c.IsSet("log-level") {
		m["log.level"] = c.String("log-level")
	}
	return m
}

// Env carries what every command needs.
type Env struct {
	Loader  *confloader.Loader
	Log     logger.Logger
	Metrics *metric.Registry
	Out     io.Writer
	Err     io.Writer
	Format  output.Format
	Wide    bool
	Quiet   bool

	cfg atomic.Pointer[config.Config]
}

// Config returns the current configuration.
func (e *Env) Config() *config.Config { return e.cfg.Load() }

func (e *Env) setConfig(cfg *config.Config) { e.cfg.Store(cfg) }

// Print writes data in the selected output format.
func (e *Env) Print(data any) error {
	return output.NewFormatter(e.Format, e.Wide).Format(e.Out, data)
}

func setup(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}

	var opts []confloader.Option
	if flags.ConfigFile != "" {
		opts = append(opts, confloader.WithConfigFile(flags.ConfigFile))
	}
	loader := confloader.NewLoader(opts...)
	if overrides := flagOverrides(c); len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return err
		}
	}
	cfg, err := config.Reload(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	env := &Env{
		Loader:  loader,
		Metrics: metric.Global(),
		Out:     writerOr(c.App.Writer, os.Stdout),
		Err:     writerOr(c.App.ErrWriter, os.Stderr),
		Format:  format,
		Wide:    flags.Wide,
		Quiet:   flags.Quiet,
	}
	env.setConfig(cfg)

	log, err := logger.New(cfg.LoggerConfig(env.Err))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	env.Log = log

	bridge.SetObserver(env.Metrics)

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[envKey] = env
	return nil
}

func writerOr(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}

// GetEnv retrieves the Env prepared by the Before hook.
func GetEnv(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("command environment not initialised")
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
