package config

import (
	"fmt"
	"io"

	"github.com/yndnr/syncx-go/internal/infra/confloader"
	"github.com/yndnr/syncx-go/internal/telemetry/logger"
	"github.com/yndnr/syncx-go/pkg/bridge"
)

// Load reads configuration through l on top of Default and verifies it.
func Load(l *confloader.Loader) (*Config, error) {
	cfg := Default()
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Reload re-reads configuration through l. The returned config is only
// valid when err is nil.
func Reload(l *confloader.Loader) (*Config, error) {
	cfg := Default()
	if err := l.Reload(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoggerConfig converts the log section for logger.New.
func (c *Config) LoggerConfig(out io.Writer) logger.Config {
	return logger.Config{
		Level:   c.Log.Level,
		Format:  c.Log.Format,
		Backend: c.Log.Backend,
		Output:  out,
	}
}

// Runtime returns the host runtime selected by bridge.mode.
func (c *Config) Runtime() bridge.Runtime {
	if c.Bridge.Mode == BridgeFree {
		return bridge.FreeThreaded()
	}
	return bridge.NewSerialized()
}
