package config

import (
	"errors"
	"fmt"
	"math/bits"
	"net"
)

const minPassphraseLength = 8

// Verify validates the configuration and reports every problem found.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyBench(&cfg.Bench),
		verifyBridge(&cfg.Bridge),
		verifyMap(&cfg.Map),
		verifyQueue(&cfg.Queue),
		verifyStorage(&cfg.Storage),
		verifyMetrics(&cfg.Metrics),
		verifyLog(&cfg.Log),
	)
}

func verifyBench(cfg *BenchSection) error {
	var errs []error
	if cfg.Workers < 1 {
		errs = append(errs, errors.New("bench.workers must be at least 1"))
	}
	if cfg.Ops < 1 {
		errs = append(errs, errors.New("bench.ops must be at least 1"))
	}
	if cfg.Rate < 0 {
		errs = append(errs, errors.New("bench.rate must not be negative"))
	}
	if cfg.Rate > 0 && cfg.Burst < 1 {
		errs = append(errs, errors.New("bench.burst must be at least 1 when bench.rate is set"))
	}
	return errors.Join(errs...)
}

func verifyBridge(cfg *BridgeSection) error {
	switch cfg.Mode {
	case BridgeSerialized, BridgeFree:
		return nil
	}
	return fmt.Errorf("bridge.mode %q must be %q or %q", cfg.Mode, BridgeSerialized, BridgeFree)
}

func verifyMap(cfg *MapSection) error {
	if cfg.Shards < 1 || bits.OnesCount(uint(cfg.Shards)) != 1 {
		return fmt.Errorf("map.shards %d must be a power of two", cfg.Shards)
	}
	if cfg.Keys < 1 {
		return errors.New("map.keys must be at least 1")
	}
	return nil
}

func verifyQueue(cfg *QueueSection) error {
	if cfg.MaxSize < 0 {
		return errors.New("queue.max_size must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if cfg.Keep < 1 {
		return errors.New("storage.keep must be at least 1")
	}
	if cfg.Passphrase != "" && len(cfg.Passphrase) < minPassphraseLength {
		return fmt.Errorf("storage.passphrase must be at least %d characters", minPassphraseLength)
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return errors.New("metrics.tls_cert_file and metrics.tls_key_file must be set together")
	}
	if cfg.ClientCAFile != "" && cfg.TLSCertFile == "" {
		return errors.New("metrics.client_ca_file requires metrics.tls_cert_file")
	}
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return fmt.Errorf("metrics.listen_addr: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch cfg.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", cfg.Format))
	}
	switch cfg.Backend {
	case "slog", "zap":
	default:
		errs = append(errs, fmt.Errorf("log.backend %q must be slog or zap", cfg.Backend))
	}
	return errors.Join(errs...)
}
