package config

import "time"

// Default configuration values.
const (
	DefaultWorkers        = 8
	DefaultOps            = 10000
	DefaultBurst          = 100
	DefaultAcquireTimeout = 5 * time.Second
	DefaultSoakInterval   = time.Second

	BridgeSerialized = "serialized"
	BridgeFree       = "free"

	DefaultMapShards = 16
	DefaultMapKeys   = 1024

	DefaultQueueMaxSize = 128

	DefaultDataDir = "./syncx-data"
	DefaultKeep    = 10

	DefaultMetricsAddr = "127.0.0.1:9464"

	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
	DefaultLogBackend = "slog"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Bench: BenchSection{
			Workers:        DefaultWorkers,
			Ops:            DefaultOps,
			Burst:          DefaultBurst,
			AcquireTimeout: DefaultAcquireTimeout,
			SoakInterval:   DefaultSoakInterval,
		},
		Bridge: BridgeSection{
			Mode: BridgeSerialized,
		},
		Map: MapSection{
			Shards: DefaultMapShards,
			Keys:   DefaultMapKeys,
		},
		Queue: QueueSection{
			MaxSize: DefaultQueueMaxSize,
		},
		Storage: StorageSection{
			DataDir: DefaultDataDir,
			Keep:    DefaultKeep,
		},
		Metrics: MetricsSection{
			ListenAddr: DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:   DefaultLogLevel,
			Format:  DefaultLogFormat,
			Backend: DefaultLogBackend,
		},
	}
}
